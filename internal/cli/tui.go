package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/kind"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// KindPickerModel - Interactive node kind selection
// =============================================================================

// kindEntry is one row of the picker: a kind and the catalog group it sits in.
type kindEntry struct {
	Group string
	Def   kind.Definition
}

// KindPickerModel is the bubbletea model for choosing a node kind from the
// catalog. Kinds appear in catalog order, top-level kinds first.
type KindPickerModel struct {
	Entries  []kindEntry
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewKindPickerModel creates a picker over the catalog of defs.
func NewKindPickerModel(defs *kind.Set) KindPickerModel {
	var entries []kindEntry
	for _, g := range defs.Groups() {
		for _, name := range g.Kinds {
			if d, ok := defs.Lookup(name); ok {
				entries = append(entries, kindEntry{Group: g.Name, Def: d})
			}
		}
	}
	return KindPickerModel{Entries: entries, Height: 15}
}

func (m KindPickerModel) Init() tea.Cmd {
	return nil
}

func (m KindPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Entries)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Entries) == 0 {
				return m, nil
			}
			m.Selected = m.Entries[m.Cursor].Def.Name
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m KindPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Add Node"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Entries))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		e := m.Entries[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		group := e.Group
		if group == "" {
			group = "—"
		}
		rows = append(rows, []string{cursor, e.Def.Name, group, portList(e.Def.Inputs), portList(e.Def.Outputs)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Kind", "Group", "Inputs", "Outputs").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				if col == 1 {
					return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
				}
				return lipgloss.NewStyle().Bold(true)
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Entries))))

	return b.String()
}

// portList formats ports as "name:Socket, ...".
func portList(ports []kind.PortSpec) string {
	if len(ports) == 0 {
		return "—"
	}
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = p.Name + ":" + string(p.Socket)
	}
	return strings.Join(parts, ", ")
}

// pickKind runs the picker and returns the chosen kind name. Quitting
// without a choice is CANCELED.
func pickKind(defs *kind.Set) (string, error) {
	final, err := tea.NewProgram(NewKindPickerModel(defs)).Run()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "kind picker")
	}
	m, ok := final.(KindPickerModel)
	if !ok || m.Selected == "" {
		return "", errors.New(errors.ErrCodeCanceled, "no node kind selected")
	}
	return m.Selected, nil
}
