package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewire/pkg/graph"
	"github.com/matzehuels/nodewire/pkg/kind"
)

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		})
}

// =============================================================================
// kinds
// =============================================================================

// kindsCommand creates the "kinds" command, which lists the node catalog.
func (c *CLI) kindsCommand() *cobra.Command {
	var defsFile string
	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List node kinds with their ports and sockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if defsFile == "" {
				defsFile = c.cfg.Kinds.File
			}
			defs, err := definitions(defsFile)
			if err != nil {
				return err
			}
			writeKinds(os.Stdout, defs)
			return nil
		},
	}
	cmd.Flags().StringVar(&defsFile, "definitions", "", "extra kind definitions (TOML)")
	return cmd
}

func writeKinds(w io.Writer, defs *kind.Set) {
	t := newTable("Kind", "Group", "Inputs", "Outputs", "Controls", "Size")
	for _, g := range defs.Groups() {
		for _, name := range g.Kinds {
			d, _ := defs.Lookup(name)
			group := g.Name
			if group == "" {
				group = "—"
			}
			t.Row(d.Name, group, portList(d.Inputs), portList(d.Outputs), controlList(d.Controls),
				fmt.Sprintf("%gx%g", d.Width, d.Height))
		}
	}
	fmt.Fprintln(w, t.Render())

	reg := defs.Sockets()
	var edges []string
	all := reg.Edges()
	for _, src := range reg.Kinds() {
		for _, dst := range all[src] {
			edges = append(edges, fmt.Sprintf("%s %s %s", src, iconArrow, dst))
		}
	}
	if len(edges) > 0 {
		fmt.Fprintln(w, StyleDim.Render("Socket compatibility: ")+strings.Join(edges, ", "))
	}
}

func controlList(cs []kind.ControlSpec) string {
	if len(cs) == 0 {
		return "—"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.Name + ":" + string(c.Type)
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// show
// =============================================================================

// showCommand creates the "show" command, which prints a document's nodes
// and, optionally, its connections.
func (c *CLI) showCommand() *cobra.Command {
	var (
		pick        bool
		connections bool
	)
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print the nodes and connections of a graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, _, err := fileArg(ctx, args, pick, false)
			if err != nil {
				return err
			}
			s, err := c.openSession(ctx, path, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			v := s.ed.Snapshot()
			writeNodes(os.Stdout, v)
			if connections {
				writeConnections(os.Stdout, v)
			}
			printStats(len(v.Nodes), len(v.Connections))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&connections, "connections", "c", false, "also list connections")
	addPickFlag(cmd, &pick)
	return cmd
}

func writeNodes(w io.Writer, v graph.View) {
	t := newTable("ID", "Kind", "Controls", "Position")
	for _, n := range v.Nodes {
		t.Row(n.ID.String(), n.Kind, controlValues(n), position(n.Position))
	}
	fmt.Fprintln(w, t.Render())
}

// writeConnections lists connections in append order, the way the graph
// keeps them.
func writeConnections(w io.Writer, v graph.View) {
	t := newTable("#", "Source", "Target", "Socket")
	for i, conn := range v.Connections {
		src, _ := v.Node(conn.Source)
		out, _ := src.Output(conn.SourceOutput)
		t.Row(fmt.Sprint(i+1),
			fmt.Sprintf("%s.%s", describe(src), conn.SourceOutput),
			fmt.Sprintf("%s.%s", nodeLabel(v, conn.Target), conn.TargetInput),
			string(out.Socket))
	}
	fmt.Fprintln(w, t.Render())
}

func nodeLabel(v graph.View, id graph.NodeID) string {
	n, ok := v.Node(id)
	if !ok {
		return "#" + id.String()
	}
	return describe(n)
}

func controlValues(n graph.Node) string {
	if len(n.Controls) == 0 {
		return "—"
	}
	vals := n.Values()
	names := make([]string, 0, len(vals))
	for name := range vals {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%q", name, fmt.Sprint(vals[name]))
	}
	return strings.Join(parts, " ")
}

func position(p *graph.Position) string {
	if p == nil {
		return "—"
	}
	return fmt.Sprintf("%.0f, %.0f", p.X, p.Y)
}
