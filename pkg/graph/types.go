package graph

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/kind"
	"github.com/matzehuels/nodewire/pkg/socket"
)

// =============================================================================
// Identifiers
// =============================================================================

// NodeID identifies a node for the lifetime of the process. Zero is never
// assigned.
type NodeID uint64

// String returns the decimal form of the id.
func (id NodeID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseNodeID parses a decimal node id.
func ParseNodeID(s string) (NodeID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid node id %q", s)
	}
	return NodeID(n), nil
}

// Sequence allocates monotonically increasing node ids.
// It is safe for concurrent use.
type Sequence struct {
	last atomic.Uint64
}

// DefaultSequence is the process-wide id allocator.
var DefaultSequence = &Sequence{}

// Next returns a fresh id.
func (s *Sequence) Next() NodeID {
	return NodeID(s.last.Add(1))
}

// =============================================================================
// Node
// =============================================================================

// Direction tells inputs from outputs.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Port is a named slot on a node bound to a socket kind.
type Port struct {
	Name      string
	Direction Direction
	Socket    socket.Kind
}

// Control is a named editable value on a node.
type Control struct {
	Name  string
	Type  kind.ControlType
	Label string
	Value any // string for text and multiline, float64 for number
}

// Position is a node's top-left corner in canvas coordinates.
type Position struct {
	X float64 `json:"x" bson:"x" msgpack:"x"`
	Y float64 `json:"y" bson:"y" msgpack:"y"`
}

// Size is a node's visual extent.
type Size struct {
	Width  float64
	Height float64
}

// Node is an instance of a node kind. Ports and controls are ordered as the
// kind declares them.
type Node struct {
	ID       NodeID
	Kind     string
	Inputs   []Port
	Outputs  []Port
	Controls []Control
	Size     Size
	Position *Position // Nil until a layout pass places the node
}

// Input returns the input port with the given name.
func (n *Node) Input(name string) (Port, bool) { return findPort(n.Inputs, name) }

// Output returns the output port with the given name.
func (n *Node) Output(name string) (Port, bool) { return findPort(n.Outputs, name) }

// Control returns the control with the given name.
func (n *Node) Control(name string) (Control, bool) {
	for _, c := range n.Controls {
		if c.Name == name {
			return c, true
		}
	}
	return Control{}, false
}

// Values returns the control values keyed by name.
func (n *Node) Values() map[string]any {
	out := make(map[string]any, len(n.Controls))
	for _, c := range n.Controls {
		out[c.Name] = c.Value
	}
	return out
}

func (n *Node) clone() Node {
	c := *n
	c.Inputs = append([]Port(nil), n.Inputs...)
	c.Outputs = append([]Port(nil), n.Outputs...)
	c.Controls = append([]Control(nil), n.Controls...)
	if n.Position != nil {
		p := *n.Position
		c.Position = &p
	}
	return c
}

func findPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// =============================================================================
// Connection
// =============================================================================

// Connection is a directed edge from an output port to an input port.
// Two connections are the same connection when all four fields are equal.
type Connection struct {
	Source       NodeID
	SourceOutput string
	Target       NodeID
	TargetInput  string
}

// String formats the connection as "1:out -> 2:in".
func (c Connection) String() string {
	return fmt.Sprintf("%d:%s -> %d:%s", c.Source, c.SourceOutput, c.Target, c.TargetInput)
}

// Touches reports whether the connection references the node.
func (c Connection) Touches(id NodeID) bool {
	return c.Source == id || c.Target == id
}

// ParseEndpoint parses "ID:PORT", as used on the command line.
func ParseEndpoint(s string) (NodeID, string, error) {
	idPart, port, ok := strings.Cut(s, ":")
	if !ok || port == "" {
		return 0, "", errors.New(errors.ErrCodeInvalidInput, "endpoint %q must be ID:PORT", s)
	}
	id, err := ParseNodeID(idPart)
	if err != nil {
		return 0, "", err
	}
	return id, port, nil
}
