package graph

import (
	"slices"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/kind"
	"github.com/matzehuels/nodewire/pkg/socket"
)

// Store holds the nodes and connections of one editing session.
//
// The zero value is not usable - use [New].
type Store struct {
	defs  *kind.Set
	seq   *Sequence
	nodes map[NodeID]*Node
	order []NodeID // creation order
	conns []Connection
}

// Option configures a Store.
type Option func(*Store)

// WithSequence makes the store allocate ids from seq instead of
// [DefaultSequence].
func WithSequence(seq *Sequence) Option {
	return func(s *Store) { s.seq = seq }
}

// New creates an empty store whose nodes are built from defs.
func New(defs *kind.Set, opts ...Option) *Store {
	s := &Store{
		defs:  defs,
		seq:   DefaultSequence,
		nodes: make(map[NodeID]*Node),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Definitions returns the definition set nodes are built from.
func (s *Store) Definitions() *kind.Set { return s.defs }

// Len returns the number of live nodes.
func (s *Store) Len() int { return len(s.order) }

// =============================================================================
// Nodes
// =============================================================================

// AddNode creates a node of the given kind and returns its fresh id.
//
// Ports are built from the kind definition with its socket bindings.
// Controls start at their declared defaults; values overwrite them.
// Values are checked before an id is allocated, so a refused call changes
// nothing. An unknown kind or an ill-typed value is INVALID_INPUT, and a
// value for an undeclared control is UNKNOWN_CONTROL.
func (s *Store) AddNode(kindName string, values map[string]any) (NodeID, error) {
	def, ok := s.defs.Lookup(kindName)
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidInput, "unknown node kind %q", kindName)
	}

	controls := make([]Control, len(def.Controls))
	for i, spec := range def.Controls {
		controls[i] = Control{Name: spec.Name, Type: spec.Type, Label: spec.Label, Value: spec.DefaultValue()}
	}
	for name, v := range values {
		i := slices.IndexFunc(controls, func(c Control) bool { return c.Name == name })
		if i < 0 {
			return 0, errors.New(errors.ErrCodeUnknownControl, "kind %s has no control %q", kindName, name)
		}
		coerced, err := controls[i].Type.Coerce(v)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "control %q", name)
		}
		controls[i].Value = coerced
	}

	n := &Node{
		ID:       s.seq.Next(),
		Kind:     def.Name,
		Inputs:   buildPorts(def.Inputs, Input),
		Outputs:  buildPorts(def.Outputs, Output),
		Controls: controls,
		Size:     Size{Width: def.Width, Height: def.Height},
	}
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
	return n.ID, nil
}

func buildPorts(specs []kind.PortSpec, dir Direction) []Port {
	ports := make([]Port, len(specs))
	for i, p := range specs {
		ports[i] = Port{Name: p.Name, Direction: dir, Socket: p.Socket}
	}
	return ports
}

// RemoveNode removes a node and every connection touching it.
// A missing id returns NOT_FOUND and changes nothing, so removing twice is
// safe.
func (s *Store) RemoveNode(id NodeID) error {
	if _, ok := s.nodes[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "node %d not found", id)
	}
	delete(s.nodes, id)
	s.order = slices.DeleteFunc(s.order, func(n NodeID) bool { return n == id })
	s.conns = slices.DeleteFunc(s.conns, func(c Connection) bool { return c.Touches(id) })
	return nil
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id NodeID) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// SetControlValue overwrites a control value in place.
// It returns UNKNOWN_CONTROL when the node or the control does not exist,
// and INVALID_INPUT when the value does not fit the control type.
func (s *Store) SetControlValue(id NodeID, name string, value any) error {
	n, ok := s.nodes[id]
	if !ok {
		return errors.New(errors.ErrCodeUnknownControl, "node %d not found", id)
	}
	i := slices.IndexFunc(n.Controls, func(c Control) bool { return c.Name == name })
	if i < 0 {
		return errors.New(errors.ErrCodeUnknownControl, "node %d (%s) has no control %q", id, n.Kind, name)
	}
	v, err := n.Controls[i].Type.Coerce(value)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "control %q", name)
	}
	n.Controls[i].Value = v
	return nil
}

// SetPositions stores layout positions. Ids that are not live are ignored.
func (s *Store) SetPositions(positions map[NodeID]Position) {
	for id, p := range positions {
		if n, ok := s.nodes[id]; ok {
			pos := p
			n.Position = &pos
		}
	}
}

// =============================================================================
// Connections
// =============================================================================

// ResolveSockets returns the sockets of a connection's source output and
// target input. It returns DANGLING_ENDPOINT when a node or port is missing.
func (s *Store) ResolveSockets(c Connection) (src, dst socket.Kind, err error) {
	sn, ok := s.nodes[c.Source]
	if !ok {
		return "", "", errors.New(errors.ErrCodeDanglingEndpoint, "source node %d not found", c.Source)
	}
	out, ok := sn.Output(c.SourceOutput)
	if !ok {
		return "", "", errors.New(errors.ErrCodeDanglingEndpoint, "node %d (%s) has no output %q", c.Source, sn.Kind, c.SourceOutput)
	}
	tn, ok := s.nodes[c.Target]
	if !ok {
		return "", "", errors.New(errors.ErrCodeDanglingEndpoint, "target node %d not found", c.Target)
	}
	in, ok := tn.Input(c.TargetInput)
	if !ok {
		return "", "", errors.New(errors.ErrCodeDanglingEndpoint, "node %d (%s) has no input %q", c.Target, tn.Kind, c.TargetInput)
	}
	return out.Socket, in.Socket, nil
}

// AddConnection appends a connection. Callers are expected to have run the
// connection validator first; the store only re-checks that both endpoints
// resolve and returns DANGLING_ENDPOINT otherwise. Adding a connection that
// already exists is a no-op.
func (s *Store) AddConnection(c Connection) error {
	if _, _, err := s.ResolveSockets(c); err != nil {
		return err
	}
	if s.HasConnection(c) {
		return nil
	}
	s.conns = append(s.conns, c)
	return nil
}

// RemoveConnection removes a connection by tuple identity and reports
// whether it existed.
func (s *Store) RemoveConnection(c Connection) bool {
	i := slices.Index(s.conns, c)
	if i < 0 {
		return false
	}
	s.conns = slices.Delete(s.conns, i, i+1)
	return true
}

// HasConnection reports whether the exact connection exists.
func (s *Store) HasConnection(c Connection) bool {
	return slices.Contains(s.conns, c)
}

// Connections returns the connections in append order.
func (s *Store) Connections() []Connection {
	return slices.Clone(s.conns)
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot returns a deep copy of the current state: nodes in creation
// order and connections in append order.
func (s *Store) Snapshot() View {
	v := View{
		Nodes:       make([]Node, len(s.order)),
		Connections: slices.Clone(s.conns),
	}
	for i, id := range s.order {
		v.Nodes[i] = s.nodes[id].clone()
	}
	return v
}

// Validate checks the store's invariants. It returns INTERNAL_ERROR
// describing the first violation found.
func (s *Store) Validate() error {
	if len(s.order) != len(s.nodes) {
		return errors.New(errors.ErrCodeInternal, "node index out of sync: %d ordered, %d stored", len(s.order), len(s.nodes))
	}
	seen := make(map[NodeID]bool, len(s.order))
	for _, id := range s.order {
		if id == 0 {
			return errors.New(errors.ErrCodeInternal, "node with zero id")
		}
		if seen[id] {
			return errors.New(errors.ErrCodeInternal, "node %d listed twice", id)
		}
		seen[id] = true
		if n, ok := s.nodes[id]; !ok || n.ID != id {
			return errors.New(errors.ErrCodeInternal, "node %d missing from index", id)
		}
	}
	for i, c := range s.conns {
		if _, _, err := s.ResolveSockets(c); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "connection %d (%s)", i, c)
		}
		if slices.Index(s.conns, c) != i {
			return errors.New(errors.ErrCodeInternal, "connection %s stored twice", c)
		}
	}
	return nil
}
