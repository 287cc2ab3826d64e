package kind

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/socket"
)

// =============================================================================
// Controls
// =============================================================================

// ControlType is the value type of a control.
type ControlType string

// Control types.
const (
	ControlText      ControlType = "text"
	ControlNumber    ControlType = "number"
	ControlMultiline ControlType = "multiline"
)

// Valid reports whether t is a known control type.
func (t ControlType) Valid() bool {
	switch t {
	case ControlText, ControlNumber, ControlMultiline:
		return true
	}
	return false
}

// Zero returns the empty value for the type.
func (t ControlType) Zero() any {
	if t == ControlNumber {
		return float64(0)
	}
	return ""
}

// Coerce converts v to the canonical representation for the type.
// Text and multiline controls take strings. Number controls take any Go
// integer or float and store it as float64. NaN and infinities are refused
// because they cannot be persisted as JSON.
func (t ControlType) Coerce(v any) (any, error) {
	switch t {
	case ControlText, ControlMultiline:
		s, ok := v.(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s control expects a string, got %T", t, v)
		}
		return s, nil
	case ControlNumber:
		f, ok := toFloat(v)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "number control expects a number, got %T", v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "number control expects a finite number, got %v", f)
		}
		return f, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown control type %q", t)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// ControlSpec declares a control on a node kind.
type ControlSpec struct {
	Name    string      `json:"name" toml:"name"`
	Type    ControlType `json:"type" toml:"type"`
	Label   string      `json:"label,omitempty" toml:"label"`
	Default any         `json:"default,omitempty" toml:"default"`
}

// DisplayLabel returns the label if set, otherwise the name.
func (c ControlSpec) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// DefaultValue returns the coerced default, or the type's zero value when
// no default is declared.
func (c ControlSpec) DefaultValue() any {
	if c.Default == nil {
		return c.Type.Zero()
	}
	v, err := c.Type.Coerce(c.Default)
	if err != nil {
		return c.Type.Zero()
	}
	return v
}

// =============================================================================
// Ports
// =============================================================================

// PortSpec declares a port and the socket kind it is bound to.
type PortSpec struct {
	Name   string      `json:"name" toml:"name"`
	Socket socket.Kind `json:"socket" toml:"socket"`
}

// =============================================================================
// Definition
// =============================================================================

// Definition is the fixed schema of a node kind.
type Definition struct {
	Name     string        `json:"name" toml:"name"`
	Group    string        `json:"group,omitempty" toml:"group"` // Catalog group; empty is top level
	Inputs   []PortSpec    `json:"inputs,omitempty" toml:"inputs"`
	Outputs  []PortSpec    `json:"outputs,omitempty" toml:"outputs"`
	Controls []ControlSpec `json:"controls,omitempty" toml:"controls"`
	Width    float64       `json:"width" toml:"width"`
	Height   float64       `json:"height" toml:"height"`
}

// Input returns the input port with the given name.
func (d Definition) Input(name string) (PortSpec, bool) {
	return findPort(d.Inputs, name)
}

// Output returns the output port with the given name.
func (d Definition) Output(name string) (PortSpec, bool) {
	return findPort(d.Outputs, name)
}

// Control returns the control with the given name.
func (d Definition) Control(name string) (ControlSpec, bool) {
	i := slices.IndexFunc(d.Controls, func(c ControlSpec) bool { return c.Name == name })
	if i < 0 {
		return ControlSpec{}, false
	}
	return d.Controls[i], true
}

func findPort(ports []PortSpec, name string) (PortSpec, bool) {
	i := slices.IndexFunc(ports, func(p PortSpec) bool { return p.Name == name })
	if i < 0 {
		return PortSpec{}, false
	}
	return ports[i], true
}

// validate checks names, uniqueness, control types and socket bindings.
func (d Definition) validate(reg *socket.Registry) error {
	if err := errors.ValidateName("kind", d.Name); err != nil {
		return err
	}
	if d.Width < 0 || d.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "kind %s: negative size", d.Name)
	}
	for dir, ports := range map[string][]PortSpec{"input": d.Inputs, "output": d.Outputs} {
		seen := make(map[string]bool, len(ports))
		for _, p := range ports {
			if err := errors.ValidateName(dir, p.Name); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "kind %s", d.Name)
			}
			if seen[p.Name] {
				return errors.New(errors.ErrCodeInvalidInput, "kind %s: duplicate %s %q", d.Name, dir, p.Name)
			}
			seen[p.Name] = true
			if !reg.Has(p.Socket) {
				return errors.New(errors.ErrCodeInvalidInput, "kind %s: %s %q uses undeclared socket %q", d.Name, dir, p.Name, p.Socket)
			}
		}
	}
	seen := make(map[string]bool, len(d.Controls))
	for _, c := range d.Controls {
		if err := errors.ValidateName("control", c.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "kind %s", d.Name)
		}
		if seen[c.Name] {
			return errors.New(errors.ErrCodeInvalidInput, "kind %s: duplicate control %q", d.Name, c.Name)
		}
		seen[c.Name] = true
		if !c.Type.Valid() {
			return errors.New(errors.ErrCodeInvalidInput, "kind %s: control %q has unknown type %q", d.Name, c.Name, c.Type)
		}
		if c.Default != nil {
			if _, err := c.Type.Coerce(c.Default); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "kind %s: control %q default", d.Name, c.Name)
			}
		}
	}
	return nil
}

// =============================================================================
// Set
// =============================================================================

// Set holds node definitions in registration order. Every port socket of a
// registered definition is declared in the set's socket registry.
//
// A Set is safe for concurrent use.
type Set struct {
	reg   *socket.Registry
	mu    sync.RWMutex
	order []string
	defs  map[string]Definition
}

// NewSet creates an empty definition set bound to a socket registry.
func NewSet(reg *socket.Registry) *Set {
	return &Set{reg: reg, defs: make(map[string]Definition)}
}

// Sockets returns the registry the set validates against.
func (s *Set) Sockets() *socket.Registry { return s.reg }

// Register adds a definition. It returns INVALID_INPUT when the kind is
// already registered, a name is invalid or duplicated, a control type is
// unknown, or a port uses an undeclared socket.
func (s *Set) Register(def Definition) error {
	if err := def.validate(s.reg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.defs[def.Name]; exists {
		return errors.New(errors.ErrCodeInvalidInput, "kind %q already registered", def.Name)
	}
	s.defs[def.Name] = cloneDefinition(def)
	s.order = append(s.order, def.Name)
	return nil
}

// Lookup returns the definition for a kind.
func (s *Set) Lookup(name string) (Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.defs[name]
	if !ok {
		return Definition{}, false
	}
	return cloneDefinition(def), true
}

// Names returns the registered kind names in registration order.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Group is a catalog entry: a named group and the kinds listed under it.
type Group struct {
	Name  string   // Empty for top-level kinds
	Kinds []string // In registration order
}

// Groups returns the catalog: top-level kinds first, then each named group
// in order of first appearance.
func (s *Set) Groups() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	top := Group{}
	var named []Group
	index := map[string]int{}
	for _, name := range s.order {
		g := s.defs[name].Group
		if g == "" {
			top.Kinds = append(top.Kinds, name)
			continue
		}
		i, ok := index[g]
		if !ok {
			i = len(named)
			index[g] = i
			named = append(named, Group{Name: g})
		}
		named[i].Kinds = append(named[i].Kinds, name)
	}
	if len(top.Kinds) == 0 {
		return named
	}
	return append([]Group{top}, named...)
}

func cloneDefinition(d Definition) Definition {
	d.Inputs = slices.Clone(d.Inputs)
	d.Outputs = slices.Clone(d.Outputs)
	d.Controls = slices.Clone(d.Controls)
	return d
}

// String implements fmt.Stringer for log output.
func (d Definition) String() string {
	return fmt.Sprintf("%s(in=%d out=%d controls=%d)", d.Name, len(d.Inputs), len(d.Outputs), len(d.Controls))
}
