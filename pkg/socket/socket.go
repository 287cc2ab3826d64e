package socket

import (
	"slices"
	"sync"

	"github.com/matzehuels/nodewire/pkg/errors"
)

// Kind names a socket compatibility class, for example "NodeBSocket".
type Kind string

// Reference socket kinds.
const (
	NodeA Kind = "NodeASocket"
	NodeB Kind = "NodeBSocket"
	NodeC Kind = "NodeCSocket"
)

// Rule decides whether a source socket may feed a target socket.
type Rule interface {
	Compatible(source, target Kind) bool
}

// Registry holds declared socket kinds and the directed compatibility edges
// between them. Identical kinds are always compatible; any other pair must
// be declared with [Registry.Allow].
//
// The zero value is not usable - use [NewRegistry].
type Registry struct {
	mu    sync.RWMutex
	kinds []Kind
	known map[Kind]bool
	edges map[Kind]map[Kind]bool // source -> targets
}

// NewRegistry creates a registry with the given kinds declared.
// It panics on an invalid or duplicate kind, which makes it suitable for
// package-level configuration; use [Registry.Declare] for untrusted input.
func NewRegistry(kinds ...Kind) *Registry {
	r := &Registry{
		known: make(map[Kind]bool),
		edges: make(map[Kind]map[Kind]bool),
	}
	if err := r.Declare(kinds...); err != nil {
		panic(err)
	}
	return r
}

// Reference returns the reference configuration: NodeASocket, NodeBSocket
// and NodeCSocket, each compatible only with itself.
func Reference() *Registry {
	return NewRegistry(NodeA, NodeB, NodeC)
}

// Declare adds socket kinds to the registry.
// Returns INVALID_INPUT if a kind has an invalid name or is already declared.
// On error no kind from the call is added.
func (r *Registry) Declare(kinds ...Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		if err := errors.ValidateName("socket", string(k)); err != nil {
			return err
		}
		if r.known[k] || seen[k] {
			return errors.New(errors.ErrCodeInvalidInput, "socket %q already declared", k)
		}
		seen[k] = true
	}
	for _, k := range kinds {
		r.known[k] = true
		r.kinds = append(r.kinds, k)
	}
	return nil
}

// Allow declares that a source socket may feed a target socket.
// The edge is directional: Allow(a, b) does not imply Allow(b, a).
// Both kinds must already be declared.
func (r *Registry) Allow(source, target Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.known[source] {
		return errors.New(errors.ErrCodeInvalidInput, "unknown socket %q", source)
	}
	if !r.known[target] {
		return errors.New(errors.ErrCodeInvalidInput, "unknown socket %q", target)
	}
	if r.edges[source] == nil {
		r.edges[source] = make(map[Kind]bool)
	}
	r.edges[source][target] = true
	return nil
}

// Compatible reports whether a source socket may feed a target socket.
// It is pure: identical kinds are compatible, otherwise an explicit edge
// source -> target must exist. Undeclared kinds are never compatible.
func (r *Registry) Compatible(source, target Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.known[source] || !r.known[target] {
		return false
	}
	if source == target {
		return true
	}
	return r.edges[source][target]
}

// Has reports whether the kind is declared.
func (r *Registry) Has(k Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.known[k]
}

// Kinds returns the declared kinds in declaration order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.kinds)
}

// Edges returns the explicit compatibility edges as source -> sorted targets.
// Self-compatibility is implicit and not listed.
func (r *Registry) Edges() map[Kind][]Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Kind][]Kind, len(r.edges))
	for src, targets := range r.edges {
		for dst := range targets {
			out[src] = append(out[src], dst)
		}
		slices.Sort(out[src])
	}
	return out
}

var _ Rule = (*Registry)(nil)
