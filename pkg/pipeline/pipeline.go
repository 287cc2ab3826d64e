// Package pipeline runs graph mutation requests through an ordered chain of
// interceptors before they reach the graph store.
//
// This package implements the pre-commit gate used by the editor. Every
// mutation is described as an [Event] and passed to [Pipeline.Run]. Stages
// run in registration order; the first stage that rejects stops the run and
// its reason is returned to the caller before the store is touched.
//
// # Outcomes
//
// A stage always returns an explicit [Outcome]:
//
//	pipeline.Accepted()           // let the event through
//	pipeline.Rejected(reason)     // stop, with a coded error as reason
//
// There is no implicit "no answer" result.
//
// # Ownership
//
// A stage that implements [Owner] claims event kinds exclusively. Exactly one
// stage may own a kind; [Pipeline.Use] refuses a second owner. The
// [ConnectionValidator] owns [ConnectionCreate].
//
// # Usage
//
//	p := pipeline.New()
//	_ = p.Use(pipeline.NewLogStage(logger))
//	_ = p.Use(pipeline.NewConnectionValidator(store, registry))
//
//	out := p.Run(ctx, pipeline.Event{Kind: pipeline.ConnectionCreate, Connection: c})
//	if !out.Accepted() {
//	    return out.Err()
//	}
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
)

// =============================================================================
// Events
// =============================================================================

// EventKind names a kind of graph mutation.
type EventKind string

// Event kinds.
const (
	NodeCreate       EventKind = "node.create"
	NodeRemove       EventKind = "node.remove"
	ConnectionCreate EventKind = "connection.create"
	ConnectionRemove EventKind = "connection.remove"
	ControlChange    EventKind = "control.change"
)

// Event describes a requested mutation. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind EventKind

	NodeKind string         // node.create
	Values   map[string]any // node.create

	Node    graph.NodeID // node.remove, control.change
	Control string       // control.change
	Value   any          // control.change

	Connection graph.Connection // connection.create, connection.remove
}

// String formats the event for logs.
func (e Event) String() string {
	switch e.Kind {
	case NodeCreate:
		return fmt.Sprintf("%s %s", e.Kind, e.NodeKind)
	case NodeRemove:
		return fmt.Sprintf("%s %d", e.Kind, e.Node)
	case ControlChange:
		return fmt.Sprintf("%s %d.%s", e.Kind, e.Node, e.Control)
	case ConnectionCreate, ConnectionRemove:
		return fmt.Sprintf("%s %s", e.Kind, e.Connection)
	}
	return string(e.Kind)
}

// =============================================================================
// Outcome
// =============================================================================

// Outcome is a stage's verdict on an event.
type Outcome struct {
	reason error
}

// Accepted lets the event continue.
func Accepted() Outcome { return Outcome{} }

// Rejected stops the event. A nil reason is recorded as INTERNAL_ERROR so
// that a rejection can never be mistaken for acceptance.
func Rejected(reason error) Outcome {
	if reason == nil {
		reason = errors.New(errors.ErrCodeInternal, "rejected without reason")
	}
	return Outcome{reason: reason}
}

// Accepted reports whether the event may proceed.
func (o Outcome) Accepted() bool { return o.reason == nil }

// Err returns the rejection reason, or nil when accepted.
func (o Outcome) Err() error { return o.reason }

// =============================================================================
// Stages
// =============================================================================

// Interceptor is a pipeline stage.
type Interceptor interface {
	Name() string
	Intercept(ctx context.Context, ev Event) Outcome
}

// Owner is implemented by stages that claim event kinds exclusively.
type Owner interface {
	Interceptor
	Owns() []EventKind
}

// Func adapts a function to an Interceptor.
func Func(name string, fn func(ctx context.Context, ev Event) Outcome) Interceptor {
	return funcStage{name: name, fn: fn}
}

type funcStage struct {
	name string
	fn   func(ctx context.Context, ev Event) Outcome
}

func (f funcStage) Name() string { return f.name }

func (f funcStage) Intercept(ctx context.Context, ev Event) Outcome { return f.fn(ctx, ev) }

// =============================================================================
// Pipeline
// =============================================================================

// Pipeline is an ordered list of stages. It is safe for concurrent use;
// stages are expected to be safe for the callers' concurrency as well.
type Pipeline struct {
	mu     sync.RWMutex
	stages []Interceptor
	owners map[EventKind]string
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{owners: make(map[EventKind]string)}
}

// Use appends a stage. If the stage is an [Owner] and another stage already
// owns one of its kinds, Use returns INVALID_INPUT and adds nothing.
func (p *Pipeline) Use(stage Interceptor) error {
	if stage == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil stage")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var kinds []EventKind
	if o, ok := stage.(Owner); ok {
		kinds = o.Owns()
		for _, k := range kinds {
			if prev, taken := p.owners[k]; taken {
				return errors.New(errors.ErrCodeInvalidInput, "%s already owned by stage %q", k, prev)
			}
		}
	}
	for _, k := range kinds {
		p.owners[k] = stage.Name()
	}
	p.stages = append(p.stages, stage)
	return nil
}

// Owner returns the name of the stage owning an event kind.
func (p *Pipeline) Owner(kind EventKind) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	name, ok := p.owners[kind]
	return name, ok
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run passes the event through every stage in order and returns the first
// rejection. A cancelled context rejects with CANCELED before the next stage.
func (p *Pipeline) Run(ctx context.Context, ev Event) Outcome {
	p.mu.RLock()
	stages := append([]Interceptor(nil), p.stages...)
	p.mu.RUnlock()

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return Rejected(errors.Wrap(errors.ErrCodeCanceled, err, "%s", ev.Kind))
		}
		if out := s.Intercept(ctx, ev); !out.Accepted() {
			return out
		}
	}
	return Accepted()
}
