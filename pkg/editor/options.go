package editor

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
	"github.com/matzehuels/nodewire/pkg/layout"
	"github.com/matzehuels/nodewire/pkg/pipeline"
)

// LayoutPolicy decides when the editor runs a layout pass on its own.
type LayoutPolicy string

// Layout policies.
const (
	LayoutBatch      LayoutPolicy = "batch"
	LayoutEachInsert LayoutPolicy = "each-insert"
	LayoutOff        LayoutPolicy = "off"
)

// ParseLayoutPolicy parses a policy name. The empty string is LayoutBatch.
func ParseLayoutPolicy(s string) (LayoutPolicy, error) {
	switch p := LayoutPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return LayoutBatch, nil
	case LayoutBatch, LayoutEachInsert, LayoutOff:
		return p, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown layout policy %q", s)
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the session logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLayouter sets the layout engine. Without one, layout passes are
// skipped.
func WithLayouter(l layout.Layouter) Option {
	return func(e *Editor) { e.layouter = l }
}

// WithLayoutPolicy sets when automatic layout passes run.
func WithLayoutPolicy(p LayoutPolicy) Option {
	return func(e *Editor) { e.policy = p }
}

// WithSequence isolates node id allocation, mostly for tests.
func WithSequence(seq *graph.Sequence) Option {
	return func(e *Editor) { e.seq = seq }
}

// WithStage appends a pipeline stage after the built-in ones.
func WithStage(s pipeline.Interceptor) Option {
	return func(e *Editor) { e.stages = append(e.stages, s) }
}

// WithID sets the session id. The default is a random UUID.
func WithID(id string) Option {
	return func(e *Editor) { e.id = id }
}
