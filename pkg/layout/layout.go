package layout

import (
	"context"
	"strings"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
)

// Layouter assigns positions to the nodes of a snapshot.
type Layouter interface {
	// Name identifies the engine in logs, metrics and cache keys.
	Name() string

	// Layout returns a position for every node in v. Nodes missing from the
	// result keep their current position.
	Layout(ctx context.Context, v graph.View) (map[graph.NodeID]graph.Position, error)
}

// Engine names accepted by [New].
const (
	EngineGraphviz = "graphviz"
	EngineGrid     = "grid"
	EngineNone     = "none"
)

// Engines lists the engine names accepted by [New].
var Engines = []string{EngineGraphviz, EngineGrid, EngineNone}

// New returns the layouter for an engine name. EngineNone returns nil.
func New(engine string) (Layouter, error) {
	switch strings.ToLower(engine) {
	case EngineGraphviz, "dot", "":
		return NewGraphviz(), nil
	case EngineGrid:
		return NewGrid(), nil
	case EngineNone, "off":
		return nil, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown layout engine %q (want one of %s)", engine, strings.Join(Engines, ", "))
	}
}

// unavailable wraps err as LAYOUT_UNAVAILABLE unless it already is.
func unavailable(engine string, err error) error {
	if err == nil || errors.Is(err, errors.ErrCodeLayoutUnavailable) {
		return err
	}
	return errors.Wrap(errors.ErrCodeLayoutUnavailable, err, "%s layout failed", engine)
}
