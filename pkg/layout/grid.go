package layout

import (
	"context"

	"github.com/matzehuels/nodewire/pkg/graph"
)

// Grid places nodes in columns by their longest-path depth, left to right,
// and stacks each column top to bottom in snapshot order. It needs no
// external engine and always succeeds.
type Grid struct {
	ColumnGap float64
	RowGap    float64
}

// NewGrid creates a Grid with the default spacing.
func NewGrid() *Grid { return &Grid{ColumnGap: 80, RowGap: 40} }

// Name implements Layouter.
func (*Grid) Name() string { return EngineGrid }

// Layout implements Layouter.
func (g *Grid) Layout(ctx context.Context, v graph.View) (map[graph.NodeID]graph.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(g.Name(), err)
	}

	depths := v.Depths()
	maxDepth := 0
	for _, d := range depths {
		maxDepth = max(maxDepth, d)
	}

	widths := make([]float64, maxDepth+1)
	for _, n := range v.Nodes {
		d := depths[n.ID]
		widths[d] = max(widths[d], n.Size.Width)
	}
	left := make([]float64, maxDepth+1)
	for d := 1; d <= maxDepth; d++ {
		left[d] = left[d-1] + widths[d-1] + g.ColumnGap
	}

	next := make([]float64, maxDepth+1)
	out := make(map[graph.NodeID]graph.Position, len(v.Nodes))
	for _, n := range v.Nodes {
		d := depths[n.ID]
		out[n.ID] = graph.Position{X: left[d], Y: next[d]}
		next[d] += n.Size.Height + g.RowGap
	}
	return out, nil
}
