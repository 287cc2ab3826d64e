package layout

import (
	"bufio"
	"bytes"
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
	"github.com/matzehuels/nodewire/pkg/render/nodelink"
)

const pointsPerInch = 72.0

// Graphviz lays out nodes with the dot engine. Node boxes are fixed to their
// definition size so the result matches the editor canvas.
type Graphviz struct{}

// NewGraphviz creates a Graphviz layouter.
func NewGraphviz() *Graphviz { return &Graphviz{} }

// Name implements Layouter.
func (*Graphviz) Name() string { return EngineGraphviz }

// Layout implements Layouter.
func (g *Graphviz) Layout(ctx context.Context, v graph.View) (map[graph.NodeID]graph.Position, error) {
	if len(v.Nodes) == 0 {
		return map[graph.NodeID]graph.Position{}, nil
	}
	dot := nodelink.ToDOT(v, nodelink.Options{FixedSize: true})
	out, err := nodelink.Render(ctx, dot, graphviz.Format("plain"))
	if err != nil {
		return nil, unavailable(g.Name(), err)
	}

	placed, err := parsePlain(out)
	if err != nil {
		return nil, unavailable(g.Name(), err)
	}

	positions := make(map[graph.NodeID]graph.Position, len(v.Nodes))
	for _, n := range v.Nodes {
		if p, ok := placed[nodelink.NodeName(n.ID)]; ok {
			positions[n.ID] = p
		}
	}
	return positions, nil
}

// parsePlain reads node boxes from Graphviz "plain" output:
//
//	graph scale width height
//	node name x y width height label ...
//
// Coordinates are box centres in inches with the origin at the bottom left.
// The result is top-left corners in points with y growing downwards.
func parsePlain(data []byte) (map[string]graph.Position, error) {
	var height float64
	seenGraph := false
	out := make(map[string]graph.Position)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, errors.New(errors.ErrCodeLayoutUnavailable, "plain output line %d: short graph line", line)
			}
			h, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeLayoutUnavailable, err, "plain output line %d", line)
			}
			height, seenGraph = h, true
		case "node":
			if !seenGraph {
				return nil, errors.New(errors.ErrCodeLayoutUnavailable, "plain output line %d: node before graph", line)
			}
			if len(fields) < 6 {
				return nil, errors.New(errors.ErrCodeLayoutUnavailable, "plain output line %d: short node line", line)
			}
			nums, err := parseFloats(fields[2:6])
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeLayoutUnavailable, err, "plain output line %d", line)
			}
			x, y, w, h := nums[0], nums[1], nums[2], nums[3]
			out[strings.Trim(fields[1], `"`)] = graph.Position{
				X: round2((x - w/2) * pointsPerInch),
				Y: round2((height - y - h/2) * pointsPerInch),
			}
		case "stop":
			return out, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutUnavailable, err, "read plain output")
	}
	return out, nil
}

func parseFloats(ss []string) ([]float64, error) {
	out := make([]float64, len(ss))
	for i, s := range ss {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
