package layout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/nodewire/pkg/cache"
	"github.com/matzehuels/nodewire/pkg/graph"
	"github.com/matzehuels/nodewire/pkg/observability"
)

const cacheKeyType = "layout"

// Cached memoizes another layouter's positions.
//
// Entries are keyed by the view's structure (kinds, sizes and connections
// by node index), not by node ids, so a document opened twice hits the same
// entry even though its nodes get fresh ids. Cache failures are ignored;
// the inner layouter runs instead.
type Cached struct {
	inner Layouter
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewCached wraps inner. A nil keyer uses [cache.DefaultKeyer].
func NewCached(inner Layouter, c cache.Cache, keyer cache.Keyer, ttl time.Duration) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Cached{inner: inner, cache: c, keyer: keyer, ttl: ttl}
}

// Name implements Layouter.
func (c *Cached) Name() string { return c.inner.Name() }

// Layout implements Layouter.
func (c *Cached) Layout(ctx context.Context, v graph.View) (map[graph.NodeID]graph.Position, error) {
	key := c.keyer.LayoutKey(StructureHash(v), c.inner.Name())

	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var byIndex []graph.Position
		if json.Unmarshal(data, &byIndex) == nil && len(byIndex) == len(v.Nodes) {
			observability.Cache().OnCacheHit(ctx, cacheKeyType)
			out := make(map[graph.NodeID]graph.Position, len(v.Nodes))
			for i, n := range v.Nodes {
				out[n.ID] = byIndex[i]
			}
			return out, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, cacheKeyType)

	positions, err := c.inner.Layout(ctx, v)
	if err != nil {
		return nil, err
	}

	// Only complete layouts are cached; a partial one cannot be replayed by
	// index.
	byIndex := make([]graph.Position, 0, len(v.Nodes))
	for _, n := range v.Nodes {
		p, ok := positions[n.ID]
		if !ok {
			return positions, nil
		}
		byIndex = append(byIndex, p)
	}
	if data, err := json.Marshal(byIndex); err == nil {
		if c.cache.Set(ctx, key, data, c.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}
	return positions, nil
}

type structureNode struct {
	Kind   string  `json:"k"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

type structureEdge struct {
	Source int    `json:"s"`
	Output string `json:"o"`
	Target int    `json:"t"`
	Input  string `json:"i"`
}

// StructureHash returns a hash of the view that ignores node ids, control
// values and positions.
func StructureHash(v graph.View) string {
	index := v.Index()
	s := struct {
		Nodes []structureNode `json:"n"`
		Edges []structureEdge `json:"e"`
	}{
		Nodes: make([]structureNode, len(v.Nodes)),
		Edges: make([]structureEdge, len(v.Connections)),
	}
	for i, n := range v.Nodes {
		s.Nodes[i] = structureNode{Kind: n.Kind, Width: n.Size.Width, Height: n.Size.Height}
	}
	for i, c := range v.Connections {
		s.Edges[i] = structureEdge{
			Source: index[c.Source], Output: c.SourceOutput,
			Target: index[c.Target], Input: c.TargetInput,
		}
	}
	data, _ := json.Marshal(s)
	return cache.Hash(data)
}
