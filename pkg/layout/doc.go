// Package layout computes node positions for a graph snapshot.
//
// A [Layouter] maps each node of a [graph.View] to the top-left corner of
// its box. Implementations:
//
//   - [Graphviz]: the dot engine, read back through the "plain" format
//   - [Grid]: deterministic columns by longest-path depth, no dependencies
//
// Decorators add behaviour around any layouter:
//
//   - [Cached] memoizes positions by graph structure in a [cache.Cache]
//   - [Breaker] fails fast while the wrapped engine keeps failing
//
// Every error returned by this package carries LAYOUT_UNAVAILABLE. A failed
// layout never changes the graph; the editor logs it and moves on.
//
//	l := layout.NewBreaker(layout.NewCached(layout.NewGraphviz(), c, cache.NewDefaultKeyer(), 0), layout.BreakerSettings{})
//	positions, err := l.Layout(ctx, view)
package layout
