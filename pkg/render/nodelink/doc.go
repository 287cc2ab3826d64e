// Package nodelink renders graph snapshots as Graphviz node-link diagrams.
//
// # Overview
//
// Each node becomes a record with its input ports on the left, a title in
// the middle and its output ports on the right. Connections are drawn from
// the output port to the input port, so the diagram matches what an editor
// canvas shows.
//
// # Usage
//
//	dot := nodelink.ToDOT(view, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The layout package reuses [ToDOT] with FixedSize set and [Render] with the
// "plain" format to read node positions back.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly; no system installation is needed.
package nodelink
