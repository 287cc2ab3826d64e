// Package render turns graph snapshots into pictures.
//
// The [nodelink] subpackage emits Graphviz DOT for a node graph, with
// ports drawn as record fields, and renders it to SVG with the embedded
// Graphviz engine:
//
//	dot := nodelink.ToDOT(editor.Snapshot(), nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/nodewire/pkg/render/nodelink
package render
