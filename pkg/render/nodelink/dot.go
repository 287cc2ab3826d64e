package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds control values under the node title.
	Detailed bool

	// FixedSize pins each node to its definition's width and height so a
	// layout computed from the DOT matches what the editor draws.
	FixedSize bool
}

// pointsPerInch converts editor pixels to Graphviz inches.
const pointsPerInch = 72.0

// NodeName returns the DOT identifier used for a node.
func NodeName(id graph.NodeID) string { return "n" + id.String() }

// ToDOT converts a graph snapshot to Graphviz DOT. Nodes are records with
// inputs on the left and outputs on the right; connections attach to the
// named ports. Nodes and connections keep their snapshot order.
func ToDOT(v graph.View, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=record, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range v.Nodes {
		attrs := []string{fmt.Sprintf("label=\"%s\"", recordLabel(n, opts.Detailed))}
		if opts.FixedSize && n.Size.Width > 0 && n.Size.Height > 0 {
			attrs = append(attrs,
				"fixedsize=true",
				"width="+inches(n.Size.Width),
				"height="+inches(n.Size.Height))
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", NodeName(n.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range v.Connections {
		fmt.Fprintf(&buf, "  %s:%q:e -> %s:%q:w;\n",
			NodeName(c.Source), "o_"+c.SourceOutput, NodeName(c.Target), "i_"+c.TargetInput)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// recordLabel lays out "{ {inputs} | title | {outputs} }". With rankdir=LR
// the outer braces turn the record horizontal and the inner ones stack the
// ports vertically.
func recordLabel(n graph.Node, detailed bool) string {
	var fields []string
	if len(n.Inputs) > 0 {
		ports := make([]string, len(n.Inputs))
		for i, p := range n.Inputs {
			ports[i] = fmt.Sprintf("<i_%s> %s", p.Name, escape(p.Name))
		}
		fields = append(fields, "{"+strings.Join(ports, "|")+"}")
	}

	title := escape(fmt.Sprintf("%s #%d", n.Kind, n.ID))
	if detailed {
		for _, c := range n.Controls {
			title += `\n` + escape(fmt.Sprintf("%s: %v", c.Name, c.Value))
		}
	}
	fields = append(fields, title)

	if len(n.Outputs) > 0 {
		ports := make([]string, len(n.Outputs))
		for i, p := range n.Outputs {
			ports[i] = fmt.Sprintf("<o_%s> %s", p.Name, escape(p.Name))
		}
		fields = append(fields, "{"+strings.Join(ports, "|")+"}")
	}
	return "{" + strings.Join(fields, "|") + "}"
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`, `"`, `\"`, `{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`, "\n", `\n`,
)

func escape(s string) string { return recordEscaper.Replace(s) }

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', 4, 64)
}

// RenderSVG renders DOT to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := Render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// Render runs the dot engine and writes the given output format.
// Failures are LAYOUT_UNAVAILABLE.
func Render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutUnavailable, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutUnavailable, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutUnavailable, err, "render %s", format)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg tag with one whose viewBox starts
// at the origin, so the output scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
