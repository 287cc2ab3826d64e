package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/nodewire/pkg/graph"
	"github.com/matzehuels/nodewire/pkg/kind"
	"github.com/matzehuels/nodewire/pkg/socket"
)

func testView(t *testing.T) graph.View {
	t.Helper()
	s := graph.New(kind.Reference(socket.Reference()), graph.WithSequence(&graph.Sequence{}))
	a, _ := s.AddNode(kind.NodeA, map[string]any{"a": "x|y"})
	b, _ := s.AddNode(kind.NodeB, nil)
	c, _ := s.AddNode(kind.NodeC, nil)
	_ = s.AddConnection(graph.Connection{Source: a, SourceOutput: "a", Target: b, TargetInput: "b"})
	_ = s.AddConnection(graph.Connection{Source: b, SourceOutput: "c", Target: c, TargetInput: "c"})
	return s.Snapshot()
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testView(t), Options{})

	for _, want := range []string{
		"digraph G",
		"rankdir=LR",
		`n1 [label="{NodeA #1|{<o_a> a}}"]`,
		`n2 [label="{{<i_b> b}|NodeB #2|{<o_c> c}}"]`,
		`n1:"o_a":e -> n2:"i_b":w;`,
		`n2:"o_c":e -> n3:"i_c":w;`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "fixedsize") {
		t.Error("fixedsize set without FixedSize option")
	}
}

func TestToDOTDetailedEscapes(t *testing.T) {
	dot := ToDOT(testView(t), Options{Detailed: true})
	if !strings.Contains(dot, `a: x\|y`) {
		t.Errorf("detailed label should escape record separators:\n%s", dot)
	}
}

func TestToDOTFixedSize(t *testing.T) {
	dot := ToDOT(testView(t), Options{FixedSize: true})
	if !strings.Contains(dot, "width=2.7778") || !strings.Contains(dot, "height=2.5000") {
		t.Errorf("FixedSize should convert 200x180 px to inches:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testView(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), `viewBox="0 0 `) {
		t.Error("RenderSVG output should have a normalized viewBox")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" viewBox="0.00 0.00 100.25 40.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.25 40.00" width="100" height="40"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}

func TestRenderSVGInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should fail on invalid DOT")
	}
}
