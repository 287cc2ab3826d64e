package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodewire/pkg/document"
	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/kind"
	"github.com/matzehuels/nodewire/pkg/socket"
)

// run executes the root command with a config that lays out on the grid
// and caches nothing.
func run(t *testing.T, dir string, args ...string) error {
	t.Helper()
	cfgPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := "[layout]\nengine = \"grid\"\ncache = \"none\"\n\n[storage]\ndir = \"" + filepath.Join(dir, "store") + "\"\n"
		if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestEditCycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")

	steps := [][]string{
		{"new", path},
		{"add", path, kind.NodeA, "--set", "a=hello"},
		{"add", path, kind.NodeB},
		{"add", path, kind.NodeC},
		{"connect", path, "1:a", "2:b"},
		{"connect", path, "2:c", "3:c"},
		{"set", path, "2", "b2", "x"},
	}
	for _, args := range steps {
		if err := run(t, dir, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	doc, err := document.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(doc.Nodes) != 3 || len(doc.Connections) != 2 {
		t.Fatalf("document = %d nodes, %d connections, want 3, 2", len(doc.Nodes), len(doc.Connections))
	}
	if got := doc.Nodes[0].Controls["a"]; got != "hello" {
		t.Errorf("NodeA a = %v, want hello", got)
	}
	if got := doc.Nodes[1].Controls["b2"]; got != "x" {
		t.Errorf("NodeB b2 = %v, want x", got)
	}
	for i, n := range doc.Nodes {
		if n.Position == nil {
			t.Errorf("nodes[%d] has no position after batch layout", i)
		}
	}

	if err := run(t, dir, "rm", path, "2"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	doc, _ = document.ReadFile(path)
	if len(doc.Nodes) != 2 || len(doc.Connections) != 0 {
		t.Errorf("after rm = %d nodes, %d connections, want 2, 0", len(doc.Nodes), len(doc.Connections))
	}
}

func TestEditErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	if err := run(t, dir, "new", path); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{kind.NodeA, kind.NodeC} {
		if err := run(t, dir, "add", path, k); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"incompatible", []string{"connect", path, "1:a", "2:c"}, errors.ErrCodeIncompatibleSockets},
		{"dangling", []string{"connect", path, "1:a", "9:c"}, errors.ErrCodeDanglingEndpoint},
		{"bad endpoint", []string{"connect", path, "1", "2:c"}, errors.ErrCodeInvalidInput},
		{"unknown control", []string{"set", path, "1", "nope", "x"}, errors.ErrCodeUnknownControl},
		{"unknown kind", []string{"add", path, "NodeZ"}, errors.ErrCodeInvalidInput},
		{"bad set", []string{"add", path, kind.NodeA, "--set", "novalue"}, errors.ErrCodeInvalidInput},
		{"missing file", []string{"show", filepath.Join(dir, "missing.json")}, errors.ErrCodeExternalIO},
		{"remove missing", []string{"rm", path, "7"}, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t, dir, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}

	doc, _ := document.ReadFile(path)
	if len(doc.Nodes) != 2 || len(doc.Connections) != 0 {
		t.Errorf("document changed by failed commands: %d nodes, %d connections", len(doc.Nodes), len(doc.Connections))
	}
}

func TestRenderDOT(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	out := filepath.Join(dir, "graph.dot")
	for _, args := range [][]string{
		{"new", path},
		{"add", path, kind.NodeA},
		{"add", path, kind.NodeB},
		{"connect", path, "1:a", "2:b"},
		{"render", path, "-o", out},
	} {
		if err := run(t, dir, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `n1:"o_a":e -> n2:"i_b":w;`) {
		t.Errorf("DOT output missing edge:\n%s", data)
	}
}

func TestPushPullFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	pulled := filepath.Join(dir, "pulled.mpk")
	for _, args := range [][]string{
		{"new", path},
		{"add", path, kind.NodeA},
		{"push", path, "--store", "file", "--id", "doc1"},
		{"pull", "doc1", "--store", "file", "-o", pulled},
	} {
		if err := run(t, dir, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	doc, err := document.ReadFile(pulled)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].Kind != kind.NodeA {
		t.Errorf("pulled = %+v, want one NodeA", doc.Nodes)
	}

	err = run(t, dir, "pull", "nope", "--store", "file")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("pull missing = %v, want NOT_FOUND", err)
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		flag, output string
		want         string
		wantErr      bool
	}{
		{"", "", formatSVG, false},
		{"", "out.svg", formatSVG, false},
		{"", "out.dot", formatDOT, false},
		{"", "out.gv", formatDOT, false},
		{"DOT", "out.svg", formatDOT, false},
		{"", "out.png", "", true},
		{"pdf", "", "", true},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.flag, tt.output)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveFormat(%q, %q) error = %v, wantErr %v", tt.flag, tt.output, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveFormat(%q, %q) = %q, want %q", tt.flag, tt.output, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	def := kind.Definition{Name: "N", Controls: []kind.ControlSpec{
		{Name: "label", Type: kind.ControlText},
		{Name: "weight", Type: kind.ControlNumber},
	}}
	tests := []struct {
		name, raw string
		want      any
		wantErr   bool
	}{
		{"label", "3.5", "3.5", false},
		{"weight", "3.5", 3.5, false},
		{"weight", "heavy", nil, true},
		{"other", "x", "x", false},
	}
	for _, tt := range tests {
		got, err := parseValue(def, tt.name, tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseValue(%s, %q) error = %v, wantErr %v", tt.name, tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseValue(%s, %q) = %v, want %v", tt.name, tt.raw, got, tt.want)
		}
	}
}

func TestWriteKinds(t *testing.T) {
	var b strings.Builder
	writeKinds(&b, kind.Reference(socket.Reference()))
	for _, want := range []string{"NodeA", "Extra", "a:NodeBSocket", "b2:text", "200x180"} {
		if !strings.Contains(b.String(), want) {
			t.Errorf("kinds table missing %q", want)
		}
	}
}

func TestFormatError(t *testing.T) {
	err := errors.Wrap(errors.ErrCodeExternalIO, os.ErrNotExist, "read graph.json")
	got := FormatError(err)
	if !strings.Contains(got, "EXTERNAL_IO_FAILURE") || !strings.Contains(got, "read graph.json: file does not exist") {
		t.Errorf("FormatError = %q", got)
	}
	if strings.Count(got, "EXTERNAL_IO_FAILURE") != 1 {
		t.Errorf("FormatError repeats the code: %q", got)
	}
}
