package editor

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodewire/pkg/document"
	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
	"github.com/matzehuels/nodewire/pkg/kind"
	"github.com/matzehuels/nodewire/pkg/observability"
	"github.com/matzehuels/nodewire/pkg/pipeline"
	"github.com/matzehuels/nodewire/pkg/socket"
	"github.com/matzehuels/nodewire/pkg/storage"
)

type countingLayouter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (l *countingLayouter) Name() string { return "counting" }

func (l *countingLayouter) Layout(_ context.Context, v graph.View) (map[graph.NodeID]graph.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	out := make(map[graph.NodeID]graph.Position, len(v.Nodes))
	for i, n := range v.Nodes {
		out[n.ID] = graph.Position{X: float64(i) * 100}
	}
	return out, nil
}

func newEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	base := []Option{
		WithSequence(&graph.Sequence{}),
		WithLogger(log.New(io.Discard)),
	}
	e, err := New(kind.Reference(socket.Reference()), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func mustAdd(t *testing.T, e *Editor, k string) graph.NodeID {
	t.Helper()
	id, err := e.AddNode(context.Background(), k, nil)
	if err != nil {
		t.Fatalf("AddNode(%s): %v", k, err)
	}
	return id
}

func TestEditorMutations(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t)

	a := mustAdd(t, e, kind.NodeA)
	b := mustAdd(t, e, kind.NodeB)
	c := graph.Connection{Source: a, SourceOutput: "a", Target: b, TargetInput: "b"}

	if err := e.Connect(ctx, c); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := e.SetControl(ctx, b, "b", "hello"); err != nil {
		t.Fatalf("SetControl: %v", err)
	}
	if n, _ := e.Node(b); n.Values()["b"] != "hello" {
		t.Errorf("control b = %v, want hello", n.Values()["b"])
	}

	removed, err := e.Disconnect(ctx, c)
	if err != nil || !removed {
		t.Errorf("Disconnect() = %v, %v, want true, nil", removed, err)
	}
	removed, _ = e.Disconnect(ctx, c)
	if removed {
		t.Error("second Disconnect() should report false")
	}

	if err := e.RemoveNode(ctx, a); err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	if got := len(e.Snapshot().Nodes); got != 1 {
		t.Errorf("nodes = %d, want 1", got)
	}
	if err := e.Validate(); err != nil {
		t.Error(err)
	}
}

func TestEditorRejections(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t)
	a := mustAdd(t, e, kind.NodeA)
	c := mustAdd(t, e, kind.NodeC)

	tests := []struct {
		name string
		run  func() error
		want errors.Code
	}{
		{
			name: "incompatible sockets",
			run: func() error {
				return e.Connect(ctx, graph.Connection{Source: a, SourceOutput: "a", Target: c, TargetInput: "c"})
			},
			want: errors.ErrCodeIncompatibleSockets,
		},
		{
			name: "dangling port",
			run: func() error {
				return e.Connect(ctx, graph.Connection{Source: a, SourceOutput: "nope", Target: c, TargetInput: "c"})
			},
			want: errors.ErrCodeDanglingEndpoint,
		},
		{
			name: "unknown control",
			run:  func() error { return e.SetControl(ctx, a, "zzz", "x") },
			want: errors.ErrCodeUnknownControl,
		},
		{
			name: "unknown kind",
			run: func() error {
				_, err := e.AddNode(ctx, "NodeZ", nil)
				return err
			},
			want: errors.ErrCodeInvalidInput,
		},
		{
			name: "missing node",
			run:  func() error { return e.RemoveNode(ctx, 999) },
			want: errors.ErrCodeNotFound,
		},
	}
	before := e.Snapshot()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}
	after := e.Snapshot()
	if len(after.Nodes) != len(before.Nodes) || len(after.Connections) != len(before.Connections) {
		t.Error("rejected mutations changed the graph")
	}
}

func TestEditorCustomStage(t *testing.T) {
	ctx := context.Background()
	frozen := pipeline.Func("freeze", func(_ context.Context, ev pipeline.Event) pipeline.Outcome {
		if ev.Kind == pipeline.NodeRemove {
			return pipeline.Rejected(errors.New(errors.ErrCodeInvalidInput, "nodes are frozen"))
		}
		return pipeline.Accepted()
	})
	e := newEditor(t, WithStage(frozen))
	a := mustAdd(t, e, kind.NodeA)

	if err := e.RemoveNode(ctx, a); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("RemoveNode() error = %v, want INVALID_INPUT", err)
	}
	if _, ok := e.Node(a); !ok {
		t.Error("rejected removal deleted the node")
	}
	want := []string{"log", "connection-validator", "freeze"}
	got := e.Stages()
	if len(got) != len(want) {
		t.Fatalf("Stages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Stages()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEditorSecondValidatorRefused(t *testing.T) {
	reg := socket.Reference()
	defs := kind.Reference(reg)
	dup := pipeline.NewConnectionValidator(graph.New(defs), reg)
	if _, err := New(defs, WithStage(dup), WithLogger(log.New(io.Discard))); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New() with a second connection owner error = %v, want INVALID_INPUT", err)
	}
}

func TestLayoutPolicy(t *testing.T) {
	doc := document.Document{
		FormatVersion: document.FormatVersion,
		Nodes: []document.Node{
			{ID: 1, Kind: kind.NodeA, Controls: map[string]any{}},
			{ID: 2, Kind: kind.NodeB, Controls: map[string]any{}},
			{ID: 3, Kind: kind.NodeC, Controls: map[string]any{}},
		},
		Connections: []document.Connection{
			{Source: 1, SourceOutput: "a", Target: 2, TargetInput: "b"},
		},
	}

	tests := []struct {
		policy     LayoutPolicy
		wantAdd    int
		wantImport int
	}{
		{policy: LayoutBatch, wantAdd: 1, wantImport: 1},
		{policy: LayoutEachInsert, wantAdd: 1, wantImport: 4},
		{policy: LayoutOff, wantAdd: 0, wantImport: 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			ctx := context.Background()
			l := &countingLayouter{}
			e := newEditor(t, WithLayouter(l), WithLayoutPolicy(tt.policy))

			a := mustAdd(t, e, kind.NodeA)
			if l.calls != tt.wantAdd {
				t.Errorf("layout calls after AddNode = %d, want %d", l.calls, tt.wantAdd)
			}
			b := mustAdd(t, e, kind.NodeB)
			l.calls = 0
			if err := e.Connect(ctx, graph.Connection{Source: a, SourceOutput: "a", Target: b, TargetInput: "b"}); err != nil {
				t.Fatal(err)
			}
			if l.calls != 0 {
				t.Errorf("Connect triggered %d layout passes, want 0", l.calls)
			}

			if _, err := e.Import(ctx, doc); err != nil {
				t.Fatalf("Import: %v", err)
			}
			if l.calls != tt.wantImport {
				t.Errorf("layout calls during import = %d, want %d", l.calls, tt.wantImport)
			}
		})
	}
}

func TestLayoutFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	l := &countingLayouter{err: stderrors.New("engine unreachable")}
	e := newEditor(t, WithLayouter(l))

	id, err := e.AddNode(ctx, kind.NodeA, nil)
	if err != nil {
		t.Fatalf("AddNode() error = %v, want nil despite layout failure", err)
	}
	if _, ok := e.Node(id); !ok {
		t.Error("node missing after failed layout")
	}
	if err := e.Layout(ctx); !errors.Is(err, errors.ErrCodeLayoutUnavailable) {
		t.Errorf("Layout() error = %v, want LAYOUT_UNAVAILABLE", err)
	}
}

func TestLayoutSetsPositions(t *testing.T) {
	e := newEditor(t, WithLayouter(&countingLayouter{}))
	mustAdd(t, e, kind.NodeA)
	b := mustAdd(t, e, kind.NodeB)
	n, _ := e.Node(b)
	if n.Position == nil || n.Position.X != 100 {
		t.Errorf("position = %v, want x 100", n.Position)
	}
}

func TestLayoutWithoutEngine(t *testing.T) {
	e := newEditor(t)
	if err := e.Layout(context.Background()); !errors.Is(err, errors.ErrCodeLayoutUnavailable) {
		t.Errorf("Layout() error = %v, want LAYOUT_UNAVAILABLE", err)
	}
}

func TestParseLayoutPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    LayoutPolicy
		wantErr bool
	}{
		{in: "", want: LayoutBatch},
		{in: "Batch", want: LayoutBatch},
		{in: "each-insert", want: LayoutEachInsert},
		{in: "off", want: LayoutOff},
		{in: "sometimes", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLayoutPolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLayoutPolicy(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

// =============================================================================
// Open / Save
// =============================================================================

func TestSaveOpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{"graph.json", "graph.mpk"} {
		t.Run(name, func(t *testing.T) {
			src := newEditor(t)
			a, _ := src.AddNode(ctx, kind.NodeA, map[string]any{"a": "alpha"})
			b, _ := src.AddNode(ctx, kind.NodeB, map[string]any{"b2": "beta"})
			if err := src.Connect(ctx, graph.Connection{Source: a, SourceOutput: "a", Target: b, TargetInput: "b"}); err != nil {
				t.Fatal(err)
			}

			f := storage.NewFile(filepath.Join(t.TempDir(), name))
			if err := src.Save(ctx, f); err != nil {
				t.Fatalf("Save: %v", err)
			}

			dst := newEditor(t)
			res, err := dst.Open(ctx, f)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if len(res.Nodes) != 2 || len(res.Connections) != 1 {
				t.Fatalf("Open() added %d nodes, %d connections", len(res.Nodes), len(res.Connections))
			}
			n, _ := dst.Node(res.IDMap[uint64(a)])
			if n.Kind != kind.NodeA || n.Values()["a"] != "alpha" {
				t.Errorf("reopened node = %s %v", n.Kind, n.Values())
			}
		})
	}
}

func TestOpenFailuresLeaveGraphUntouched(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(garbage, []byte(`{"formatVersion": 1, "nodes": [{"id": 0}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	valid := filepath.Join(dir, "valid.json")
	if err := os.WriteFile(valid, []byte(`{"formatVersion": 1, "nodes": [{"id": 1, "kind": "NodeA", "controls": {}}], "connections": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		path string
		want errors.Code
	}{
		{name: "missing file", ctx: context.Background(), path: filepath.Join(dir, "nope.json"), want: errors.ErrCodeExternalIO},
		{name: "malformed", ctx: context.Background(), path: garbage, want: errors.ErrCodeMalformedDocument},
		{name: "canceled", ctx: canceled, path: valid, want: errors.ErrCodeCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(t)
			mustAdd(t, e, kind.NodeA)
			_, err := e.Open(tt.ctx, storage.NewFile(tt.path))
			if !errors.Is(err, tt.want) {
				t.Errorf("Open() error = %v, want %s", err, tt.want)
			}
			if n := len(e.Snapshot().Nodes); n != 1 {
				t.Errorf("graph has %d nodes after failed open, want 1", n)
			}
		})
	}
}

type failingSaver struct{}

func (failingSaver) Save(context.Context, []byte) error { return io.ErrClosedPipe }
func (failingSaver) Codec() document.Codec              { return document.JSON }
func (failingSaver) String() string                     { return "failing" }

func TestSaveFailure(t *testing.T) {
	e := newEditor(t)
	mustAdd(t, e, kind.NodeA)
	if err := e.Save(context.Background(), failingSaver{}); !errors.Is(err, errors.ErrCodeExternalIO) {
		t.Errorf("Save() error = %v, want EXTERNAL_IO_FAILURE", err)
	}
	if n := len(e.Snapshot().Nodes); n != 1 {
		t.Errorf("graph has %d nodes after failed save, want 1", n)
	}
}

// =============================================================================
// Concurrency and hooks
// =============================================================================

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, WithLayouter(&countingLayouter{}))
	root := mustAdd(t, e, kind.NodeA)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := e.AddNode(ctx, kind.NodeB, nil)
			if err != nil {
				t.Error(err)
				return
			}
			if err := e.Connect(ctx, graph.Connection{Source: root, SourceOutput: "a", Target: id, TargetInput: "b"}); err != nil {
				t.Error(err)
			}
			_ = e.Snapshot()
		}()
	}
	wg.Wait()

	v := e.Snapshot()
	if len(v.Nodes) != 21 || len(v.Connections) != 20 {
		t.Errorf("got %d nodes, %d connections, want 21, 20", len(v.Nodes), len(v.Connections))
	}
	if err := e.Validate(); err != nil {
		t.Error(err)
	}
}

type recordingHooks struct {
	observability.NoopEditorHooks
	mu        sync.Mutex
	mutations []string
	rejected  int
	layouts   int
}

func (h *recordingHooks) OnMutation(_ context.Context, event string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, event)
	if err != nil {
		h.rejected++
	}
}

func (h *recordingHooks) OnLayout(context.Context, string, int, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.layouts++
}

func TestEditorHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetEditorHooks(h)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	e := newEditor(t, WithLayouter(&countingLayouter{}))
	a := mustAdd(t, e, kind.NodeA)
	c := mustAdd(t, e, kind.NodeC)
	_ = e.Connect(ctx, graph.Connection{Source: a, SourceOutput: "a", Target: c, TargetInput: "c"})

	if len(h.mutations) != 3 {
		t.Errorf("mutations = %v, want 3 events", h.mutations)
	}
	if h.rejected != 1 {
		t.Errorf("rejected = %d, want 1", h.rejected)
	}
	if h.layouts != 2 {
		t.Errorf("layouts = %d, want 2", h.layouts)
	}
}
