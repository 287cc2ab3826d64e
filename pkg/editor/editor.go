package editor

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/nodewire/pkg/document"
	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
	"github.com/matzehuels/nodewire/pkg/kind"
	"github.com/matzehuels/nodewire/pkg/layout"
	"github.com/matzehuels/nodewire/pkg/observability"
	"github.com/matzehuels/nodewire/pkg/pipeline"
	"github.com/matzehuels/nodewire/pkg/storage"
)

// Editor is one editing session. All methods are safe for concurrent use
// and run one at a time.
type Editor struct {
	mu sync.Mutex

	id       string
	defs     *kind.Set
	store    *graph.Store
	pipe     *pipeline.Pipeline
	layouter layout.Layouter
	policy   LayoutPolicy
	logger   *log.Logger

	seq    *graph.Sequence
	stages []pipeline.Interceptor
}

// New creates an empty session over the given definitions.
func New(defs *kind.Set, opts ...Option) (*Editor, error) {
	if defs == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "editor needs node definitions")
	}
	e := &Editor{
		defs:   defs,
		policy: LayoutBatch,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, err := ParseLayoutPolicy(string(e.policy)); err != nil {
		return nil, err
	}
	if e.id == "" {
		e.id = uuid.NewString()
	}

	var storeOpts []graph.Option
	if e.seq != nil {
		storeOpts = append(storeOpts, graph.WithSequence(e.seq))
	}
	e.store = graph.New(defs, storeOpts...)

	e.pipe = pipeline.New()
	builtin := []pipeline.Interceptor{
		pipeline.NewLogStage(e.logger),
		pipeline.NewConnectionValidator(e.store, defs.Sockets()),
	}
	for _, s := range append(builtin, e.stages...) {
		if err := e.pipe.Use(s); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ID returns the session id.
func (e *Editor) ID() string { return e.id }

// Definitions returns the node definitions the session was built with.
func (e *Editor) Definitions() *kind.Set { return e.defs }

// Policy returns the layout policy.
func (e *Editor) Policy() LayoutPolicy { return e.policy }

// Stages returns the pipeline stage names in run order.
func (e *Editor) Stages() []string { return e.pipe.Stages() }

// =============================================================================
// Mutations
// =============================================================================

// gate runs ev through the pipeline and reports a rejection to the hooks.
// The caller holds e.mu.
func (e *Editor) gate(ctx context.Context, ev pipeline.Event) error {
	if out := e.pipe.Run(ctx, ev); !out.Accepted() {
		observability.Editor().OnMutation(ctx, string(ev.Kind), out.Err())
		e.logger.Debug("mutation rejected", "event", ev.String(), "reason", out.Err())
		return out.Err()
	}
	return nil
}

// commit applies an accepted mutation and reports the result.
func (e *Editor) commit(ctx context.Context, ev pipeline.Event, apply func() error) error {
	err := apply()
	observability.Editor().OnMutation(ctx, string(ev.Kind), err)
	return err
}

// AddNode creates a node of the given kind. values may set any subset of
// the kind's controls; the rest take their defaults.
func (e *Editor) AddNode(ctx context.Context, kindName string, values map[string]any) (graph.NodeID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, err := e.addNodeLocked(ctx, kindName, values)
	if err != nil {
		return 0, err
	}
	e.autoLayoutLocked(ctx)
	return id, nil
}

func (e *Editor) addNodeLocked(ctx context.Context, kindName string, values map[string]any) (graph.NodeID, error) {
	ev := pipeline.Event{Kind: pipeline.NodeCreate, NodeKind: kindName, Values: values}
	if err := e.gate(ctx, ev); err != nil {
		return 0, err
	}
	var id graph.NodeID
	err := e.commit(ctx, ev, func() error {
		var err error
		id, err = e.store.AddNode(kindName, values)
		return err
	})
	return id, err
}

// RemoveNode removes a node and every connection touching it.
func (e *Editor) RemoveNode(ctx context.Context, id graph.NodeID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev := pipeline.Event{Kind: pipeline.NodeRemove, Node: id}
	if err := e.gate(ctx, ev); err != nil {
		return err
	}
	if err := e.commit(ctx, ev, func() error { return e.store.RemoveNode(id) }); err != nil {
		return err
	}
	e.autoLayoutLocked(ctx)
	return nil
}

// Connect adds a connection after the pipeline has validated it.
// Connecting an existing connection again is a no-op.
func (e *Editor) Connect(ctx context.Context, c graph.Connection) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connectLocked(ctx, c)
}

func (e *Editor) connectLocked(ctx context.Context, c graph.Connection) error {
	ev := pipeline.Event{Kind: pipeline.ConnectionCreate, Connection: c}
	if err := e.gate(ctx, ev); err != nil {
		return err
	}
	return e.commit(ctx, ev, func() error { return e.store.AddConnection(c) })
}

// Disconnect removes a connection. It reports whether the connection
// existed.
func (e *Editor) Disconnect(ctx context.Context, c graph.Connection) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev := pipeline.Event{Kind: pipeline.ConnectionRemove, Connection: c}
	if err := e.gate(ctx, ev); err != nil {
		return false, err
	}
	var removed bool
	err := e.commit(ctx, ev, func() error {
		removed = e.store.RemoveConnection(c)
		return nil
	})
	return removed, err
}

// SetControl replaces a control value. The value is coerced to the
// control's type.
func (e *Editor) SetControl(ctx context.Context, id graph.NodeID, name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev := pipeline.Event{Kind: pipeline.ControlChange, Node: id, Control: name, Value: value}
	if err := e.gate(ctx, ev); err != nil {
		return err
	}
	return e.commit(ctx, ev, func() error { return e.store.SetControlValue(id, name, value) })
}

// Snapshot returns a consistent copy of the graph.
func (e *Editor) Snapshot() graph.View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot()
}

// Node returns a copy of one node.
func (e *Editor) Node(id graph.NodeID) (graph.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Node(id)
}

// Validate checks the store invariants. It only fails on a bug.
func (e *Editor) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Validate()
}

// =============================================================================
// Layout
// =============================================================================

// Layout runs a layout pass now, regardless of the policy, and returns its
// error.
func (e *Editor) Layout(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.layouter == nil {
		return errors.New(errors.ErrCodeLayoutUnavailable, "no layout engine configured")
	}
	return e.layoutLocked(ctx)
}

// autoLayoutLocked runs a pass if the policy allows it. Failures are logged
// and swallowed; the caller's mutation has already been applied.
func (e *Editor) autoLayoutLocked(ctx context.Context) {
	if e.policy == LayoutOff || e.layouter == nil {
		return
	}
	if err := e.layoutLocked(ctx); err != nil {
		e.logger.Warn("layout failed", "engine", e.layouter.Name(), "err", errors.UserMessage(err))
	}
}

func (e *Editor) layoutLocked(ctx context.Context) error {
	start := time.Now()
	view := e.store.Snapshot()
	positions, err := e.layouter.Layout(ctx, view)
	if err != nil && !errors.Is(err, errors.ErrCodeLayoutUnavailable) {
		err = errors.Wrap(errors.ErrCodeLayoutUnavailable, err, "%s layout failed", e.layouter.Name())
	}
	observability.Editor().OnLayout(ctx, e.layouter.Name(), len(view.Nodes), time.Since(start), err)
	if err != nil {
		return err
	}
	e.store.SetPositions(positions)
	e.logger.Debug("layout", "engine", e.layouter.Name(), "nodes", len(view.Nodes), "took", time.Since(start))
	return nil
}

// =============================================================================
// Documents
// =============================================================================

// Export converts the graph to a document.
func (e *Editor) Export(ctx context.Context) document.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exportLocked(ctx)
}

func (e *Editor) exportLocked(ctx context.Context) document.Document {
	start := time.Now()
	doc := document.Export(e.store.Snapshot())
	observability.Editor().OnExport(ctx, len(doc.Nodes), len(doc.Connections), time.Since(start))
	e.logger.Info("exported", "nodes", len(doc.Nodes), "connections", len(doc.Connections))
	return doc
}

// Import adds the document's nodes and connections to the graph, with
// fresh ids. The document is validated first; a document that fails
// validation, or a context already done, leaves the graph untouched. A
// connection refused halfway leaves the nodes and connections added before
// it in place.
func (e *Editor) Import(ctx context.Context, doc document.Document) (document.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.importLocked(ctx, doc)
}

func (e *Editor) importLocked(ctx context.Context, doc document.Document) (document.Result, error) {
	start := time.Now()

	var opts []document.ImportOption
	if e.policy == LayoutEachInsert {
		opts = append(opts, document.AfterNode(func(graph.NodeID) { e.autoLayoutLocked(ctx) }))
	}
	// Cancellation is honoured up to the first mutation only.
	res, err := document.Import(ctx, doc, sessionTarget{e: e, ctx: context.WithoutCancel(ctx)}, opts...)

	observability.Editor().OnImport(ctx, len(res.Nodes), len(res.Connections), time.Since(start), err)
	if len(res.Nodes) > 0 {
		e.autoLayoutLocked(ctx)
	}
	if err != nil {
		e.logger.Warn("import failed", "added_nodes", len(res.Nodes), "added_connections", len(res.Connections), "err", errors.UserMessage(err))
		return res, err
	}
	e.logger.Info("imported", "nodes", len(res.Nodes), "connections", len(res.Connections), "took", time.Since(start))
	return res, nil
}

// Open reads a document through o and imports it. Read and decode failures
// leave the graph untouched.
func (e *Editor) Open(ctx context.Context, o storage.Opener) (document.Result, error) {
	data, err := o.Open(ctx)
	if err != nil {
		return document.Result{}, asIO(err, "open %s", o)
	}
	doc, err := o.Codec().Decode(bytes.NewReader(data))
	if err != nil {
		return document.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return document.Result{}, errors.Wrap(errors.ErrCodeCanceled, err, "open %s", o)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.importLocked(ctx, doc)
}

// Save exports the graph and writes it through s.
func (e *Editor) Save(ctx context.Context, s storage.Saver) error {
	e.mu.Lock()
	doc := e.exportLocked(ctx)
	e.mu.Unlock()

	var buf bytes.Buffer
	if err := s.Codec().Encode(&buf, doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	if err := s.Save(ctx, buf.Bytes()); err != nil {
		return asIO(err, "save %s", s)
	}
	e.logger.Info("saved", "to", s.String(), "bytes", buf.Len())
	return nil
}

// asIO keeps coded errors and wraps everything else as EXTERNAL_IO_FAILURE.
func asIO(err error, format string, args ...any) error {
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeExternalIO, err, format, args...)
}

// sessionTarget routes document imports through the session's pipeline.
// The caller holds e.mu.
type sessionTarget struct {
	e   *Editor
	ctx context.Context
}

func (t sessionTarget) AddNode(kindName string, values map[string]any) (graph.NodeID, error) {
	return t.e.addNodeLocked(t.ctx, kindName, values)
}

func (t sessionTarget) AddConnection(c graph.Connection) error {
	return t.e.connectLocked(t.ctx, c)
}

func (t sessionTarget) SetPositions(positions map[graph.NodeID]graph.Position) {
	t.e.store.SetPositions(positions)
}

var (
	_ document.Target         = sessionTarget{}
	_ document.PositionSetter = sessionTarget{}
)
