// Package editor is a single node-graph editing session.
//
// An [Editor] owns a [graph.Store] and serializes every operation on it
// with one mutex: no mutation ever observes another one in progress, and
// snapshots are always taken between mutations.
//
// # Mutations
//
// Each mutation is described as a [pipeline.Event] and run through the
// session's pipeline before the store is touched. The connection validator
// owns connection creation; further stages can be added with [WithStage].
// A rejection is returned to the caller and the graph is left unchanged.
//
// # Layout
//
// After a batch of mutations that changes the node count, the editor asks
// its [layout.Layouter] for positions. [LayoutBatch] runs one pass per
// batch (a single AddNode, or a whole import). [LayoutEachInsert] also runs
// a pass after every imported node. [LayoutOff] never runs one
// automatically. A failed pass is logged and reported to the observability
// hooks; the mutation that triggered it stands.
//
// # Documents
//
// [Editor.Export] and [Editor.Import] convert between the live graph and a
// [document.Document]. [Editor.Open] and [Editor.Save] add the byte level,
// using a [storage.Opener] or [storage.Saver] and its codec.
//
//	ed, err := editor.New(kind.Reference(socket.Reference()),
//	    editor.WithLayouter(layout.NewGrid()))
//	a, _ := ed.AddNode(ctx, kind.NodeA, map[string]any{"a": "hello"})
//	b, _ := ed.AddNode(ctx, kind.NodeB, nil)
//	err = ed.Connect(ctx, graph.Connection{Source: a, SourceOutput: "a", Target: b, TargetInput: "b"})
//	err = ed.Save(ctx, storage.NewFile("graph.json"))
package editor
