// Package pkg provides the core libraries for nodewire, an editor for graphs
// of typed nodes.
//
// # Overview
//
// A graph is a set of nodes, each an instance of a node kind with fixed
// input and output ports, and a list of connections from an output port to
// an input port. Ports carry socket kinds; a connection is only accepted
// when the source socket may feed the target socket.
//
//  1. [socket] - Socket kinds and the compatibility relation
//  2. [kind] - Node definitions: ports, controls, visual size
//  3. [graph] - The graph store: nodes, connections, snapshots
//  4. [pipeline] - Interceptors every mutation passes, including the
//     connection validator
//  5. [document] - The persisted document format and import/export
//  6. [editor] - One editing session tying the above together
//  7. [layout], [render] - Node positions and drawing through graphviz
//  8. [storage], [cache] - Document stores and the layout cache
//
// # Architecture
//
// The typical data flow through an editing session:
//
//	AddNode / Connect / SetControl
//	         ↓
//	    [pipeline] (log, validate sockets, custom stages)
//	         ↓
//	    [graph] store
//	         ↓
//	    [layout] (per policy)  →  [document] export  →  [storage]
//
// # Quick Start
//
//	defs := kind.Reference(socket.Reference())
//	ed, _ := editor.New(defs)
//
//	a, _ := ed.AddNode(ctx, kind.NodeA, nil)
//	b, _ := ed.AddNode(ctx, kind.NodeB, map[string]any{"b": "hello"})
//	err := ed.Connect(ctx, graph.Connection{
//	    Source: a, SourceOutput: "a",
//	    Target: b, TargetInput: "b",
//	})
//
//	err = ed.Save(ctx, storage.NewFile("graph.json"))
package pkg
