// Package document converts graph snapshots to persisted documents and
// back.
//
// # Format
//
// A document has a version and two ordered collections:
//
//	{
//	  "formatVersion": 1,
//	  "nodes": [
//	    {"id": 1, "kind": "NodeA", "controls": {"a": "hello"}},
//	    {"id": 2, "kind": "NodeB", "controls": {"b": "", "b2": ""}, "position": {"x": 0, "y": 0}}
//	  ],
//	  "connections": [
//	    {"source": 1, "sourceOutput": "a", "target": 2, "targetInput": "b"}
//	  ]
//	}
//
// Nodes are listed in creation order and connections in append order.
// Sockets are never written: they are derived from each node's kind when the
// document is imported. Positions are optional layout metadata.
//
// # Decoding
//
// Decoding is strict. Unknown fields, missing required fields, an absent or
// unsupported formatVersion, duplicate node ids and connections that refer
// to ids not listed under nodes are all MALFORMED_DOCUMENT. Messages carry
// the offending field path, for example "nodes[2].kind: required".
//
// # Import
//
// [Import] rebuilds a graph in a [Target]. Node ids in the document are not
// preserved; each node receives a fresh id and [Result.IDMap] records the
// translation. Import is not atomic: a rejected connection leaves the nodes
// and connections added before it in place, but never a dangling connection.
//
// # Codecs
//
// Documents are JSON by default. [Msgpack] is a compact binary alternative
// for remote stores; [CodecForPath] picks one by file extension.
package document
