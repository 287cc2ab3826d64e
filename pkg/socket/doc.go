// Package socket defines socket kinds and the compatibility rule between them.
//
// # Overview
//
// A socket kind names a compatibility class for node ports. Two ports may be
// wired together only when the source port's kind is compatible with the
// target port's kind. Each kind is a distinct nominal type: there is no
// implicit widening or subtyping, and a kind is compatible with another only
// when the [Registry] says so explicitly.
//
// # Direction
//
// Compatibility is evaluated as source.compatible(target). The rule is not
// required to be symmetric, so declaring
//
//	reg.Allow("Number", "Text")
//
// lets a Number output feed a Text input while a Text output still cannot
// feed a Number input.
//
// # Reference Configuration
//
// [Reference] returns the three kinds used by the built-in node kinds
// (NodeASocket, NodeBSocket, NodeCSocket), each compatible only with itself.
//
// # Concurrency
//
// A Registry is safe for concurrent use. Compatible never mutates state.
package socket
