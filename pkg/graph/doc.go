// Package graph holds live node instances, their control values and the
// connections between them.
//
// # Architecture
//
// The [Store] is the single owner of graph state:
//
//   - Nodes are instances of a [kind.Definition]. Their ports and sockets are
//     built from the definition; callers only supply the kind name and
//     optional control values.
//   - Connections reference nodes by [NodeID] and ports by name. They never
//     embed nodes.
//   - A [View] is a deep-copied snapshot used by serializers and layout.
//
// # Integrity
//
// The store keeps these invariants after every operation:
//
//   - Every connection's endpoints resolve to a live node and an existing
//     output (source) or input (target) port.
//   - Node ids are unique and never reused, even after removal.
//   - Removing a node removes every connection that touches it.
//
// Socket compatibility is not checked here. It is a creation-time gate
// enforced by the connection validator in package pipeline, so the store accepts
// any connection whose endpoints resolve. [Store.AddConnection] still
// re-checks endpoints and refuses dangling references.
//
// # Identifiers
//
// Ids come from a [Sequence]. By default all stores share [DefaultSequence],
// so ids are unique across the process. Use [WithSequence] to give a store
// its own counter, for example in tests that assert exact ids.
//
// # Concurrency
//
// A Store is not safe for concurrent use without external synchronization.
// The editor package wraps it with a single mutex. Views are immutable
// copies and may be shared freely.
package graph
