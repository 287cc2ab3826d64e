package document

import (
	"fmt"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
)

// FormatVersion is the document version written by [Export].
const FormatVersion = 1

// Document is a persisted graph.
type Document struct {
	FormatVersion int          `json:"formatVersion" bson:"formatVersion" msgpack:"formatVersion"`
	Nodes         []Node       `json:"nodes" bson:"nodes" msgpack:"nodes"`
	Connections   []Connection `json:"connections" bson:"connections" msgpack:"connections"`
}

// Node is a persisted node instance.
type Node struct {
	ID       uint64          `json:"id" bson:"id" msgpack:"id"`
	Kind     string          `json:"kind" bson:"kind" msgpack:"kind"`
	Controls map[string]any  `json:"controls" bson:"controls" msgpack:"controls"`
	Position *graph.Position `json:"position,omitempty" bson:"position,omitempty" msgpack:"position,omitempty"`
}

// Connection is a persisted connection. Ids refer to [Node.ID] values in the
// same document.
type Connection struct {
	Source       uint64 `json:"source" bson:"source" msgpack:"source"`
	SourceOutput string `json:"sourceOutput" bson:"sourceOutput" msgpack:"sourceOutput"`
	Target       uint64 `json:"target" bson:"target" msgpack:"target"`
	TargetInput  string `json:"targetInput" bson:"targetInput" msgpack:"targetInput"`
}

// Export converts a snapshot to a document, keeping node creation order and
// connection append order.
func Export(v graph.View) Document {
	doc := Document{
		FormatVersion: FormatVersion,
		Nodes:         make([]Node, len(v.Nodes)),
		Connections:   make([]Connection, len(v.Connections)),
	}
	for i, n := range v.Nodes {
		nd := Node{ID: uint64(n.ID), Kind: n.Kind, Controls: n.Values()}
		if n.Position != nil {
			p := *n.Position
			nd.Position = &p
		}
		doc.Nodes[i] = nd
	}
	for i, c := range v.Connections {
		doc.Connections[i] = Connection{
			Source:       uint64(c.Source),
			SourceOutput: c.SourceOutput,
			Target:       uint64(c.Target),
			TargetInput:  c.TargetInput,
		}
	}
	return doc
}

// Validate checks the document's structure: supported version, non-zero and
// unique node ids, non-empty kinds and port names, and connections that only
// reference listed nodes. It returns MALFORMED_DOCUMENT with a field path.
func (d Document) Validate() error {
	if d.FormatVersion != FormatVersion {
		return malformed("formatVersion", "unsupported version %d (want %d)", d.FormatVersion, FormatVersion)
	}
	ids := make(map[uint64]int, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.ID == 0 {
			return malformed(nodePath(i, "id"), "must be positive")
		}
		if prev, dup := ids[n.ID]; dup {
			return malformed(nodePath(i, "id"), "duplicate id %d (also nodes[%d])", n.ID, prev)
		}
		ids[n.ID] = i
		if n.Kind == "" {
			return malformed(nodePath(i, "kind"), "required")
		}
	}
	for i, c := range d.Connections {
		if _, ok := ids[c.Source]; !ok {
			return malformed(connPath(i, "source"), "unknown node id %d", c.Source)
		}
		if _, ok := ids[c.Target]; !ok {
			return malformed(connPath(i, "target"), "unknown node id %d", c.Target)
		}
		if c.SourceOutput == "" {
			return malformed(connPath(i, "sourceOutput"), "required")
		}
		if c.TargetInput == "" {
			return malformed(connPath(i, "targetInput"), "required")
		}
	}
	return nil
}

// malformed returns MALFORMED_DOCUMENT with the field path leading the message.
func malformed(path, format string, args ...any) error {
	return errors.New(errors.ErrCodeMalformedDocument, "%s: %s", path, fmt.Sprintf(format, args...))
}

func nodePath(i int, field string) string { return fmt.Sprintf("nodes[%d].%s", i, field) }

func connPath(i int, field string) string { return fmt.Sprintf("connections[%d].%s", i, field) }
