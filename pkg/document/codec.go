package document

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
)

// Codec encodes and decodes documents.
type Codec interface {
	Name() string
	ContentType() string
	Encode(w io.Writer, doc Document) error
	Decode(r io.Reader) (Document, error)
}

// Codecs.
var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

// CodecFor returns the codec with the given name ("json" or "msgpack").
func CodecFor(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON, nil
	case "msgpack", "mpk":
		return Msgpack, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown document codec %q", name)
}

// CodecForPath picks a codec by file extension. Anything other than
// .msgpack or .mpk is JSON.
func CodecForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk":
		return Msgpack
	}
	return JSON
}

// Marshal encodes a document as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := JSON.Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal strictly decodes a JSON document.
func Unmarshal(data []byte) (Document, error) {
	return JSON.Decode(bytes.NewReader(data))
}

// Decode strictly decodes a JSON document from r.
func Decode(r io.Reader) (Document, error) {
	return JSON.Decode(r)
}

// =============================================================================
// Wire types
// =============================================================================

// Pointer fields tell "absent" from "zero" so missing required fields are
// reported instead of defaulted.

type wireDocument struct {
	FormatVersion *int              `json:"formatVersion"`
	Nodes         []json.RawMessage `json:"nodes"`
	Connections   []json.RawMessage `json:"connections"`
}

type wireNode struct {
	ID       *uint64         `json:"id" msgpack:"id"`
	Kind     *string         `json:"kind" msgpack:"kind"`
	Controls map[string]any  `json:"controls" msgpack:"controls"`
	Position *graph.Position `json:"position" msgpack:"position"`
}

type wireConnection struct {
	Source       *uint64 `json:"source" msgpack:"source"`
	SourceOutput *string `json:"sourceOutput" msgpack:"sourceOutput"`
	Target       *uint64 `json:"target" msgpack:"target"`
	TargetInput  *string `json:"targetInput" msgpack:"targetInput"`
}

func (w wireNode) node(i int) (Node, error) {
	switch {
	case w.ID == nil:
		return Node{}, malformed(nodePath(i, "id"), "required")
	case w.Kind == nil:
		return Node{}, malformed(nodePath(i, "kind"), "required")
	case w.Controls == nil:
		return Node{}, malformed(nodePath(i, "controls"), "required")
	}
	return Node{ID: *w.ID, Kind: *w.Kind, Controls: w.Controls, Position: w.Position}, nil
}

func (w wireConnection) connection(i int) (Connection, error) {
	switch {
	case w.Source == nil:
		return Connection{}, malformed(connPath(i, "source"), "required")
	case w.SourceOutput == nil:
		return Connection{}, malformed(connPath(i, "sourceOutput"), "required")
	case w.Target == nil:
		return Connection{}, malformed(connPath(i, "target"), "required")
	case w.TargetInput == nil:
		return Connection{}, malformed(connPath(i, "targetInput"), "required")
	}
	return Connection{Source: *w.Source, SourceOutput: *w.SourceOutput, Target: *w.Target, TargetInput: *w.TargetInput}, nil
}

// =============================================================================
// JSON
// =============================================================================

type jsonCodec struct{}

func (jsonCodec) Name() string        { return "json" }
func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalize(doc)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	return nil
}

func (jsonCodec) Decode(r io.Reader) (Document, error) {
	var top wireDocument
	if err := strictJSON(r, &top); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeMalformedDocument, err, "document")
	}
	if top.FormatVersion == nil {
		return Document{}, malformed("formatVersion", "required")
	}
	if top.Nodes == nil {
		return Document{}, malformed("nodes", "required")
	}
	if top.Connections == nil {
		return Document{}, malformed("connections", "required")
	}

	doc := Document{
		FormatVersion: *top.FormatVersion,
		Nodes:         make([]Node, len(top.Nodes)),
		Connections:   make([]Connection, len(top.Connections)),
	}
	for i, raw := range top.Nodes {
		var w wireNode
		if err := strictJSON(bytes.NewReader(raw), &w); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeMalformedDocument, err, "nodes[%d]", i)
		}
		n, err := w.node(i)
		if err != nil {
			return Document{}, err
		}
		doc.Nodes[i] = n
	}
	for i, raw := range top.Connections {
		var w wireConnection
		if err := strictJSON(bytes.NewReader(raw), &w); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeMalformedDocument, err, "connections[%d]", i)
		}
		c, err := w.connection(i)
		if err != nil {
			return Document{}, err
		}
		doc.Connections[i] = c
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func strictJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New(errors.ErrCodeMalformedDocument, "trailing data after document")
	}
	return nil
}

// =============================================================================
// Msgpack
// =============================================================================

type msgpackCodec struct{}

func (msgpackCodec) Name() string        { return "msgpack" }
func (msgpackCodec) ContentType() string { return "application/msgpack" }

func (msgpackCodec) Encode(w io.Writer, doc Document) error {
	if err := msgpack.NewEncoder(w).Encode(normalize(doc)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	return nil
}

// msgpackDocument mirrors wireDocument with typed elements; msgpack has no
// raw-message equivalent that keeps per-element paths cheap.
type msgpackDocument struct {
	FormatVersion *int             `msgpack:"formatVersion"`
	Nodes         []wireNode       `msgpack:"nodes"`
	Connections   []wireConnection `msgpack:"connections"`
}

func (msgpackCodec) Decode(r io.Reader) (Document, error) {
	var top msgpackDocument
	dec := msgpack.NewDecoder(r)
	dec.DisallowUnknownFields(true)
	if err := dec.Decode(&top); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeMalformedDocument, err, "document")
	}
	switch {
	case top.FormatVersion == nil:
		return Document{}, malformed("formatVersion", "required")
	case top.Nodes == nil:
		return Document{}, malformed("nodes", "required")
	case top.Connections == nil:
		return Document{}, malformed("connections", "required")
	}

	doc := Document{
		FormatVersion: *top.FormatVersion,
		Nodes:         make([]Node, len(top.Nodes)),
		Connections:   make([]Connection, len(top.Connections)),
	}
	for i, w := range top.Nodes {
		n, err := w.node(i)
		if err != nil {
			return Document{}, err
		}
		doc.Nodes[i] = n
	}
	for i, w := range top.Connections {
		c, err := w.connection(i)
		if err != nil {
			return Document{}, err
		}
		doc.Connections[i] = c
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// normalize replaces nil collections with empty ones so that an empty graph
// encodes as [] rather than null and decodes again.
func normalize(doc Document) Document {
	if doc.Nodes == nil {
		doc.Nodes = []Node{}
	}
	if doc.Connections == nil {
		doc.Connections = []Connection{}
	}
	for i := range doc.Nodes {
		if doc.Nodes[i].Controls == nil {
			doc.Nodes[i].Controls = map[string]any{}
		}
	}
	return doc
}
