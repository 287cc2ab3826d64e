package document

import (
	"context"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
)

// Target receives the mutations of an import. [graph.Store] satisfies it
// directly; the editor supplies a target that routes connections through
// the connection validator.
type Target interface {
	AddNode(kind string, values map[string]any) (graph.NodeID, error)
	AddConnection(c graph.Connection) error
}

// PositionSetter is implemented by targets that accept layout positions.
// Import uses it to restore positions stored in the document.
type PositionSetter interface {
	SetPositions(map[graph.NodeID]graph.Position)
}

// Result describes a completed or partial import.
type Result struct {
	IDMap       map[uint64]graph.NodeID // document id -> new id
	Nodes       []graph.NodeID          // new ids in document order
	Connections []graph.Connection      // added connections in document order
}

// ImportOption configures Import.
type ImportOption func(*importConfig)

type importConfig struct {
	afterNode func(graph.NodeID)
}

// AfterNode registers a callback run after each node is added. The editor
// uses it to run layout after every insertion when configured to.
func AfterNode(fn func(graph.NodeID)) ImportOption {
	return func(c *importConfig) { c.afterNode = fn }
}

// Import rebuilds the document's graph in target.
//
// The document is validated and ctx is checked before the first mutation,
// so a malformed document or a cancelled context changes nothing. Nodes are
// then added in document order with fresh ids, followed by connections with
// their endpoints translated through the id map.
//
// A node the target refuses (unknown kind, bad control value) is reported
// as MALFORMED_DOCUMENT. A refused connection keeps its code, for example
// INCOMPATIBLE_SOCKETS. In both cases the returned Result describes what
// was added before the failure.
func Import(ctx context.Context, doc Document, target Target, opts ...ImportOption) (Result, error) {
	var cfg importConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	res := Result{IDMap: make(map[uint64]graph.NodeID, len(doc.Nodes))}
	if err := doc.Validate(); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, errors.Wrap(errors.ErrCodeCanceled, err, "import")
	}

	positions := make(map[graph.NodeID]graph.Position)
	for i, n := range doc.Nodes {
		id, err := target.AddNode(n.Kind, n.Controls)
		if err != nil {
			return res, errors.Wrap(errors.ErrCodeMalformedDocument, err, "nodes[%d]", i)
		}
		res.IDMap[n.ID] = id
		res.Nodes = append(res.Nodes, id)
		if n.Position != nil {
			positions[id] = *n.Position
		}
		if cfg.afterNode != nil {
			cfg.afterNode(id)
		}
	}
	if ps, ok := target.(PositionSetter); ok && len(positions) > 0 {
		ps.SetPositions(positions)
	}

	for i, c := range doc.Connections {
		src, ok := res.IDMap[c.Source]
		if !ok {
			return res, malformed(connPath(i, "source"), "unknown node id %d", c.Source)
		}
		dst, ok := res.IDMap[c.Target]
		if !ok {
			return res, malformed(connPath(i, "target"), "unknown node id %d", c.Target)
		}
		conn := graph.Connection{Source: src, SourceOutput: c.SourceOutput, Target: dst, TargetInput: c.TargetInput}
		if err := target.AddConnection(conn); err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeMalformedDocument
			}
			return res, errors.Wrap(code, err, "connections[%d]", i)
		}
		res.Connections = append(res.Connections, conn)
	}
	return res, nil
}
