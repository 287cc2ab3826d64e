package server

import (
	"bytes"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nodewire/pkg/document"
	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
	"github.com/matzehuels/nodewire/pkg/kind"
)

// =============================================================================
// Wire types
// =============================================================================

type portJSON struct {
	Name   string `json:"name"`
	Socket string `json:"socket"`
}

type controlJSON struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Label string `json:"label"`
	Value any    `json:"value"`
}

type nodeJSON struct {
	ID       graph.NodeID    `json:"id"`
	Kind     string          `json:"kind"`
	Inputs   []portJSON      `json:"inputs"`
	Outputs  []portJSON      `json:"outputs"`
	Controls []controlJSON   `json:"controls"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	Position *graph.Position `json:"position,omitempty"`
}

type connectionJSON struct {
	Source       graph.NodeID `json:"source" validate:"required"`
	SourceOutput string       `json:"sourceOutput" validate:"required"`
	Target       graph.NodeID `json:"target" validate:"required"`
	TargetInput  string       `json:"targetInput" validate:"required"`
}

func (c connectionJSON) connection() graph.Connection {
	return graph.Connection{Source: c.Source, SourceOutput: c.SourceOutput, Target: c.Target, TargetInput: c.TargetInput}
}

type graphJSON struct {
	Nodes       []nodeJSON       `json:"nodes"`
	Connections []connectionJSON `json:"connections"`
}

func ports(ps []graph.Port) []portJSON {
	out := make([]portJSON, len(ps))
	for i, p := range ps {
		out[i] = portJSON{Name: p.Name, Socket: string(p.Socket)}
	}
	return out
}

func viewJSON(v graph.View) graphJSON {
	g := graphJSON{
		Nodes:       make([]nodeJSON, len(v.Nodes)),
		Connections: make([]connectionJSON, len(v.Connections)),
	}
	for i, n := range v.Nodes {
		controls := make([]controlJSON, len(n.Controls))
		for j, c := range n.Controls {
			controls[j] = controlJSON{Name: c.Name, Type: string(c.Type), Label: c.Label, Value: c.Value}
		}
		g.Nodes[i] = nodeJSON{
			ID:       n.ID,
			Kind:     n.Kind,
			Inputs:   ports(n.Inputs),
			Outputs:  ports(n.Outputs),
			Controls: controls,
			Width:    n.Size.Width,
			Height:   n.Size.Height,
			Position: n.Position,
		}
	}
	for i, c := range v.Connections {
		g.Connections[i] = connectionJSON{Source: c.Source, SourceOutput: c.SourceOutput, Target: c.Target, TargetInput: c.TargetInput}
	}
	return g
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "session": s.editor.ID()})
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, viewJSON(s.editor.Snapshot()))
}

type kindsJSON struct {
	Kinds  []kind.Definition `json:"kinds"`
	Groups []groupJSON       `json:"groups"`
}

type groupJSON struct {
	Name  string   `json:"name"`
	Kinds []string `json:"kinds"`
}

func (s *Server) handleKinds(w http.ResponseWriter, _ *http.Request) {
	defs := s.editor.Definitions()
	resp := kindsJSON{}
	for _, name := range defs.Names() {
		if d, ok := defs.Lookup(name); ok {
			resp.Kinds = append(resp.Kinds, d)
		}
	}
	for _, g := range defs.Groups() {
		resp.Groups = append(resp.Groups, groupJSON{Name: g.Name, Kinds: g.Kinds})
	}
	respondJSON(w, http.StatusOK, resp)
}

type addNodeRequest struct {
	Kind     string         `json:"kind" validate:"required"`
	Controls map[string]any `json:"controls"`
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	id, err := s.editor.AddNode(r.Context(), req.Kind, req.Controls)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]graph.NodeID{"id": id})
}

func nodeParam(r *http.Request) (graph.NodeID, error) {
	return graph.ParseNodeID(chi.URLParam(r, "id"))
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.editor.RemoveNode(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setControlRequest struct {
	Value any `json:"value"`
}

func (s *Server) handleSetControl(w http.ResponseWriter, r *http.Request) {
	id, err := nodeParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req setControlRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Value == nil {
		respondError(w, errors.New(errors.ErrCodeInvalidInput, "value is required"))
		return
	}
	if err := s.editor.SetControl(r.Context(), id, chi.URLParam(r, "name"), req.Value); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectionJSON
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := s.editor.Connect(r.Context(), req.connection()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req connectionJSON
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	removed, err := s.editor.Disconnect(r.Context(), req.connection())
	if err != nil {
		respondError(w, err)
		return
	}
	if !removed {
		respondError(w, errors.New(errors.ErrCodeNotFound, "connection %s not found", req.connection()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// negotiate picks msgpack when the header names it and JSON otherwise.
func negotiate(header string) document.Codec {
	mt, _, err := mime.ParseMediaType(header)
	if err == nil && mt == document.Msgpack.ContentType() {
		return document.Msgpack
	}
	return document.JSON
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	codec := negotiate(r.Header.Get("Accept"))
	var buf bytes.Buffer
	if err := codec.Encode(&buf, s.editor.Export(r.Context())); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode document"))
		return
	}
	w.Header().Set("Content-Type", codec.ContentType())
	_, _ = w.Write(buf.Bytes())
}

type importResponse struct {
	IDMap       map[uint64]graph.NodeID `json:"idMap"`
	Nodes       int                     `json:"nodes"`
	Connections int                     `json:"connections"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	codec := negotiate(r.Header.Get("Content-Type"))
	doc, err := codec.Decode(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, err)
		return
	}
	res, err := s.editor.Import(r.Context(), doc)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, importResponse{
		IDMap:       res.IDMap,
		Nodes:       len(res.Nodes),
		Connections: len(res.Connections),
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.Layout(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewJSON(s.editor.Snapshot()))
}
