package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"rpg/internal/rpgerr"
)

// SchemaVersion is the current envelope version tag. See spec §6
// "Serialized form (JSON)".
const SchemaVersion = "1.0.0"

// envelope is the stable on-disk JSON shape. Any Store implementation can
// produce/consume it via Encode/Decode below, so ExportJSON/ImportJSON
// stay interchangeable across storage back-ends.
type envelope struct {
	Version string       `json:"version"`
	Config  envelopeConfig `json:"config"`
	Nodes   []Node       `json:"nodes"`
	Edges   []Edge       `json:"edges"`
}

type envelopeConfig struct {
	Name        string `json:"name"`
	RootPath    string `json:"rootPath,omitempty"`
	Description string `json:"description,omitempty"`
}

// Encode builds the stable JSON envelope for a graph snapshot. It is the
// shared implementation every Store.ExportJSON delegates to, so the wire
// format cannot drift between storage back-ends.
func Encode(cfg ExportConfig, nodes []Node, edges []Edge) ([]byte, error) {
	env := envelope{
		Version: SchemaVersion,
		Config: envelopeConfig{
			Name:        cfg.Name,
			RootPath:    cfg.RootPath,
			Description: cfg.Description,
		},
		Nodes: nodes,
		Edges: edges,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, rpgerr.NewStoreError("ExportJSON", err)
	}
	return data, nil
}

// Decode parses the stable JSON envelope back into its constituent parts.
func Decode(payload []byte) (ExportConfig, []Node, []Edge, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return ExportConfig{}, nil, nil, rpgerr.NewStoreError("ImportJSON", err)
	}
	if env.Version == "" {
		return ExportConfig{}, nil, nil, rpgerr.NewStoreError("ImportJSON", fmt.Errorf("missing version tag"))
	}
	cfg := ExportConfig{Name: env.Config.Name, RootPath: env.Config.RootPath, Description: env.Config.Description}
	return cfg, env.Nodes, env.Edges, nil
}

// ExportJSON serializes the graph to the stable envelope.
func (s *MemoryStore) ExportJSON(ctx context.Context, cfg ExportConfig) ([]byte, error) {
	nodes, err := allNodes(ctx, s)
	if err != nil {
		return nil, err
	}
	edges, err := s.ListEdges(ctx)
	if err != nil {
		return nil, rpgerr.NewStoreError("ExportJSON", err)
	}
	return Encode(cfg, nodes, edges)
}

// ImportJSON replaces the store's contents with the decoded payload.
// Nodes are inserted before edges so edge endpoint validation succeeds;
// within each group, insertion order follows the payload order (which
// Encode produces in ID-ascending order, keeping imports deterministic).
func (s *MemoryStore) ImportJSON(ctx context.Context, payload []byte) error {
	_, nodes, edges, err := Decode(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.nodes = make(map[string]Node)
	s.edges = make(map[EdgeKey]Edge)
	s.out = make(map[string][]EdgeKey)
	s.in = make(map[string][]EdgeKey)
	s.parent = make(map[string]string)
	s.mu.Unlock()

	for _, n := range nodes {
		if err := s.AddNode(ctx, n); err != nil {
			return err
		}
	}
	for _, e := range edges {
		if err := s.AddEdge(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func allNodes(ctx context.Context, s Store) ([]Node, error) {
	high, err := s.ListNodes(ctx, NodeHighLevel)
	if err != nil {
		return nil, err
	}
	low, err := s.ListNodes(ctx, NodeLowLevel)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(high)+len(low))
	out = append(out, high...)
	out = append(out, low...)
	return out, nil
}
