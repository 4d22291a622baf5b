// Package sqlitestore is a durable graph.Store backed by
// github.com/mattn/go-sqlite3, following the conventions of internal/store
// (sql.Open("sqlite3", ...), single-writer PRAGMA tuning, write-through
// persistence) but narrowed to the RPG schema: two tables holding the
// same Node/Edge JSON payloads the in-memory store and the export
// envelope already share.
//
// Query logic (traversal, topological sort, search ranking) is not
// reimplemented here: every read delegates to an in-process
// graph.MemoryStore kept as a faithful mirror of the sqlite tables, loaded
// once at construction and updated on every write. This keeps the two
// Store implementations behaviorally identical by construction rather than
// by parallel maintenance.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"rpg/internal/graph"
	"rpg/internal/rpgerr"
	"rpg/internal/rpglog"
	"rpg/internal/semantic"
)

// Store is a durable graph.Store. It satisfies graph.ConcurrentStore.
type Store struct {
	mu    sync.Mutex
	db    *sql.DB
	cache *graph.MemoryStore
}

// Open creates or reopens the sqlite database at path, replaying its
// contents into an in-memory mirror used to serve reads.
func Open(path string) (*Store, error) {
	timer := rpglog.StartTimer(rpglog.CategoryGraph, "sqlitestore.Open")
	defer timer.Stop()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, rpgerr.NewStoreError("Open", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, rpgerr.NewStoreError("Open", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			rpglog.Get(rpglog.CategoryGraph).Warn("sqlitestore: %s failed: %v", pragma, err)
		}
	}

	s := &Store{db: db, cache: graph.NewMemoryStore()}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.loadIntoCache(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			node_type TEXT NOT NULL,
			payload_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			edge_type TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			PRIMARY KEY (source, target, edge_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return rpgerr.NewStoreError("initSchema", err)
		}
	}
	return nil
}

// loadIntoCache replays every persisted node and edge into the in-memory
// mirror. Nodes first, so edge endpoint validation succeeds.
func (s *Store) loadIntoCache() error {
	ctx := context.Background()
	rows, err := s.db.Query(`SELECT payload_json FROM nodes`)
	if err != nil {
		return rpgerr.NewStoreError("loadIntoCache", err)
	}
	var nodePayloads []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return rpgerr.NewStoreError("loadIntoCache", err)
		}
		nodePayloads = append(nodePayloads, p)
	}
	rows.Close()

	for _, p := range nodePayloads {
		n, err := decodeNode(p)
		if err != nil {
			return err
		}
		if err := s.cache.AddNode(ctx, n); err != nil {
			return err
		}
	}

	edgeRows, err := s.db.Query(`SELECT payload_json FROM edges`)
	if err != nil {
		return rpgerr.NewStoreError("loadIntoCache", err)
	}
	var edgePayloads []string
	for edgeRows.Next() {
		var p string
		if err := edgeRows.Scan(&p); err != nil {
			edgeRows.Close()
			return rpgerr.NewStoreError("loadIntoCache", err)
		}
		edgePayloads = append(edgePayloads, p)
	}
	edgeRows.Close()

	for _, p := range edgePayloads {
		e, err := decodeEdge(p)
		if err != nil {
			return err
		}
		if err := s.cache.AddEdge(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// ConcurrencySafe reports that Store's exported operations may be called
// concurrently; the internal mutex serializes access to the sqlite
// connection while the mirrored MemoryStore has its own locking.
func (s *Store) ConcurrencySafe() bool { return true }

func (s *Store) AddNode(ctx context.Context, n graph.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.AddNode(ctx, n); err != nil {
		return err
	}
	payload, err := encodeNode(n)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO nodes (id, node_type, payload_json) VALUES (?, ?, ?)`,
		n.ID, string(n.Type), payload); err != nil {
		return rpgerr.NewStoreError("AddNode", err)
	}
	return nil
}

func (s *Store) HasNode(ctx context.Context, id string) (bool, error) {
	return s.cache.HasNode(ctx, id)
}

func (s *Store) GetNode(ctx context.Context, id string) (graph.Node, bool, error) {
	return s.cache.GetNode(ctx, id)
}

func (s *Store) UpdateNode(ctx context.Context, n graph.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.UpdateNode(ctx, n); err != nil {
		return err
	}
	payload, err := encodeNode(n)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE nodes SET node_type = ?, payload_json = ? WHERE id = ?`,
		string(n.Type), payload, n.ID); err != nil {
		return rpgerr.NewStoreError("UpdateNode", err)
	}
	return nil
}

func (s *Store) RemoveNode(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, err := s.cache.RemoveNode(ctx, id)
	if err != nil {
		return 0, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
		return 0, rpgerr.NewStoreError("RemoveNode", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM edges WHERE source = ? OR target = ?`, id, id); err != nil {
		return 0, rpgerr.NewStoreError("RemoveNode", err)
	}
	return removed, nil
}

func (s *Store) AddEdge(ctx context.Context, e graph.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.AddEdge(ctx, e); err != nil {
		return err
	}
	payload, err := encodeEdge(e)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO edges (source, target, edge_type, payload_json) VALUES (?, ?, ?, ?)`,
		e.Source, e.Target, string(e.Type), payload); err != nil {
		return rpgerr.NewStoreError("AddEdge", err)
	}
	return nil
}

func (s *Store) GetOutEdges(ctx context.Context, id string, kind graph.EdgeKindFilter) ([]graph.Edge, error) {
	return s.cache.GetOutEdges(ctx, id, kind)
}

func (s *Store) GetInEdges(ctx context.Context, id string, kind graph.EdgeKindFilter) ([]graph.Edge, error) {
	return s.cache.GetInEdges(ctx, id, kind)
}

func (s *Store) GetChildren(ctx context.Context, id string) ([]string, error) {
	return s.cache.GetChildren(ctx, id)
}

func (s *Store) GetParent(ctx context.Context, id string) (string, bool, error) {
	return s.cache.GetParent(ctx, id)
}

func (s *Store) GetDependencies(ctx context.Context, id string) ([]graph.Edge, error) {
	return s.cache.GetDependencies(ctx, id)
}

func (s *Store) GetDependents(ctx context.Context, id string) ([]graph.Edge, error) {
	return s.cache.GetDependents(ctx, id)
}

func (s *Store) GetTopologicalOrder(ctx context.Context) ([]string, error) {
	return s.cache.GetTopologicalOrder(ctx)
}

// SearchByFeature prefilters with a SQL LIKE scan over the stored payload
// JSON before handing the (much smaller) candidate set to MemoryStore's
// token-overlap ranking, so a selective query never has to deserialize
// every row in the table.
func (s *Store) SearchByFeature(ctx context.Context, query string) ([]graph.SearchHit, error) {
	tokens := semantic.Tokenize(query)
	if len(tokens) == 0 {
		return s.cache.SearchByFeature(ctx, query)
	}

	clauses := make([]string, len(tokens))
	args := make([]interface{}, len(tokens))
	for i, t := range tokens {
		clauses[i] = "payload_json LIKE ?"
		args[i] = "%" + t + "%"
	}
	sqlQuery := "SELECT payload_json FROM nodes WHERE " + strings.Join(clauses, " OR ")

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, rpgerr.NewStoreError("SearchByFeature", err)
	}
	defer rows.Close()

	candidates := graph.NewMemoryStore()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, rpgerr.NewStoreError("SearchByFeature", err)
		}
		n, err := decodeNode(payload)
		if err != nil {
			return nil, err
		}
		if err := candidates.AddNode(ctx, n); err != nil {
			return nil, err
		}
	}
	return candidates.SearchByFeature(ctx, query)
}

func (s *Store) SearchByPath(ctx context.Context, glob string) ([]string, error) {
	return s.cache.SearchByPath(ctx, glob)
}

func (s *Store) ListNodes(ctx context.Context, nodeType graph.NodeType) ([]graph.Node, error) {
	return s.cache.ListNodes(ctx, nodeType)
}

func (s *Store) ListEdges(ctx context.Context) ([]graph.Edge, error) {
	return s.cache.ListEdges(ctx)
}

func (s *Store) GetStats(ctx context.Context) (graph.Stats, error) {
	return s.cache.GetStats(ctx)
}

func (s *Store) ExportJSON(ctx context.Context, cfg graph.ExportConfig) ([]byte, error) {
	return s.cache.ExportJSON(ctx, cfg)
}

// ImportJSON replaces both the sqlite tables and the in-memory mirror.
func (s *Store) ImportJSON(ctx context.Context, payload []byte) error {
	_, nodes, edges, err := graph.Decode(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpgerr.NewStoreError("ImportJSON", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM edges`); err != nil {
		tx.Rollback()
		return rpgerr.NewStoreError("ImportJSON", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
		tx.Rollback()
		return rpgerr.NewStoreError("ImportJSON", err)
	}

	fresh := graph.NewMemoryStore()
	for _, n := range nodes {
		if err := fresh.AddNode(ctx, n); err != nil {
			tx.Rollback()
			return err
		}
		payload, err := encodeNode(n)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO nodes (id, node_type, payload_json) VALUES (?, ?, ?)`,
			n.ID, string(n.Type), payload); err != nil {
			tx.Rollback()
			return rpgerr.NewStoreError("ImportJSON", err)
		}
	}
	for _, e := range edges {
		if err := fresh.AddEdge(ctx, e); err != nil {
			tx.Rollback()
			return err
		}
		payload, err := encodeEdge(e)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO edges (source, target, edge_type, payload_json) VALUES (?, ?, ?, ?)`,
			e.Source, e.Target, string(e.Type), payload); err != nil {
			tx.Rollback()
			return rpgerr.NewStoreError("ImportJSON", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return rpgerr.NewStoreError("ImportJSON", err)
	}
	s.cache = fresh
	return nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return rpgerr.NewStoreError("Close", err)
	}
	return nil
}

func encodeNode(n graph.Node) (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", rpgerr.NewStoreError("encodeNode", err)
	}
	return string(data), nil
}

func decodeNode(payload string) (graph.Node, error) {
	var n graph.Node
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return graph.Node{}, rpgerr.NewStoreError("decodeNode", err)
	}
	return n, nil
}

func encodeEdge(e graph.Edge) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", rpgerr.NewStoreError("encodeEdge", err)
	}
	return string(data), nil
}

func decodeEdge(payload string) (graph.Edge, error) {
	var e graph.Edge
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return graph.Edge{}, rpgerr.NewStoreError("decodeEdge", err)
	}
	return e, nil
}
