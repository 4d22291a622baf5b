package graph

import "context"

// EdgeKindFilter optionally narrows getOutEdges/getInEdges to one Edge
// variant; the zero value ("") means "no filter".
type EdgeKindFilter EdgeType

// Stats summarizes the size and shape of a graph.
type Stats struct {
	HighLevelNodes int
	LowLevelNodes  int
	FunctionalEdges int
	DependencyEdges int
}

// ExportConfig carries the envelope metadata recorded alongside the
// node/edge payload when a graph is serialized. See spec §6.
type ExportConfig struct {
	Name        string
	RootPath    string
	Description string
}

// SearchHit is a ranked result from searchByFeature.
type SearchHit struct {
	NodeID string
	Score  float64
}

// Store is the minimum durable persistence contract for an RPG. A
// reference in-memory implementation is MemoryStore; internal/graph/
// sqlitestore.Store is a durable alternative exercising the same
// interface, so the Evolver and Facade never depend on a concrete
// storage technology.
//
// Operations are atomic with respect to observable state: a failing
// addEdge leaves no partial mutation.
type Store interface {
	AddNode(ctx context.Context, n Node) error
	HasNode(ctx context.Context, id string) (bool, error)
	GetNode(ctx context.Context, id string) (Node, bool, error)
	UpdateNode(ctx context.Context, n Node) error
	// RemoveNode deletes n and cascades: every edge incident on n is
	// removed too. Removing a node that does not exist is a no-op that
	// reports zero removed edges, never an error — callers that need
	// "must exist" semantics check HasNode first (the Facade does this).
	RemoveNode(ctx context.Context, id string) (removedEdges int, err error)

	AddEdge(ctx context.Context, e Edge) error
	GetOutEdges(ctx context.Context, id string, kind EdgeKindFilter) ([]Edge, error)
	GetInEdges(ctx context.Context, id string, kind EdgeKindFilter) ([]Edge, error)
	GetChildren(ctx context.Context, id string) ([]string, error)
	GetParent(ctx context.Context, id string) (string, bool, error)
	GetDependencies(ctx context.Context, id string) ([]Edge, error)
	GetDependents(ctx context.Context, id string) ([]Edge, error)

	// GetTopologicalOrder returns node IDs such that for every
	// DependencyEdge u->v, v precedes u (dependencies first). Cycles are
	// tolerated: members of a cycle are grouped together in ID-ascending
	// order at the point Kahn's algorithm stalls.
	GetTopologicalOrder(ctx context.Context) ([]string, error)

	// SearchByFeature ranks nodes by best-effort overlap between query
	// and each node's description + keywords. Exact match is not
	// required.
	SearchByFeature(ctx context.Context, query string) ([]SearchHit, error)
	// SearchByPath returns node IDs whose StructuralMetadata.FilePath (or
	// DirectoryPath) matches the glob pattern.
	SearchByPath(ctx context.Context, glob string) ([]string, error)

	// ListNodes enumerates every node of the given type. Used by the
	// Semantic Router to evaluate candidate parents; not intended for
	// hot-path traversal.
	ListNodes(ctx context.Context, nodeType NodeType) ([]Node, error)
	// ListEdges enumerates every edge in the graph, for serialization.
	ListEdges(ctx context.Context) ([]Edge, error)

	GetStats(ctx context.Context) (Stats, error)

	ExportJSON(ctx context.Context, cfg ExportConfig) ([]byte, error)
	ImportJSON(ctx context.Context, payload []byte) error

	Close() error
}

// ConcurrentStore is an optional capability interface a Store
// implementation can satisfy to advertise that its operations are safe to
// call concurrently from multiple goroutines. MemoryStore and
// sqlitestore.Store both implement it; the Evolver does not consult it,
// and its Modify/Insert stages run serially.
type ConcurrentStore interface {
	Store
	ConcurrencySafe() bool
}
