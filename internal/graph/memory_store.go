package graph

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"rpg/internal/rpgerr"
	"rpg/internal/rpglog"
)

// MemoryStore is the canonical in-process reference implementation of
// Store: nodes and edges held in maps behind a sync.RWMutex, with
// adjacency indexes maintained incrementally so getChildren/getParent/
// getDependencies/getDependents are O(degree) rather than O(edges).
type MemoryStore struct {
	mu sync.RWMutex

	nodes map[string]Node
	// edges holds every edge, keyed by its EdgeKey for O(1) duplicate
	// detection.
	edges map[EdgeKey]Edge

	// out/in index edges by source/target for fast traversal.
	out map[string][]EdgeKey
	in  map[string][]EdgeKey

	// parent indexes the single FunctionalEdge targeting a node, if any.
	parent map[string]string
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:  make(map[string]Node),
		edges:  make(map[EdgeKey]Edge),
		out:    make(map[string][]EdgeKey),
		in:     make(map[string][]EdgeKey),
		parent: make(map[string]string),
	}
}

// ConcurrencySafe reports that MemoryStore's exported operations may be
// called concurrently (they are guarded by an internal mutex).
func (s *MemoryStore) ConcurrencySafe() bool { return true }

func (s *MemoryStore) AddNode(ctx context.Context, n Node) error {
	if err := n.Validate(); err != nil {
		return rpgerr.NewGraphInvariantError("AddNode", n.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[n.ID]; exists {
		return rpgerr.NewGraphInvariantError("AddNode", n.ID, fmt.Errorf("duplicate node ID"))
	}
	s.nodes[n.ID] = n
	rpglog.Get(rpglog.CategoryGraph).Debug("AddNode %s (%s)", n.ID, n.Type)
	return nil
}

func (s *MemoryStore) HasNode(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok, nil
}

func (s *MemoryStore) GetNode(ctx context.Context, id string) (Node, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok, nil
}

func (s *MemoryStore) UpdateNode(ctx context.Context, n Node) error {
	if err := n.Validate(); err != nil {
		return rpgerr.NewGraphInvariantError("UpdateNode", n.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[n.ID]; !exists {
		return rpgerr.NewGraphInvariantError("UpdateNode", n.ID, fmt.Errorf("node does not exist"))
	}
	s.nodes[n.ID] = n
	return nil
}

func (s *MemoryStore) RemoveNode(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[id]; !exists {
		return 0, nil
	}
	delete(s.nodes, id)

	removed := 0
	for _, key := range append(append([]EdgeKey{}, s.out[id]...), s.in[id]...) {
		if _, ok := s.edges[key]; ok {
			s.removeEdgeLocked(key)
			removed++
		}
	}
	delete(s.out, id)
	delete(s.in, id)
	delete(s.parent, id)
	rpglog.Get(rpglog.CategoryGraph).Debug("RemoveNode %s cascaded %d edges", id, removed)
	return removed, nil
}

// removeEdgeLocked removes a single edge from all indexes. Caller must
// hold s.mu for writing.
func (s *MemoryStore) removeEdgeLocked(key EdgeKey) {
	delete(s.edges, key)
	s.out[key.Source] = removeKey(s.out[key.Source], key)
	s.in[key.Target] = removeKey(s.in[key.Target], key)
	if key.Type == EdgeFunctional {
		if p, ok := s.parent[key.Target]; ok && p == key.Source {
			delete(s.parent, key.Target)
		}
	}
}

func removeKey(keys []EdgeKey, victim EdgeKey) []EdgeKey {
	out := keys[:0]
	for _, k := range keys {
		if k != victim {
			out = append(out, k)
		}
	}
	return out
}

func (s *MemoryStore) AddEdge(ctx context.Context, e Edge) error {
	if err := e.Validate(); err != nil {
		return rpgerr.NewGraphInvariantError("AddEdge", "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[e.Source]; !ok {
		return rpgerr.NewGraphInvariantError("AddEdge", e.Source, fmt.Errorf("source node does not exist"))
	}
	if _, ok := s.nodes[e.Target]; !ok {
		return rpgerr.NewGraphInvariantError("AddEdge", e.Target, fmt.Errorf("target node does not exist"))
	}
	key := e.Key()
	if _, exists := s.edges[key]; exists {
		return rpgerr.NewGraphInvariantError("AddEdge", "", fmt.Errorf("duplicate edge %s->%s", e.Source, e.Target))
	}
	if e.Type == EdgeFunctional {
		if _, hasParent := s.parent[e.Target]; hasParent {
			return rpgerr.NewGraphInvariantError("AddEdge", e.Target, fmt.Errorf("node already has a parent"))
		}
		if s.wouldCycleLocked(e.Source, e.Target) {
			return rpgerr.NewGraphInvariantError("AddEdge", e.Target, fmt.Errorf("functional edge would create a cycle"))
		}
	}

	s.edges[key] = e
	s.out[e.Source] = append(s.out[e.Source], key)
	s.in[e.Target] = append(s.in[e.Target], key)
	if e.Type == EdgeFunctional {
		s.parent[e.Target] = e.Source
	}
	return nil
}

// wouldCycleLocked reports whether adding parent->child would make child
// an ancestor of parent, which would make the functional subgraph
// non-acyclic. Caller must hold s.mu.
func (s *MemoryStore) wouldCycleLocked(parent, child string) bool {
	cur := parent
	seen := map[string]bool{}
	for {
		if cur == child {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		p, ok := s.parent[cur]
		if !ok {
			return false
		}
		cur = p
	}
}

func (s *MemoryStore) edgesFromKeys(keys []EdgeKey, kind EdgeKindFilter) []Edge {
	out := make([]Edge, 0, len(keys))
	for _, k := range keys {
		e, ok := s.edges[k]
		if !ok {
			continue
		}
		if kind != "" && EdgeKindFilter(e.Type) != kind {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

func (s *MemoryStore) GetOutEdges(ctx context.Context, id string, kind EdgeKindFilter) ([]Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgesFromKeys(s.out[id], kind), nil
}

func (s *MemoryStore) GetInEdges(ctx context.Context, id string, kind EdgeKindFilter) ([]Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgesFromKeys(s.in[id], kind), nil
}

func (s *MemoryStore) GetChildren(ctx context.Context, id string) ([]string, error) {
	edges, _ := s.GetOutEdges(ctx, id, EdgeKindFilter(EdgeFunctional))
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Target)
	}
	return out, nil
}

func (s *MemoryStore) GetParent(ctx context.Context, id string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parent[id]
	return p, ok, nil
}

func (s *MemoryStore) GetDependencies(ctx context.Context, id string) ([]Edge, error) {
	return s.GetOutEdges(ctx, id, EdgeKindFilter(EdgeDependency))
}

func (s *MemoryStore) GetDependents(ctx context.Context, id string) ([]Edge, error) {
	return s.GetInEdges(ctx, id, EdgeKindFilter(EdgeDependency))
}

// GetTopologicalOrder returns node IDs such that for every DependencyEdge
// u->v, v precedes u. It is a Kahn's-algorithm variant over the
// dependency subgraph only (functional edges do not participate):
// repeatedly remove a zero-in-degree node (ties broken by ascending ID),
// then append whatever remains (cycle members) in ascending ID order.
func (s *MemoryStore) GetTopologicalOrder(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inDegree := make(map[string]int, len(s.nodes))
	adjOut := make(map[string][]string, len(s.nodes))
	for id := range s.nodes {
		inDegree[id] = 0
	}
	for _, e := range s.edges {
		if e.Type != EdgeDependency {
			continue
		}
		// u->v means v must precede u, i.e. u depends on v. Kahn's
		// algorithm peels zero-in-degree nodes first; we want v first,
		// so we treat the edge as v -> u for in-degree purposes: u has
		// an incoming requirement from v.
		adjOut[e.Target] = append(adjOut[e.Target], e.Source)
		inDegree[e.Source]++
	}

	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var order []string
	visited := make(map[string]bool, len(s.nodes))
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)

		next := append([]string{}, adjOut[id]...)
		sort.Strings(next)
		for _, nxt := range next {
			inDegree[nxt]--
			if inDegree[nxt] == 0 && !visited[nxt] {
				ready = append(ready, nxt)
			}
		}
	}

	if len(order) < len(s.nodes) {
		var remaining []string
		for id := range s.nodes {
			if !visited[id] {
				remaining = append(remaining, id)
			}
		}
		sort.Strings(remaining)
		order = append(order, remaining...)
	}
	return order, nil
}

// SearchByFeature ranks nodes by token overlap between query and each
// node's description + keywords. This is a best-effort heuristic, not an
// exact-match search, per spec §4.2.
func (s *MemoryStore) SearchByFeature(ctx context.Context, query string) ([]SearchHit, error) {
	qTokens := tokenize(query)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []SearchHit
	for id, n := range s.nodes {
		tokens := tokenize(n.Feature.Description)
		tokens = append(tokens, n.Feature.Keywords...)
		score := jaccard(qTokens, tokens)
		if score > 0 {
			hits = append(hits, SearchHit{NodeID: id, Score: score})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].NodeID < hits[j].NodeID
	})
	return hits, nil
}

// SearchByPath returns node IDs whose file or directory path matches the
// glob pattern.
func (s *MemoryStore) SearchByPath(ctx context.Context, glob string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for id, n := range s.nodes {
		var candidate string
		if n.Type == NodeLowLevel && n.Metadata != nil {
			candidate = n.Metadata.FilePath
		} else {
			candidate = n.DirectoryPath
		}
		if candidate == "" {
			continue
		}
		if ok, err := path.Match(glob, candidate); err == nil && ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ListNodes enumerates every node of the given type, sorted by ID for
// deterministic iteration.
func (s *MemoryStore) ListNodes(ctx context.Context, nodeType NodeType) ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Node
	for _, n := range s.nodes {
		if n.Type == nodeType {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListEdges enumerates every edge, sorted by (source, target, type) for
// deterministic serialization.
func (s *MemoryStore) ListEdges(ctx context.Context) ([]Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		return out[i].DependencyType < out[j].DependencyType
	})
	return out, nil
}

func (s *MemoryStore) GetStats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st Stats
	for _, n := range s.nodes {
		if n.Type == NodeHighLevel {
			st.HighLevelNodes++
		} else {
			st.LowLevelNodes++
		}
	}
	for _, e := range s.edges {
		if e.Type == EdgeFunctional {
			st.FunctionalEdges++
		} else {
			st.DependencyEdges++
		}
	}
	return st, nil
}

func (s *MemoryStore) Close() error { return nil }

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return fields
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := map[string]bool{}
	for _, t := range a {
		setA[t] = true
	}
	setB := map[string]bool{}
	for _, t := range b {
		setB[t] = true
	}
	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
