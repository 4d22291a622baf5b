package semantic

import (
	"context"
	"sort"
	"strings"

	"rpg/internal/embedding"
	"rpg/internal/graph"
	"rpg/internal/rpglog"
)

const topK = 5

// Router finds the best parent HighLevelNode for a new low-level entity's
// description, per spec §4.5. Embedder and Describer are both optional:
// with neither configured, ranking falls back to token-set Jaccard and the
// top-ranked candidate is returned without arbitration.
type Router struct {
	embedder Embedder
	arbiter  Describer
	llmCalls int
}

// Embedder is re-exported here (rather than imported directly at call
// sites) so router.go has one seam to mock in tests without reaching into
// internal/embedding.
type Embedder = embedding.Embedder

// NewRouter constructs a Router. Either argument may be nil.
func NewRouter(embedder Embedder, arbiter Describer) *Router {
	return &Router{embedder: embedder, arbiter: arbiter}
}

// LLMCalls reports how many times the arbiter was invoked, for Evolver
// statistics.
func (r *Router) LLMCalls() int { return r.llmCalls }

// candidate is one ranked parent.
type candidate struct {
	id    string
	score float64
}

// FindBestParent ranks every HighLevelNode in the graph against the new
// entity's description and returns the chosen parent ID, or "" if the
// graph has no HighLevelNode.
func (r *Router) FindBestParent(ctx context.Context, g *graph.Facade, description string) (string, error) {
	timer := rpglog.StartTimer(rpglog.CategorySemantic, "Router.FindBestParent")
	defer timer.Stop()

	parents, err := g.AllHighLevelNodes(ctx)
	if err != nil {
		return "", err
	}
	if len(parents) == 0 {
		return "", nil
	}

	ranked := r.rank(ctx, description, parents)
	if len(ranked) == 0 {
		return "", nil
	}
	top := topCandidates(ranked, topK)

	if r.arbiter != nil {
		if chosen := r.askArbiter(ctx, description, parents, top); chosen != "" {
			return chosen, nil
		}
	}
	return top[0].id, nil
}

func (r *Router) rank(ctx context.Context, description string, parents []graph.Node) []candidate {
	if r.embedder != nil {
		if out := r.rankByEmbedding(ctx, description, parents); out != nil {
			return out
		}
	}

	out := make([]candidate, 0, len(parents))
	queryTokens := tokenSet(description)
	for _, p := range parents {
		out = append(out, candidate{id: p.ID, score: jaccard(queryTokens, tokenSet(p.Feature.Description))})
	}
	return out
}

// rankByEmbedding embeds every candidate parent and delegates the top-K
// selection to embedding.FindTopK, returning nil (never an empty non-nil
// slice) so the caller can fall back to token Jaccard.
func (r *Router) rankByEmbedding(ctx context.Context, description string, parents []graph.Node) []candidate {
	queryVec, err := r.embedder.Embed(ctx, description)
	if err != nil {
		return nil
	}

	ids := make([]string, 0, len(parents))
	vecs := make([][]float32, 0, len(parents))
	for _, p := range parents {
		vec, err := r.embedder.Embed(ctx, p.Feature.Description)
		if err != nil {
			continue
		}
		ids = append(ids, p.ID)
		vecs = append(vecs, vec)
	}
	if len(vecs) == 0 {
		return nil
	}

	ranked := embedding.FindTopK(queryVec, vecs, topK)
	out := make([]candidate, 0, len(ranked))
	for _, hit := range ranked {
		out = append(out, candidate{id: ids[hit.Index], score: hit.Similarity})
	}
	return out
}

// topCandidates sorts by descending score, breaking ties by ascending ID
// (spec §4.5 "Ordering"), and returns at most k.
func topCandidates(cands []candidate, k int) []candidate {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].id < cands[j].id
	})
	if len(cands) > k {
		cands = cands[:k]
	}
	return cands
}

// askArbiter sends the new entity's description plus the top-K parent
// descriptions to the Describer acting as an arbiter and accepts its
// choice only if it names one of the top-K IDs.
func (r *Router) askArbiter(ctx context.Context, description string, parents []graph.Node, top []candidate) string {
	byID := make(map[string]graph.Node, len(parents))
	for _, p := range parents {
		byID[p.ID] = p
	}

	var b strings.Builder
	b.WriteString("Choose the best-fitting parent for this description:\n")
	b.WriteString(description)
	b.WriteString("\nCandidates:\n")
	for _, c := range top {
		b.WriteString(c.id)
		b.WriteString(": ")
		b.WriteString(byID[c.id].Feature.Description)
		b.WriteString("\n")
	}

	r.llmCalls++
	out, err := r.arbiter.Describe(ctx, DescribeInput{Kind: "router", Name: "arbitration", FilePath: "", SourceSnippet: b.String()})
	if err != nil {
		return ""
	}
	chosen := strings.TrimSpace(out.Description)
	for _, c := range top {
		if c.id == chosen {
			return chosen
		}
	}
	return ""
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
