package evolve

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"rpg/internal/diffparse"
	"rpg/internal/embedding"
	"rpg/internal/graph"
	"rpg/internal/ids"
	"rpg/internal/rpgerr"
	"rpg/internal/rpglog"
	"rpg/internal/semantic"
	"rpg/internal/semantic/cache"
)

// relativeImportExtensions is the fixed probe list for resolving a
// relative import spec against the graph, per spec §4.7 step 3.
var relativeImportExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".py", ""}

// Evolver orchestrates one delete -> modify -> insert pass over an RPG,
// per spec §4.7.
type Evolver struct {
	graph     *graph.Facade
	diffs     *diffparse.Parser
	describer semantic.Describer
	embedder  embedding.Embedder
	router    *semantic.Router
	cache     *cache.Cache
}

// NewEvolver constructs an Evolver. describer and embedder may be nil;
// cache may be nil, in which case extraction results are never persisted.
func NewEvolver(g *graph.Facade, diffs *diffparse.Parser, describer semantic.Describer, embedder embedding.Embedder, semanticCache *cache.Cache) *Evolver {
	return &Evolver{
		graph:     g,
		diffs:     diffs,
		describer: describer,
		embedder:  embedder,
		router:    semantic.NewRouter(embedder, describer),
		cache:     semanticCache,
	}
}

// Run executes one evolution pass for opts.CommitRange against opts.RepoPath.
func (e *Evolver) Run(ctx context.Context, opts Options) (Result, error) {
	opts = opts.WithDefaults()
	start := time.Now()
	log := rpglog.Get(rpglog.CategoryEvolve)

	diff, err := e.diffs.Parse(ctx, opts.RepoPath, opts.CommitRange)
	if err != nil {
		return Result{}, err
	}

	result := Result{RunID: uuid.New()}

	if err := e.runDeletions(ctx, diff.Deletions, &result, log); err != nil {
		return result, err
	}
	if err := e.runModifications(ctx, diff.Modifications, opts, &result, log); err != nil {
		return result, err
	}
	if err := e.runInsertions(ctx, diff.Insertions, opts, &result, log); err != nil {
		return result, err
	}

	if e.cache != nil {
		if err := e.cache.Flush(); err != nil {
			log.Warn("cache flush failed: %v", err)
		}
	}

	result.LLMCalls = e.router.LLMCalls()
	result.DurationMS = time.Since(start).Milliseconds()
	return result, nil
}

// runDeletions is schedule stage 1 (spec §4.7): for each deleted entity,
// remove it idempotently and prune orphaned ancestors.
func (e *Evolver) runDeletions(ctx context.Context, deletions []diffparse.ChangedEntity, result *Result, log *rpglog.Logger) error {
	sortChangedEntities(deletions)
	for _, ent := range deletions {
		exists, err := e.graph.Store().HasNode(ctx, ent.ID)
		if err != nil {
			return rpgerr.NewStoreError("HasNode", err)
		}
		if !exists {
			continue // absent ID: zero-prune, proceed
		}

		parentID, hasParent, err := e.graph.Parent(ctx, ent.ID)
		if err != nil {
			log.Warn("deletion: lookup parent of %s failed: %v", ent.ID, err)
			continue
		}

		if _, err := e.graph.RemoveNode(ctx, ent.ID); err != nil {
			log.Warn("deletion: remove %s failed: %v", ent.ID, err)
			continue
		}
		result.Deleted++

		if hasParent {
			pruned, err := e.pruneOrphans(ctx, parentID)
			if err != nil {
				log.Warn("deletion: orphan prune from %s failed: %v", parentID, err)
				continue
			}
			result.PrunedNodes += pruned
		}
	}
	return nil
}

// pruneOrphans walks upward from startID, removing any HighLevelNode
// ancestor left with no children, a parentless root included, and stops
// at the first node that still has children.
func (e *Evolver) pruneOrphans(ctx context.Context, startID string) (int, error) {
	pruned := 0
	current := startID
	for current != "" {
		children, err := e.graph.Children(ctx, current)
		if err != nil {
			return pruned, rpgerr.NewStoreError("GetChildren", err)
		}
		if len(children) > 0 {
			break
		}

		parentID, hasParent, err := e.graph.Parent(ctx, current)
		if err != nil {
			return pruned, rpgerr.NewStoreError("GetParent", err)
		}

		if _, err := e.graph.RemoveNode(ctx, current); err != nil {
			return pruned, rpgerr.NewStoreError("RemoveNode", err)
		}
		pruned++
		current = ""
		if hasParent {
			current = parentID
		}
	}
	return pruned, nil
}

// runModifications is schedule stage 2.
func (e *Evolver) runModifications(ctx context.Context, mods []diffparse.ModifiedPair, opts Options, result *Result, log *rpglog.Logger) error {
	sort.Slice(mods, func(i, j int) bool { return mods[i].New.ID < mods[j].New.ID })

	for _, pair := range mods {
		existing, found, err := e.locateModifiedNode(ctx, pair.Old)
		if err != nil {
			log.Warn("modification: locate %s failed: %v", pair.Old.ID, err)
			continue
		}
		if !found {
			// Treat as an insertion (spec §4.7 step 2a).
			if err := e.insertOne(ctx, pair.New, opts, result, log); err != nil {
				log.Warn("modification: fallback insert of %s failed: %v", pair.New.ID, err)
			}
			continue
		}

		newFeature, err := e.extractFeature(ctx, pair.New, opts)
		if err != nil {
			log.Warn("modification: extract feature for %s failed: %v", pair.New.ID, err)
			continue
		}

		drift := e.computeDrift(ctx, existing.Feature, newFeature)

		if drift > opts.DriftThreshold {
			parentID, hasParent, err := e.graph.Parent(ctx, existing.ID)
			if err != nil {
				log.Warn("modification: lookup parent of %s failed: %v", existing.ID, err)
				continue
			}
			if _, err := e.graph.RemoveNode(ctx, existing.ID); err != nil {
				log.Warn("modification: remove %s for reroute failed: %v", existing.ID, err)
				continue
			}
			if hasParent {
				pruned, err := e.pruneOrphans(ctx, parentID)
				if err != nil {
					log.Warn("modification: orphan prune from %s failed: %v", parentID, err)
				}
				result.PrunedNodes += pruned
			}
			if err := e.insertWithFeature(ctx, pair.New, newFeature, opts, result, log); err != nil {
				log.Warn("modification: reroute insert of %s failed: %v", pair.New.ID, err)
				continue
			}
			result.Rerouted++
			continue
		}

		metadata := changedEntityMetadata(pair.New)
		updated := existing
		updated.Feature = newFeature
		updated.Metadata = &metadata
		if opts.IncludeSource {
			updated.SourceText = pair.New.SourceCode
		}
		if err := e.graph.UpdateNode(ctx, updated); err != nil {
			log.Warn("modification: update %s failed: %v", existing.ID, err)
			continue
		}
		result.Modified++
	}
	return nil
}

// locateModifiedNode implements spec §4.7 step 2a: exact ID match first,
// then a prefix scan over low-level nodes tolerating a line-number suffix.
func (e *Evolver) locateModifiedNode(ctx context.Context, old diffparse.ChangedEntity) (graph.Node, bool, error) {
	n, ok, err := e.graph.GetNode(ctx, old.ID)
	if err != nil {
		return graph.Node{}, false, rpgerr.NewStoreError("GetNode", err)
	}
	if ok {
		return n, true, nil
	}

	prefix := ids.Prefix(old.FilePath, string(old.EntityType), old.EntityName)
	nodes, err := e.graph.Store().ListNodes(ctx, graph.NodeLowLevel)
	if err != nil {
		return graph.Node{}, false, rpgerr.NewStoreError("ListNodes", err)
	}
	for _, n := range nodes {
		if ids.SameEntity(n.ID, prefix) {
			return n, true, nil
		}
	}
	return graph.Node{}, false, nil
}

// computeDrift implements spec §4.7 step 2c.
func (e *Evolver) computeDrift(ctx context.Context, old, newFeature graph.SemanticFeature) float64 {
	if old.Description == "" {
		return 1.0
	}
	if e.embedder != nil {
		oldVec, errOld := e.embedder.Embed(ctx, old.Description)
		newVec, errNew := e.embedder.Embed(ctx, newFeature.Description)
		if errOld == nil && errNew == nil {
			sim, err := embedding.CosineSimilarity(oldVec, newVec)
			if err == nil {
				return 1 - sim
			}
		}
	}
	return 1 - keywordOrDescriptionJaccard(old, newFeature)
}

// keywordOrDescriptionJaccard implements the fallback drift formula of
// spec §4.7 step 2c: keyword-set Jaccard, falling back to description
// token Jaccard, falling back to a raw edit-distance similarity when the
// token sets share nothing (catches a reworded description that shares no
// whole tokens, e.g. a typo fix or a tense change).
func keywordOrDescriptionJaccard(old, newFeature graph.SemanticFeature) float64 {
	oldSet := toSet(old.Keywords)
	newSet := toSet(newFeature.Keywords)
	if len(oldSet) == 0 && len(newSet) == 0 {
		if sim := tokenJaccard(old.Description, newFeature.Description); sim > 0 {
			return sim
		}
		return textSimilarity(old.Description, newFeature.Description)
	}
	return setJaccard(oldSet, newSet)
}

// textSimilarity is a normalized Levenshtein similarity over two strings,
// via diffmatchpatch's edit-distance computation.
func textSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	dist := dmp.DiffLevenshtein(diffs)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func setJaccard(a, b map[string]struct{}) float64 {
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

func tokenJaccard(a, b string) float64 {
	return setJaccard(toSet(semantic.Tokenize(a)), toSet(semantic.Tokenize(b)))
}

// runInsertions is schedule stage 3.
func (e *Evolver) runInsertions(ctx context.Context, insertions []diffparse.ChangedEntity, opts Options, result *Result, log *rpglog.Logger) error {
	sortChangedEntities(insertions)
	for _, ent := range insertions {
		if err := e.insertOne(ctx, ent, opts, result, log); err != nil {
			log.Warn("insertion: %s failed: %v", ent.ID, err)
		}
	}
	return nil
}

func (e *Evolver) insertOne(ctx context.Context, ent diffparse.ChangedEntity, opts Options, result *Result, log *rpglog.Logger) error {
	feature, err := e.extractFeature(ctx, ent, opts)
	if err != nil {
		return err
	}
	return e.insertWithFeature(ctx, ent, feature, opts, result, log)
}

func (e *Evolver) insertWithFeature(ctx context.Context, ent diffparse.ChangedEntity, feature graph.SemanticFeature, opts Options, result *Result, log *rpglog.Logger) error {
	metadata := changedEntityMetadata(ent)

	sourceText := ""
	if opts.IncludeSource {
		sourceText = ent.SourceCode
	}

	node, err := e.graph.AddLowLevelNode(ctx, metadata, feature, sourceText, false)
	if err != nil {
		return err
	}
	result.Inserted++

	parentID, err := e.router.FindBestParent(ctx, e.graph, feature.Description)
	if err != nil {
		log.Warn("insertion: findBestParent for %s failed: %v", node.ID, err)
		parentID = ""
	}
	if parentID != "" {
		if err := e.graph.AddFunctionalEdge(ctx, parentID, node.ID, nil, nil); err != nil {
			log.Warn("insertion: add functional edge %s->%s failed: %v", parentID, node.ID, err)
		}
	}

	if ent.EntityType == graph.KindFile {
		if err := e.injectDependencyEdges(ctx, ent); err != nil {
			log.Warn("insertion: dependency injection for %s failed: %v", ent.FilePath, err)
		}
	}
	return nil
}

// injectDependencyEdges resolves a file-level entity's relative imports
// against the graph's existing file nodes, per spec §4.7 step 3.
func (e *Evolver) injectDependencyEdges(ctx context.Context, ent diffparse.ChangedEntity) error {
	for _, imp := range ent.Imports {
		resolved, ok := ids.ResolveImport(ent.FilePath, imp.Module, relativeImportExtensions)
		if !ok {
			continue
		}
		for _, candidate := range ids.Candidates(resolved, relativeImportExtensions) {
			targetID := candidate + ":file:" + candidate
			exists, err := e.graph.Store().HasNode(ctx, targetID)
			if err != nil {
				return rpgerr.NewStoreError("HasNode", err)
			}
			if !exists {
				continue
			}
			sourceID := ent.FilePath + ":file:" + ent.FilePath
			if sourceID == targetID {
				continue // self-edge, silently ignored
			}
			if err := e.graph.AddDependencyEdge(ctx, sourceID, targetID, graph.DepImport, nil, imp.Line); err != nil {
				continue // pre-existing edge or endpoint issue: silently ignored
			}
			break
		}
	}
	return nil
}

// extractFeature produces (and caches) a SemanticFeature for ent.
func (e *Evolver) extractFeature(ctx context.Context, ent diffparse.ChangedEntity, opts Options) (graph.SemanticFeature, error) {
	key := cache.Key(ent.EntityType, ent.EntityName, ent.FilePath, ent.SourceCode)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return cached, nil
		}
	}

	var describer semantic.Describer
	if opts.UseLLM {
		describer = e.describer
	}
	feature, err := semantic.Extract(ctx, semantic.DescribeInput{
		Kind:          ent.EntityType,
		Name:          ent.EntityName,
		FilePath:      ent.FilePath,
		SourceSnippet: ent.SourceCode,
	}, describer)
	if err != nil {
		return graph.SemanticFeature{}, rpgerr.NewModelError("Extract", err)
	}

	if e.cache != nil {
		e.cache.Put(key, feature)
	}
	return feature, nil
}

func changedEntityMetadata(ent diffparse.ChangedEntity) graph.StructuralMetadata {
	return graph.StructuralMetadata{
		FilePath:      ent.FilePath,
		Kind:          ent.EntityType,
		QualifiedName: ent.QualifiedName,
		StartLine:     ent.StartLine,
		EndLine:       ent.EndLine,
	}
}

func sortChangedEntities(entities []diffparse.ChangedEntity) {
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
}
