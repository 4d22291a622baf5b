package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rpg/internal/config"
	"rpg/internal/diffparse"
	"rpg/internal/embedding"
	"rpg/internal/evolve"
	"rpg/internal/graph"
	"rpg/internal/rpglog"
	"rpg/internal/semantic"
	"rpg/internal/semantic/cache"
	llmdescriber "rpg/internal/semantic/describer"
	"rpg/internal/syntax"
	"rpg/internal/vcsprobe"
)

var forceSync bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the local graph against the current branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := repoRoot()
		if err != nil {
			return err
		}
		return runSync(context.Background(), root, forceSync)
	},
}

func init() {
	syncCmd.Flags().BoolVar(&forceSync, "force", false, "discard the local graph and recopy the canonical graph")
}

// runSync implements spec §6's sync summary: copy canonical -> local; if
// the current branch differs from the default and the canonical commit is
// known, run the Evolver over mergeBase(default, HEAD)..HEAD; on Evolver
// failure, fall back to the canonical copy already in place.
func runSync(ctx context.Context, root string, force bool) error {
	log := rpglog.Get(rpglog.CategoryCLI)

	canonicalData, err := os.ReadFile(canonicalGraphPath(root))
	if err != nil {
		return errMissingCanonicalGraph
	}

	if err := os.MkdirAll(localDir(root), 0o755); err != nil {
		return fmt.Errorf("rpg sync: create local dir: %w", err)
	}
	if err := os.WriteFile(localGraphPath(root), canonicalData, 0o644); err != nil {
		return fmt.Errorf("rpg sync: copy canonical graph: %w", err)
	}

	vcs := vcsprobe.NewGitProbe()
	head, err := vcs.HeadSha(ctx, root)
	if err != nil {
		return err // VcsError -> exit 2
	}
	branch, err := vcs.CurrentBranch(ctx, root)
	if err != nil {
		return err
	}
	defaultBranch, err := vcs.DefaultBranch(ctx, root)
	if err != nil {
		return err
	}

	prior, hasPrior := readLocalState(root)
	if err := writeLocalState(root, localState{BaseCommit: head, Branch: branch, LastSync: nowISO8601()}); err != nil {
		return err
	}

	if force || branch == defaultBranch || !hasPrior || prior.BaseCommit == "" {
		log.Info("sync: canonical copy only (branch=%s default=%s force=%v)", branch, defaultBranch, force)
		return nil
	}

	mergeBase, err := vcs.MergeBase(ctx, root, defaultBranch, "HEAD")
	if err != nil {
		return err
	}
	commitRange := mergeBase + ".." + head

	cfg, err := config.Load(config.Path(root))
	if err != nil {
		return err
	}

	if err := runEvolveOnLocalGraph(ctx, root, cfg, commitRange); err != nil {
		log.Warn("sync: evolver failed, falling back to canonical copy: %v", err)
		return os.WriteFile(localGraphPath(root), canonicalData, 0o644)
	}
	return nil
}

func runEvolveOnLocalGraph(ctx context.Context, root string, cfg *config.Config, commitRange string) error {
	log := rpglog.Get(rpglog.CategoryCLI)

	data, err := os.ReadFile(localGraphPath(root))
	if err != nil {
		return fmt.Errorf("rpg sync: read local graph: %w", err)
	}

	store := graph.NewMemoryStore()
	if err := store.ImportJSON(ctx, data); err != nil {
		return fmt.Errorf("rpg sync: import local graph: %w", err)
	}
	facade := graph.NewFacade(store)

	embedder, err := embedding.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return fmt.Errorf("rpg sync: construct embedder: %w", err)
	}
	if hc, ok := embedder.(embedding.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			log.Warn("sync: embedder health check failed, continuing: %v", err)
		}
	}
	semCache, err := cache.Load(root)
	if err != nil {
		return fmt.Errorf("rpg sync: load semantic cache: %w", err)
	}

	vcs := vcsprobe.NewGitProbe()
	parser := diffparse.NewParser(vcs, syntax.NewProbe())
	describer := newDescriberFor(ctx, cfg, log)
	evolver := evolve.NewEvolver(facade, parser, describer, embedder, semCache)

	result, err := evolver.Run(ctx, evolve.Options{
		RepoPath:       root,
		CommitRange:    commitRange,
		DriftThreshold: cfg.DriftThreshold,
		UseLLM:         cfg.UseLLM,
	})
	if err != nil {
		return err
	}
	rpglog.Get(rpglog.CategoryCLI).Info(
		"sync: run=%s inserted=%d deleted=%d modified=%d rerouted=%d pruned=%d",
		result.RunID, result.Inserted, result.Deleted, result.Modified, result.Rerouted, result.PrunedNodes)

	out, err := store.ExportJSON(ctx, graph.ExportConfig{Name: cfg.Name, RootPath: cfg.RootPath, Description: cfg.Description})
	if err != nil {
		return fmt.Errorf("rpg sync: export local graph: %w", err)
	}
	return os.WriteFile(localGraphPath(root), out, 0o644)
}

// newDescriberFor constructs the genai-backed TemplateDescriber when the
// operator opted into cfg.UseLLM and an API key is available; otherwise it
// returns nil and the Evolver falls back to the heuristic describer (spec
// §7: Describer unavailability is non-fatal).
func newDescriberFor(ctx context.Context, cfg *config.Config, log *rpglog.Logger) semantic.Describer {
	if !cfg.UseLLM {
		return nil
	}
	apiKey := cfg.Embedding.GenAIAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		log.Warn("sync: use_llm is set but no GenAI API key is configured; falling back to the heuristic describer")
		return nil
	}
	d, err := llmdescriber.NewTemplateDescriber(ctx, apiKey, cfg.DescriberModel)
	if err != nil {
		log.Warn("sync: describer unavailable, falling back to heuristic: %v", err)
		return nil
	}
	return d
}
