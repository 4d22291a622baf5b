package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rpg/internal/config"
	"rpg/internal/graph"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show graph size and sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := repoRoot()
		if err != nil {
			return err
		}
		return runStatus(context.Background(), root)
	},
}

func runStatus(ctx context.Context, root string) error {
	cfg, err := config.Load(config.Path(root))
	if err != nil {
		return err
	}

	path := localGraphPath(root)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		path = canonicalGraphPath(root)
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return errMissingCanonicalGraph
	}

	store := graph.NewMemoryStore()
	if err := store.ImportJSON(ctx, data); err != nil {
		return fmt.Errorf("rpg status: import graph: %w", err)
	}
	stats, err := store.GetStats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("name:             %s\n", cfg.Name)
	fmt.Printf("description:      %s\n", cfg.Description)
	fmt.Printf("graph:            %s\n", path)
	fmt.Printf("high-level nodes: %d\n", stats.HighLevelNodes)
	fmt.Printf("low-level nodes:  %d\n", stats.LowLevelNodes)
	fmt.Printf("functional edges: %d\n", stats.FunctionalEdges)
	fmt.Printf("dependency edges: %d\n", stats.DependencyEdges)

	if st, ok := readLocalState(root); ok {
		fmt.Printf("branch:           %s\n", st.Branch)
		fmt.Printf("base commit:      %s\n", st.BaseCommit)
		fmt.Printf("last sync:        %s\n", st.LastSync)
	}
	return nil
}
