package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rpg/internal/config"
	"rpg/internal/graph"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .rpg/config.json and an empty canonical graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := repoRoot()
		if err != nil {
			return err
		}
		return runInit(root)
	},
}

func runInit(root string) error {
	if err := os.MkdirAll(rpgDir(root), 0o755); err != nil {
		return fmt.Errorf("rpg init: create .rpg: %w", err)
	}

	cfgPath := config.Path(root)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig(filepath.Base(root), root)
		if err := cfg.Save(cfgPath); err != nil {
			return fmt.Errorf("rpg init: write config: %w", err)
		}
	}

	graphPath := canonicalGraphPath(root)
	if _, err := os.Stat(graphPath); os.IsNotExist(err) {
		store := graph.NewMemoryStore()
		data, err := store.ExportJSON(context.Background(), graph.ExportConfig{Name: filepath.Base(root), RootPath: root})
		if err != nil {
			return fmt.Errorf("rpg init: build empty graph: %w", err)
		}
		if err := os.WriteFile(graphPath, data, 0o644); err != nil {
			return fmt.Errorf("rpg init: write canonical graph: %w", err)
		}
	}

	if err := installHooks(root); err != nil {
		return err
	}
	if err := appendGitignore(root); err != nil {
		return err
	}
	return nil
}

// installHooks writes post-merge/post-checkout hooks that re-run `rpg
// sync`, without overwriting a hook a repository already has.
func installHooks(root string) error {
	hooksDir := filepath.Join(root, ".git", "hooks")
	if _, err := os.Stat(hooksDir); os.IsNotExist(err) {
		return nil // not a git repository; nothing to install
	}

	script := "#!/bin/sh\nrpg sync >/dev/null 2>&1 || true\n"
	for _, name := range []string{"post-merge", "post-checkout"} {
		path := filepath.Join(hooksDir, name)
		if _, err := os.Stat(path); err == nil {
			continue // never overwrite an existing hook
		}
		if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
			return fmt.Errorf("rpg init: write hook %s: %w", name, err)
		}
	}
	return nil
}

func appendGitignore(root string) error {
	path := filepath.Join(root, ".gitignore")
	const entry = ".rpg/local/"

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rpg init: read .gitignore: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == entry {
			return nil // already present
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("rpg init: open .gitignore: %w", err)
	}
	defer f.Close()
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return err
		}
	}
	_, err = f.WriteString(entry + "\n")
	return err
}
