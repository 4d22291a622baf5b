package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"rpg/internal/rpglog"
)

// watchDebounce absorbs the burst of fsnotify events a single `git commit`
// or `git checkout` produces (HEAD plus one or more ref files).
const watchDebounce = 300 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch .git for commits and checkouts and run sync automatically",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := repoRoot()
		if err != nil {
			return err
		}
		return runWatch(cmd.Context(), root)
	},
}

// runWatch installs an fsnotify watch on .git/HEAD and .git/refs/heads,
// the two paths that change on every commit, merge, and checkout, and
// debounces the resulting event bursts into a single `rpg sync` per
// settled change. It blocks until ctx is cancelled.
func runWatch(ctx context.Context, root string) error {
	log := rpglog.Get(rpglog.CategoryCLI)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	gitDir := filepath.Join(root, ".git")
	if err := watcher.Add(filepath.Join(gitDir, "HEAD")); err != nil {
		log.Warn("watch: HEAD not watchable: %v", err)
	}
	refsDir := filepath.Join(gitDir, "refs", "heads")
	if err := watcher.Add(refsDir); err != nil {
		log.Warn("watch: refs/heads not watchable: %v", err)
	}

	log.Info("watch: monitoring %s for commits and checkouts", gitDir)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case _, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !pending {
				pending = true
				timer.Reset(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch: fsnotify error: %v", err)

		case <-timer.C:
			pending = false
			if err := runSync(ctx, root, false); err != nil {
				log.Warn("watch: sync failed: %v", err)
			} else {
				log.Info("watch: sync complete")
			}
		}
	}
}
