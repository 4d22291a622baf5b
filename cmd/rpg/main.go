// Command rpg is the thin operator CLI over the RPG library packages,
// following the conventions of cmd/nerd (cobra root command, persistent
// --workspace/--verbose flags, zap for CLI-facing logs, internal
// category-logger initialization in PersistentPreRunE) but reduced to the
// operations spec §6 names (init, sync, status, export) plus a watch
// mode that runs sync automatically on commits and checkouts.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rpg/internal/config"
	"rpg/internal/rpgerr"
	"rpg/internal/rpglog"
)

var (
	verbose   bool
	workspace string
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rpg",
	Short: "Repository Planning Graph operator CLI",
	Long: `rpg maintains a Repository Planning Graph for a repository: a
hierarchical map of its architecture plus the low-level entities that
implement it, kept in sync with the repository's commit history.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("rpg: initialize logger: %w", err)
		}

		root, err := repoRoot()
		if err != nil {
			return err
		}
		debug := verbose
		if rc, err := config.Load(config.Path(root)); err == nil && rc.DebugMode {
			debug = true
		}
		if err := rpglog.Initialize(root, debug, ""); err != nil {
			fmt.Fprintf(os.Stderr, "rpg: warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		rpglog.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "repository root (default: current directory)")

	rootCmd.AddCommand(initCmd, syncCmd, statusCmd, exportCmd, watchCmd)
}

func repoRoot() (string, error) {
	if workspace != "" {
		abs, err := filepath.Abs(workspace)
		if err != nil {
			return "", fmt.Errorf("rpg: resolve workspace: %w", err)
		}
		return abs, nil
	}
	return os.Getwd()
}

func main() {
	err := rootCmd.Execute()
	os.Exit(exitCode(err))
}

// exitCode implements spec §6's operator CLI exit-code contract: 0 on
// success, 1 on missing canonical graph, 2 on VCS failure.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var vcsErr *rpgerr.VcsError
	if errors.As(err, &vcsErr) {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if errors.Is(err, errMissingCanonicalGraph) {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}
