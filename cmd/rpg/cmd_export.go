package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the local (or canonical) graph as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := repoRoot()
		if err != nil {
			return err
		}
		return runExport(context.Background(), root, exportOut)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to this file instead of stdout")
}

func runExport(ctx context.Context, root, out string) error {
	path := localGraphPath(root)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		path = canonicalGraphPath(root)
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return errMissingCanonicalGraph
	}

	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}
