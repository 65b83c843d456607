//go:build cgo

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/codegenius/internal/graph"
)

func init() {
	extraCommands = append(extraCommands, newPersistCmd)
}

func newPersistCmd(g *globalFlags) *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "persist [path]",
		Short: "Analyze a repository and store its code graph in KuzuDB",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := repoRoot(args)
			if err != nil {
				return err
			}
			report, cfg, err := analyzeRepo(cmd, g, root)
			if err != nil {
				return err
			}

			path := db
			if path == "" {
				path = filepath.Join(cfg.OutputDir, "graph")
				if !filepath.IsAbs(path) {
					path = filepath.Join(root, path)
				}
			}
			// Remove old graph to avoid stale data.
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("remove old graph: %w", err)
			}

			store, err := graph.NewKuzuFileStore(path)
			if err != nil {
				return fmt.Errorf("open graph: %w", err)
			}
			defer store.Close()

			if err := graph.Persist(cmd.Context(), store, report.Graph); err != nil {
				return err
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Graph stored at %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "  Files:     %d\n", stats.FileCount)
			fmt.Fprintf(cmd.OutOrStdout(), "  Functions: %d\n", stats.FunctionCount)
			fmt.Fprintf(cmd.OutOrStdout(), "  Classes:   %d\n", stats.ClassCount)
			fmt.Fprintf(cmd.OutOrStdout(), "  Imports:   %d\n", stats.ImportCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "KuzuDB directory (default: <outputDir>/graph)")
	return cmd
}
