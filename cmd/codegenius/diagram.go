package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/codegenius/internal/export"
)

func newDiagramCmd(g *globalFlags) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "diagram [path]",
		Short: "Print one Mermaid diagram of a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagram(cmd, g, export.DiagramKind(strings.ToLower(kind)), args)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", string(export.DiagramClass), "diagram kind: class, calls or architecture")
	return cmd
}

func runDiagram(cmd *cobra.Command, g *globalFlags, kind export.DiagramKind, args []string) error {
	if !validKind(kind) {
		return fmt.Errorf("unknown diagram kind %q", kind)
	}
	root, err := repoRoot(args)
	if err != nil {
		return err
	}
	report, _, err := analyzeRepo(cmd, g, root)
	if err != nil {
		return err
	}

	text, err := export.Render(kind, report.Graph, report.Tree)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), text)
	return err
}

func validKind(kind export.DiagramKind) bool {
	for _, k := range export.DiagramKinds {
		if k == kind {
			return true
		}
	}
	return false
}
