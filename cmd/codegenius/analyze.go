package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/codegenius/internal/export"
	"github.com/dusk-indust/codegenius/internal/orchestrator"
)

type analyzeFlags struct {
	Format string
	Out    string
	Save   bool
}

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze a repository and print a summary with all diagrams",
		Long: `Analyze walks the repository, parses every file and prints a file-tree
summary followed by the class, call and architecture diagrams.

Examples:
  codegenius analyze .                       # Text report on stdout
  codegenius analyze . --format json         # JSON export on stdout
  codegenius analyze . --save                # Write into the configured outputDir`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, g, f, args)
		},
	}
	cmd.Flags().StringVar(&f.Format, "format", "text", "output format: text or json")
	cmd.Flags().StringVarP(&f.Out, "out", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&f.Save, "save", false, "write the report into the configured outputDir")
	return cmd
}

func runAnalyze(cmd *cobra.Command, g *globalFlags, f *analyzeFlags, args []string) error {
	format := strings.ToLower(f.Format)
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", f.Format)
	}
	if f.Out != "" && f.Save {
		return fmt.Errorf("--out and --save are mutually exclusive")
	}

	root, err := repoRoot(args)
	if err != nil {
		return err
	}
	report, cfg, err := analyzeRepo(cmd, g, root)
	if err != nil {
		return err
	}

	out := f.Out
	if f.Save {
		dir := cfg.OutputDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		ext := ".md"
		if format == "json" {
			ext = ".json"
		}
		out = filepath.Join(dir, "analysis"+ext)
	}

	if format == "json" {
		exp := report.Export()
		if out != "" {
			if err := export.WriteJSONFile(out, exp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", out)
			return nil
		}
		return export.WriteJSON(cmd.OutOrStdout(), exp)
	}

	if out == "" {
		return writeTextReport(cmd.OutOrStdout(), report)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := writeTextReport(file, report); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", out)
	return nil
}

// writeTextReport renders the report as Markdown with fenced Mermaid blocks.
func writeTextReport(w io.Writer, r *orchestrator.Report) error {
	summary := r.Tree.Summary()
	stats := r.Graph.Stats()

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Name)
	fmt.Fprintf(&sb, "- Files: %d (%d directories)\n", summary.FileCount, summary.DirCount)
	fmt.Fprintf(&sb, "- Top extensions: %s\n", strings.Join(summary.TopExtensions(5), ", "))
	fmt.Fprintf(&sb, "- Main directories: %s\n", strings.Join(summary.MainDirectories, ", "))
	if r.ReadmePath != "" {
		fmt.Fprintf(&sb, "- README: %s\n", r.ReadmePath)
	}
	fmt.Fprintf(&sb, "- Parsed: %d files, %d functions, %d classes, %d imports\n",
		stats.FileCount, stats.FunctionCount, stats.ClassCount, stats.ImportCount)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&sb, "- Skipped: %d\n", len(r.Skipped))
		for _, s := range r.Skipped {
			fmt.Fprintf(&sb, "  - %s (%s)\n", s.Path, s.Reason)
		}
	}

	for _, section := range []struct {
		title string
		body  string
	}{
		{"Class Diagram", r.Diagrams.Class},
		{"Call Graph", r.Diagrams.CallGraph},
		{"Architecture", r.Diagrams.Architecture},
	} {
		fmt.Fprintf(&sb, "\n## %s\n\n```mermaid\n%s```\n", section.title, section.body)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
