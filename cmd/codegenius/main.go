package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/codegenius/internal/config"
	"github.com/dusk-indust/codegenius/internal/orchestrator"
)

// version is set by goreleaser at build time.
var version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	LogLevel string
	Quiet    bool
	EnvFile  string
}

// extraCommands are registered by build-tag-specific files.
var extraCommands []func(g *globalFlags) *cobra.Command

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "codegenius",
		Short: "Analyze a repository and generate Mermaid documentation diagrams",
		Long: `codegenius walks a repository, parses its source files into a code graph
and renders class, call and architecture diagrams from it.

Example usage:
  codegenius analyze .                  # Summary and diagrams for the current directory
  codegenius diagram . --kind class     # A single diagram
  codegenius serve-mcp                  # MCP tool server on stdio`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadEnv(g.EnvFile)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&g.LogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().BoolVarP(&g.Quiet, "quiet", "q", false, "disable the progress bar")
	root.PersistentFlags().StringVar(&g.EnvFile, "env-file", ".env", "environment file loaded at startup, relative to the working directory")

	root.AddCommand(
		newAnalyzeCmd(g),
		newDiagramCmd(g),
		newServeCmd(g),
	)
	for _, fn := range extraCommands {
		root.AddCommand(fn(g))
	}
	return root
}

// repoRoot resolves the optional positional root argument.
func repoRoot(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", abs)
	}
	return abs, nil
}

// setup loads the project config under root and builds the logger.
func setup(cmd *cobra.Command, g *globalFlags, root string) (*config.ProjectConfig, *slog.Logger, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return cfg, logger, nil
}

// analyzeRepo runs the pipeline over root, showing a progress bar unless quiet.
func analyzeRepo(cmd *cobra.Command, g *globalFlags, root string) (*orchestrator.Report, *config.ProjectConfig, error) {
	cfg, logger, err := setup(cmd, g, root)
	if err != nil {
		return nil, nil, err
	}

	p, err := orchestrator.NewPipeline(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		newProgressBar(cmd.ErrOrStderr(), filepath.Base(root), g.Quiet).consume(p.Progress())
	}()

	report, err := p.Run(cmd.Context(), root)
	p.Close()
	<-done
	if err != nil {
		return nil, nil, err
	}
	return report, cfg, nil
}
