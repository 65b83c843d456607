package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dusk-indust/codegenius/internal/config"
	"github.com/dusk-indust/codegenius/internal/export"
	"github.com/dusk-indust/codegenius/internal/filetree"
	"github.com/dusk-indust/codegenius/internal/graph"
)

// Report is what Pipeline.Run produces for one repository.
type Report struct {
	*Result
	Name       string
	Tree       *filetree.Tree
	ReadmePath string
	Readme     string
}

// Export converts the report into the JSON export document.
func (r *Report) Export() *export.AnalysisExport {
	return export.NewAnalysisExport(r.Name, r.Graph, r.Relationships, r.Skipped, r.Diagrams.Map())
}

// Pipeline walks a repository on disk and runs Analyze over it. The parser
// stack, including its parse cache, is shared by every Run, so analyzing an
// unchanged tree again does not re-parse it. Safe for concurrent Runs.
type Pipeline struct {
	cfg      *config.ProjectConfig
	logger   *slog.Logger
	parser   graph.DescriptorParser
	progress *ProgressReporter
}

// NewPipeline creates a Pipeline for cfg (nil uses config.Default).
func NewPipeline(cfg *config.ProjectConfig, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	parser, err := NewParser(cfg.Languages, cfg.Extensions, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		parser:   parser,
		progress: NewProgressReporter(),
	}, nil
}

// Progress returns a channel that emits progress events.
func (p *Pipeline) Progress() <-chan ProgressEvent {
	return p.progress.Subscribe()
}

// Close shuts down the progress reporter. Events from a Run still in flight
// are dropped.
func (p *Pipeline) Close() {
	p.progress.Close()
}

// Run analyzes the repository rooted at root. A missing README is not an
// error.
func (p *Pipeline) Run(ctx context.Context, root string) (*Report, error) {
	p.progress.Emit(ProgressEvent{Stage: StageWalk, Status: ProgressWorking, Message: root})
	walker := filetree.NewWalker(filetree.Options{
		ExcludeDirs:   p.cfg.ExcludeDirs,
		ExcludeGlobs:  p.cfg.ExcludeGlobs,
		IncludeHidden: p.cfg.IncludeHidden,
		MaxFileSize:   p.cfg.MaxFileSize,
		Logger:        p.logger,
	})
	tree, err := walker.Walk(ctx, root)
	if err != nil {
		return nil, p.fail(StageWalk, fmt.Errorf("walk: %w", err))
	}
	descs := tree.Descriptors()
	p.progress.Emit(ProgressEvent{
		Stage:   StageWalk,
		Status:  ProgressComplete,
		Message: fmt.Sprintf("%d files", tree.FileCount()),
	})

	report := &Report{Name: filepath.Base(tree.Root), Tree: tree}

	p.progress.Emit(ProgressEvent{Stage: StageReadme, Status: ProgressWorking})
	readmePath, readme, err := tree.FindReadme()
	switch {
	case errors.Is(err, filetree.ErrNoReadme):
		p.logger.Debug("pipeline.readme", "root", tree.Root, "found", false)
	case err != nil:
		return nil, p.fail(StageReadme, err)
	default:
		report.ReadmePath, report.Readme = readmePath, readme
	}
	p.progress.Emit(ProgressEvent{Stage: StageReadme, Status: ProgressComplete, Message: readmePath})

	res, err := Analyze(ctx, descs, Options{
		Parser:     p.parser,
		Workers:    p.cfg.Workers,
		Logger:     p.logger,
		Files:      tree,
		OnProgress: p.progress.Emit,
	})
	if err != nil {
		return nil, err
	}
	report.Result = res

	p.logger.Info("pipeline.done",
		"root", tree.Root,
		"files", tree.FileCount(),
		"parsed", res.Graph.Len(),
		"skipped", len(res.Skipped),
		"progress_dropped", p.progress.Dropped(),
	)
	return report, nil
}

func (p *Pipeline) fail(stage Stage, err error) error {
	p.progress.Emit(ProgressEvent{Stage: stage, Status: ProgressFailed, Message: err.Error()})
	return err
}
