// Package orchestrator runs the analysis: descriptors in, code graph,
// relationships and diagrams out.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dusk-indust/codegenius/internal/export"
	"github.com/dusk-indust/codegenius/internal/graph"
)

// Stage identifies a pipeline stage.
type Stage int

const (
	StageWalk          Stage = 0
	StageReadme        Stage = 1
	StageParse         Stage = 2
	StageRelationships Stage = 3
	StageDiagrams      Stage = 4
)

func (s Stage) String() string {
	names := [...]string{
		"walk",
		"readme",
		"parse",
		"relationships",
		"diagrams",
	}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// ProgressEvent is emitted while a pipeline runs. Done and Total are set
// for StageParse working events.
type ProgressEvent struct {
	Stage   Stage
	Status  ProgressStatus
	Message string
	Done    int
	Total   int
}

// ProgressStatus is the state of a stage.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// Options configures Analyze.
type Options struct {
	// Parser overrides the default registry. When nil, a Registry for
	// Languages and Extensions wrapped in a CachingParser of CacheSize is
	// built per call.
	Parser     graph.DescriptorParser
	Languages  []string
	Extensions map[string]string
	CacheSize  int
	Workers    int
	Logger     *slog.Logger

	// Files supplies the file count shown in the architecture diagram.
	// When nil, the number of descriptors is used.
	Files export.FileCounter

	// OnProgress is called synchronously, possibly from worker goroutines.
	OnProgress func(ProgressEvent)
}

// Diagrams holds the rendered Mermaid text.
type Diagrams struct {
	Class        string `json:"class"`
	CallGraph    string `json:"calls"`
	Architecture string `json:"architecture"`
}

// Map keys the diagrams by kind for export.
func (d Diagrams) Map() map[export.DiagramKind]string {
	return map[export.DiagramKind]string{
		export.DiagramClass:        d.Class,
		export.DiagramCalls:        d.CallGraph,
		export.DiagramArchitecture: d.Architecture,
	}
}

// Result is the outcome of Analyze.
type Result struct {
	Graph         *graph.CodeGraph
	Relationships []graph.FileRelationships
	Skipped       []graph.SkippedFile
	Diagrams      Diagrams
}

type fileCount int

func (n fileCount) FileCount() int { return int(n) }

// Analyze parses descs into a CodeGraph and derives relationships and
// diagrams from it. Its only I/O is loading lazy descriptors. Files that fail
// to load, decode or parse end up in Result.Skipped; apart from option errors,
// the only error is the context's.
func Analyze(ctx context.Context, descs []graph.Descriptor, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	emit := func(ev ProgressEvent) {
		if opts.OnProgress != nil {
			opts.OnProgress(ev)
		}
	}

	parser := opts.Parser
	if parser == nil {
		var err error
		parser, err = NewParser(opts.Languages, opts.Extensions, opts.CacheSize)
		if err != nil {
			return nil, err
		}
	}

	emit(ProgressEvent{Stage: StageParse, Status: ProgressWorking, Total: len(descs)})
	builder := graph.NewBuilder(parser,
		graph.WithWorkers(opts.Workers),
		graph.WithLogger(logger),
		graph.WithProgress(func(done, total int) {
			emit(ProgressEvent{Stage: StageParse, Status: ProgressWorking, Done: done, Total: total})
		}),
	)
	built, err := builder.Build(ctx, descs)
	if err != nil {
		emit(ProgressEvent{Stage: StageParse, Status: ProgressFailed, Message: err.Error()})
		return nil, err
	}
	emit(ProgressEvent{
		Stage:   StageParse,
		Status:  ProgressComplete,
		Message: fmt.Sprintf("%d parsed, %d skipped", built.Graph.Len(), len(built.Skipped)),
		Done:    len(descs),
		Total:   len(descs),
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emit(ProgressEvent{Stage: StageRelationships, Status: ProgressWorking})
	rels := graph.BuildAllRelationships(built.Graph)
	emit(ProgressEvent{Stage: StageRelationships, Status: ProgressComplete})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files := opts.Files
	if files == nil {
		files = fileCount(len(descs))
	}
	emit(ProgressEvent{Stage: StageDiagrams, Status: ProgressWorking})
	diagrams := Diagrams{
		Class:        export.ClassDiagram(built.Graph),
		CallGraph:    export.CallGraph(built.Graph),
		Architecture: export.ArchitectureDiagram(files),
	}
	emit(ProgressEvent{Stage: StageDiagrams, Status: ProgressComplete})

	logger.Debug("analyze.done",
		"files", len(descs),
		"parsed", built.Graph.Len(),
		"skipped", len(built.Skipped),
	)
	return &Result{
		Graph:         built.Graph,
		Relationships: rels,
		Skipped:       built.Skipped,
		Diagrams:      diagrams,
	}, nil
}

// NewParser builds the default parser stack: a Registry for languages
// (empty means all), with extensions mapping extra file extensions onto a
// language's parser, behind an LRU parse cache.
func NewParser(languages []string, extensions map[string]string, cacheSize int) (*graph.CachingParser, error) {
	langs := make([]graph.Language, len(languages))
	for i, l := range languages {
		langs[i] = graph.Language(l)
	}
	reg, err := graph.NewRegistry(langs...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	exts := make([]string, 0, len(extensions))
	for ext := range extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		if err := reg.Map(ext, graph.Language(extensions[ext])); err != nil {
			return nil, fmt.Errorf("orchestrator: %w", err)
		}
	}
	return graph.NewCachingParser(reg, cacheSize)
}
