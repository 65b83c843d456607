package graph

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// SkipReason says why a descriptor produced no FileAnalysis.
type SkipReason string

const (
	SkipDecode    SkipReason = "decode"
	SkipSyntax    SkipReason = "syntax"
	SkipDuplicate SkipReason = "duplicate"
	SkipTooLarge  SkipReason = "too_large"
	SkipError     SkipReason = "error"
)

// SkippedFile records a file left out of the CodeGraph.
type SkippedFile struct {
	Path   string     `json:"path"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// BuildResult is the outcome of one Build pass.
type BuildResult struct {
	Graph   *CodeGraph
	Skipped []SkippedFile
}

// Builder runs a DescriptorParser over a set of files and assembles the
// CodeGraph. Parsing fans out over a bounded worker pool; insertion happens
// afterwards in descriptor order, so the graph is the same as a sequential
// pass would produce.
type Builder struct {
	parser     DescriptorParser
	workers    int
	logger     *slog.Logger
	onProgress func(done, total int)
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithWorkers sets the number of concurrent parses (<= 0 uses NumCPU).
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) { b.workers = n }
}

// WithLogger sets the logger used for skipped files.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithProgress registers a callback invoked after each file is parsed. It is
// called from worker goroutines and must be safe for concurrent use.
func WithProgress(fn func(done, total int)) BuilderOption {
	return func(b *Builder) { b.onProgress = fn }
}

// NewBuilder returns a Builder using parser.
func NewBuilder(parser DescriptorParser, opts ...BuilderOption) *Builder {
	b := &Builder{parser: parser, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers <= 0 {
		b.workers = runtime.NumCPU()
	}
	return b
}

type parseOutcome struct {
	analysis *FileAnalysis
	err      error
}

// Build parses every descriptor and inserts the successes into a new
// CodeGraph. Per-file failures are recorded in Skipped and never abort the
// pass; the only error returned is the context's.
func (b *Builder) Build(ctx context.Context, descs []Descriptor) (*BuildResult, error) {
	outcomes := make([]parseOutcome, len(descs))
	total := len(descs)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, d := range descs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fa, err := b.parse(d)
			outcomes[i] = parseOutcome{analysis: fa, err: err}
			if b.onProgress != nil {
				b.onProgress(int(done.Add(1)), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &BuildResult{Graph: NewCodeGraph()}
	for i, d := range descs {
		out := outcomes[i]
		if out.err != nil || out.analysis == nil {
			res.Skipped = append(res.Skipped, b.skip(d.Path, out.err))
			continue
		}
		if err := res.Graph.Insert(d.Path, out.analysis); err != nil {
			res.Skipped = append(res.Skipped, b.skip(d.Path, err))
		}
	}

	b.logger.Debug("build.done",
		"files", total,
		"parsed", res.Graph.Len(),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// parse materializes a lazily loaded descriptor and parses it. The bytes are
// dropped once the worker returns.
func (b *Builder) parse(d Descriptor) (*FileAnalysis, error) {
	content, err := d.Source()
	if err != nil {
		return nil, err
	}
	d.Content = content
	return b.parser.Parse(d)
}

func (b *Builder) skip(path string, err error) SkippedFile {
	sf := SkippedFile{Path: path, Reason: SkipError}
	switch {
	case err == nil:
		sf.Detail = "no analysis"
	case errors.Is(err, ErrDecode):
		sf.Reason = SkipDecode
	case errors.Is(err, ErrSyntax):
		sf.Reason = SkipSyntax
	case errors.Is(err, ErrDuplicateFile):
		sf.Reason = SkipDuplicate
	case errors.Is(err, ErrTooLarge):
		sf.Reason = SkipTooLarge
	}
	if err != nil {
		sf.Detail = err.Error()
	}

	switch sf.Reason {
	case SkipError:
		b.logger.Warn("build.skip", "path", path, "reason", sf.Reason, "err", err)
	case SkipTooLarge:
		b.logger.Info("build.skip", "path", path, "reason", sf.Reason, "detail", sf.Detail)
	default:
		b.logger.Debug("build.skip", "path", path, "reason", sf.Reason)
	}
	return sf
}
