package mcptools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/codegenius/internal/export"
	"github.com/dusk-indust/codegenius/internal/graph"
	"github.com/dusk-indust/codegenius/internal/orchestrator"
)

// ErrNotAnalyzed is returned by tools that need a prior analyze_repository call.
var ErrNotAnalyzed = errors.New("no repository analyzed; call analyze_repository first")

// StoreFactory opens an empty Store for one analyzed repository.
type StoreFactory func() (graph.Store, error)

// MemStoreFactory is the default StoreFactory.
func MemStoreFactory() (graph.Store, error) {
	return graph.NewMemStore(), nil
}

// CodeIntelService holds the pipeline and the most recent analysis used by
// MCP tool handlers. Each analyze_repository call replaces the previous
// analysis and its store.
type CodeIntelService struct {
	pipeline *orchestrator.Pipeline
	newStore StoreFactory

	mu     sync.RWMutex
	report *orchestrator.Report
	store  graph.Store
}

// NewCodeIntelService creates a CodeIntelService. A nil newStore uses
// MemStoreFactory.
func NewCodeIntelService(pipeline *orchestrator.Pipeline, newStore StoreFactory) *CodeIntelService {
	if newStore == nil {
		newStore = MemStoreFactory
	}
	return &CodeIntelService{pipeline: pipeline, newStore: newStore}
}

// Close releases the current store.
func (s *CodeIntelService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// analyze runs the pipeline over repoPath and swaps in the new report and store.
func (s *CodeIntelService) analyze(ctx context.Context, repoPath string) (*orchestrator.Report, error) {
	if repoPath == "" {
		return nil, fmt.Errorf("repoPath is required")
	}
	info, err := os.Stat(repoPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access repoPath: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repoPath is not a directory: %s", repoPath)
	}

	report, err := s.pipeline.Run(ctx, repoPath)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	store, err := s.newStore()
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := graph.Persist(ctx, store, report.Graph); err != nil {
		store.Close()
		return nil, fmt.Errorf("persist: %w", err)
	}

	// The write lock waits for in-flight queries on the old store, so it is
	// never closed underneath one.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		s.store.Close()
	}
	s.report, s.store = report, store
	return report, nil
}

func (s *CodeIntelService) current() (*orchestrator.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return nil, ErrNotAnalyzed
	}
	return s.report, nil
}

// withStore runs fn against the current store while holding the read lock.
func (s *CodeIntelService) withStore(fn func(graph.Store) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return ErrNotAnalyzed
	}
	return fn(s.store)
}

// AnalyzeRepository walks and parses a repository and keeps the result for
// the other tools. Returns graph statistics and a file-tree summary.
func (s *CodeIntelService) AnalyzeRepository(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeRepositoryInput,
) (*mcp.CallToolResult, AnalyzeRepositoryOutput, error) {
	report, err := s.analyze(ctx, input.RepoPath)
	if err != nil {
		return nil, AnalyzeRepositoryOutput{}, err
	}

	summary := report.Tree.Summary()
	return nil, AnalyzeRepositoryOutput{
		Name:            report.Name,
		Stats:           report.Graph.Stats(),
		TotalFiles:      summary.FileCount,
		TopExtensions:   summary.TopExtensions(5),
		MainDirectories: summary.MainDirectories,
		ReadmePath:      report.ReadmePath,
		Skipped:         report.Skipped,
	}, nil
}

// RenderDiagram returns Mermaid text for the requested diagram kind.
func (s *CodeIntelService) RenderDiagram(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RenderDiagramInput,
) (*mcp.CallToolResult, RenderDiagramOutput, error) {
	kind := export.DiagramKind(strings.ToLower(strings.TrimSpace(input.Kind)))

	var report *orchestrator.Report
	var err error
	if input.RepoPath != "" && !s.isCurrent(input.RepoPath) {
		report, err = s.analyze(ctx, input.RepoPath)
	} else {
		report, err = s.current()
	}
	if err != nil {
		return nil, RenderDiagramOutput{}, err
	}

	text, err := export.Render(kind, report.Graph, report.Tree)
	if err != nil {
		return nil, RenderDiagramOutput{}, err
	}
	return nil, RenderDiagramOutput{Kind: kind, Mermaid: text}, nil
}

func (s *CodeIntelService) isCurrent(repoPath string) bool {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report != nil && s.report.Tree.Root == abs
}

// QuerySymbols searches for symbols by name substring match.
func (s *CodeIntelService) QuerySymbols(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuerySymbolsInput,
) (*mcp.CallToolResult, QuerySymbolsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	// Kind filtering happens after the store query, so ask for everything
	// when a kind is given and truncate afterwards.
	queryLimit := limit
	if input.Kind != "" {
		queryLimit = 0
	}
	var symbols []graph.Symbol
	err := s.withStore(func(store graph.Store) error {
		var err error
		symbols, err = store.QuerySymbols(ctx, input.Query, queryLimit)
		if err != nil {
			return fmt.Errorf("query symbols: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, QuerySymbolsOutput{}, err
	}

	if input.Kind != "" {
		kind := graph.SymbolKind(strings.ToLower(input.Kind))
		filtered := symbols[:0]
		for _, sym := range symbols {
			if sym.Kind == kind {
				filtered = append(filtered, sym)
			}
		}
		symbols = filtered
		if len(symbols) > limit {
			symbols = symbols[:limit]
		}
	}
	if symbols == nil {
		symbols = []graph.Symbol{}
	}

	return nil, QuerySymbolsOutput{
		Symbols: symbols,
		Total:   len(symbols),
	}, nil
}

// GetRelationships returns the per-file relationships of the last analysis,
// optionally for a single file.
func (s *CodeIntelService) GetRelationships(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetRelationshipsInput,
) (*mcp.CallToolResult, GetRelationshipsOutput, error) {
	report, err := s.current()
	if err != nil {
		return nil, GetRelationshipsOutput{}, err
	}

	if input.FilePath == "" {
		return nil, GetRelationshipsOutput{Relationships: report.Relationships}, nil
	}

	want := filepath.ToSlash(input.FilePath)
	for _, rel := range report.Relationships {
		if rel.Path == want {
			return nil, GetRelationshipsOutput{Relationships: []graph.FileRelationships{rel}}, nil
		}
	}
	return nil, GetRelationshipsOutput{}, fmt.Errorf("file not in code graph: %s", input.FilePath)
}
