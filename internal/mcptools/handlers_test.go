package mcptools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codegenius/internal/graph"
	"github.com/dusk-indust/codegenius/internal/orchestrator"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fixtureAbsPath returns the absolute path to the py_project test fixture
// directory. Tests run from internal/mcptools/, so the relative path is
// ../../testdata/fixtures/py_project.
func fixtureAbsPath(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs("../../testdata/fixtures/py_project")
	require.NoError(t, err)
	return abs
}

func newTestService(t *testing.T) *CodeIntelService {
	t.Helper()
	p, err := orchestrator.NewPipeline(nil, nil)
	require.NoError(t, err)
	svc := NewCodeIntelService(p, nil)
	t.Cleanup(func() {
		svc.Close()
		p.Close()
	})
	return svc
}

func analyzedService(t *testing.T) *CodeIntelService {
	t.Helper()
	svc := newTestService(t)
	_, _, err := svc.AnalyzeRepository(context.Background(), nil, AnalyzeRepositoryInput{RepoPath: fixtureAbsPath(t)})
	require.NoError(t, err)
	return svc
}

func symbolNames(syms []graph.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Name
	}
	return out
}

// ---------------------------------------------------------------------------
// analyze_repository
// ---------------------------------------------------------------------------

func TestAnalyzeRepository(t *testing.T) {
	svc := newTestService(t)

	_, out, err := svc.AnalyzeRepository(context.Background(), nil, AnalyzeRepositoryInput{RepoPath: fixtureAbsPath(t)})
	require.NoError(t, err)

	assert.Equal(t, "py_project", out.Name)
	assert.Equal(t, 3, out.Stats.FileCount, "broken.py is skipped")
	assert.Equal(t, 4, out.TotalFiles)
	assert.Equal(t, []string{".py"}, out.TopExtensions)
	assert.Equal(t, []string{"py_project"}, out.MainDirectories)
	assert.Empty(t, out.ReadmePath)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, "broken.py", out.Skipped[0].Path)
	assert.Equal(t, graph.SkipSyntax, out.Skipped[0].Reason)
}

func TestAnalyzeRepository_InvalidPath(t *testing.T) {
	svc := newTestService(t)

	file := filepath.Join(t.TempDir(), "f.py")
	require.NoError(t, os.WriteFile(file, []byte("x = 1\n"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"missing", filepath.Join(t.TempDir(), "missing")},
		{"not a directory", file},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.AnalyzeRepository(context.Background(), nil, AnalyzeRepositoryInput{RepoPath: tt.path})
			assert.Error(t, err)
		})
	}
}

// ---------------------------------------------------------------------------
// query_symbols
// ---------------------------------------------------------------------------

func TestQuerySymbols_BeforeAnalyze(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.QuerySymbols(context.Background(), nil, QuerySymbolsInput{Query: "user"})
	assert.True(t, errors.Is(err, ErrNotAnalyzed))
}

func TestQuerySymbols(t *testing.T) {
	svc := analyzedService(t)
	ctx := context.Background()

	t.Run("substring", func(t *testing.T) {
		_, out, err := svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "user"})
		require.NoError(t, err)
		assert.Equal(t, []string{"create_user", "User", "UserService"}, symbolNames(out.Symbols))
		assert.Equal(t, 3, out.Total)
	})

	t.Run("kind filter", func(t *testing.T) {
		_, out, err := svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "user", Kind: "CLASS"})
		require.NoError(t, err)
		assert.Equal(t, []string{"User", "UserService"}, symbolNames(out.Symbols))
	})

	t.Run("kind filter applies before limit", func(t *testing.T) {
		_, out, err := svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "user", Kind: "class", Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"User"}, symbolNames(out.Symbols))
	})

	t.Run("methods carry their owner", func(t *testing.T) {
		_, out, err := svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "register", Kind: "method"})
		require.NoError(t, err)
		require.Len(t, out.Symbols, 1)
		assert.Equal(t, "UserService", out.Symbols[0].Owner)
	})

	t.Run("no match", func(t *testing.T) {
		_, out, err := svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "zzz"})
		require.NoError(t, err)
		assert.NotNil(t, out.Symbols)
		assert.Equal(t, 0, out.Total)
	})
}

// ---------------------------------------------------------------------------
// render_diagram
// ---------------------------------------------------------------------------

func TestRenderDiagram(t *testing.T) {
	svc := analyzedService(t)
	ctx := context.Background()

	_, out, err := svc.RenderDiagram(ctx, nil, RenderDiagramInput{Kind: "class"})
	require.NoError(t, err)
	assert.Contains(t, out.Mermaid, "    Repository <|-- UserService\n")

	_, out, err = svc.RenderDiagram(ctx, nil, RenderDiagramInput{Kind: "architecture"})
	require.NoError(t, err)
	assert.Contains(t, out.Mermaid, "F[Total Files: 4] --> E")

	_, out, err = svc.RenderDiagram(ctx, nil, RenderDiagramInput{Kind: " Calls "})
	require.NoError(t, err)
	assert.Contains(t, out.Mermaid, "subgraph models_py")

	_, _, err = svc.RenderDiagram(ctx, nil, RenderDiagramInput{Kind: "sequence"})
	assert.Error(t, err)
}

func TestRenderDiagram_AnalyzesNewRepo(t *testing.T) {
	svc := analyzedService(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "shapes.py"), []byte("class Shape:\n    pass\n\n\nclass Circle(Shape):\n    pass\n"), 0o644))

	_, out, err := svc.RenderDiagram(context.Background(), nil, RenderDiagramInput{Kind: "class", RepoPath: root})
	require.NoError(t, err)
	assert.Equal(t, "classDiagram\n"+
		"    class Shape {\n"+
		"    }\n"+
		"    class Circle {\n"+
		"    }\n"+
		"    Shape <|-- Circle\n", out.Mermaid)

	_, q, err := svc.QuerySymbols(context.Background(), nil, QuerySymbolsInput{Query: "user"})
	require.NoError(t, err)
	assert.Empty(t, q.Symbols, "the new analysis replaces the old store")
}

func TestRenderDiagram_BeforeAnalyze(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.RenderDiagram(context.Background(), nil, RenderDiagramInput{Kind: "class"})
	assert.True(t, errors.Is(err, ErrNotAnalyzed))
}

// ---------------------------------------------------------------------------
// get_relationships
// ---------------------------------------------------------------------------

func TestGetRelationships(t *testing.T) {
	svc := analyzedService(t)
	ctx := context.Background()

	_, all, err := svc.GetRelationships(ctx, nil, GetRelationshipsInput{})
	require.NoError(t, err)
	require.Len(t, all.Relationships, 3)
	assert.Equal(t, "__init__.py", all.Relationships[0].Path)

	_, one, err := svc.GetRelationships(ctx, nil, GetRelationshipsInput{FilePath: "service.py"})
	require.NoError(t, err)
	require.Len(t, one.Relationships, 1)
	rels := one.Relationships[0].Relationships
	assert.Len(t, rels.Dependencies, 3)
	assert.Len(t, rels.Edges, 3)

	_, _, err = svc.GetRelationships(ctx, nil, GetRelationshipsInput{FilePath: "broken.py"})
	assert.Error(t, err)
}

func TestStoreFactoryError(t *testing.T) {
	p, err := orchestrator.NewPipeline(nil, nil)
	require.NoError(t, err)
	defer p.Close()

	svc := NewCodeIntelService(p, func() (graph.Store, error) {
		return nil, errors.New("store unavailable")
	})
	_, _, err = svc.AnalyzeRepository(context.Background(), nil, AnalyzeRepositoryInput{RepoPath: fixtureAbsPath(t)})
	assert.ErrorContains(t, err, "store unavailable")

	_, _, err = svc.GetRelationships(context.Background(), nil, GetRelationshipsInput{})
	assert.True(t, errors.Is(err, ErrNotAnalyzed), "a failed analysis leaves no state behind")
}

// gatedStore blocks QuerySymbols until release is closed and records a Close
// that arrives while a query is running.
type gatedStore struct {
	*graph.MemStore
	entered chan struct{}
	release chan struct{}

	inFlight      atomic.Int32
	closed        atomic.Bool
	closedInQuery atomic.Bool
}

func (s *gatedStore) QuerySymbols(ctx context.Context, query string, limit int) ([]graph.Symbol, error) {
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	if s.closed.Load() {
		return nil, errors.New("store used after close")
	}
	close(s.entered)
	<-s.release
	return s.MemStore.QuerySymbols(ctx, query, limit)
}

func (s *gatedStore) Close() error {
	if s.inFlight.Load() > 0 {
		s.closedInQuery.Store(true)
	}
	s.closed.Store(true)
	return s.MemStore.Close()
}

func TestQuerySymbols_ReanalyzeWaitsForQuery(t *testing.T) {
	p, err := orchestrator.NewPipeline(nil, nil)
	require.NoError(t, err)
	defer p.Close()

	var mu sync.Mutex
	var stores []*gatedStore
	svc := NewCodeIntelService(p, func() (graph.Store, error) {
		mu.Lock()
		defer mu.Unlock()
		st := &gatedStore{MemStore: graph.NewMemStore(), entered: make(chan struct{}), release: make(chan struct{})}
		stores = append(stores, st)
		return st, nil
	})
	defer svc.Close()

	ctx := context.Background()
	input := AnalyzeRepositoryInput{RepoPath: fixtureAbsPath(t)}
	_, _, err = svc.AnalyzeRepository(ctx, nil, input)
	require.NoError(t, err)
	first := stores[0]

	queryDone := make(chan error, 1)
	go func() {
		_, out, err := svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "User"})
		if err == nil && out.Total == 0 {
			err = errors.New("no symbols returned")
		}
		queryDone <- err
	}()
	<-first.entered

	analyzeDone := make(chan error, 1)
	go func() {
		_, _, err := svc.AnalyzeRepository(ctx, nil, input)
		analyzeDone <- err
	}()

	select {
	case <-analyzeDone:
		t.Fatal("re-analysis finished while a query held the old store")
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, first.closed.Load(), "old store closed during a query")

	close(first.release)
	require.NoError(t, <-queryDone)
	require.NoError(t, <-analyzeDone)

	assert.True(t, first.closed.Load(), "old store closed after the swap")
	assert.False(t, first.closedInQuery.Load())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, stores, 2)
	assert.False(t, stores[1].closed.Load())
}
