package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeGraph builds a small two-file graph used by the Store tests.
func storeGraph(t *testing.T) *CodeGraph {
	t.Helper()
	g := NewCodeGraph()

	users := sampleAnalysis("pkg/users.py", []string{"load_user", "save_user"}, []string{"UserRepo"})
	users.Classes[0].Methods = []MethodInfo{{Name: "load", Signature: "def load(self)"}}
	users.Imports = []ImportInfo{
		{Module: strPtr("os"), Names: []string{"os"}, LineNumber: 1},
		{Module: nil, Names: []string{"helpers"}, LineNumber: 2},
	}
	require.NoError(t, g.Insert(users.FilePath, users))

	orders := sampleAnalysis("pkg/orders.py", []string{"place_order"}, nil)
	orders.Imports = []ImportInfo{{Module: strPtr("os"), Names: []string{"path"}, LineNumber: 1}}
	require.NoError(t, g.Insert(orders.FilePath, orders))
	return g
}

func symbolNames(syms []Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Name
	}
	return out
}

// runStoreSuite exercises a Store implementation through Persist.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("persist and list", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, Persist(ctx, s, storeGraph(t)))

		files, err := s.ListFiles(ctx)
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, StoredFile{Path: "pkg/users.py", Seq: 0, Language: LangPython}, files[0])
		assert.Equal(t, StoredFile{Path: "pkg/orders.py", Seq: 1, Language: LangPython}, files[1])
	})

	t.Run("stats", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, Persist(ctx, s, storeGraph(t)))

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, &GraphStats{FileCount: 2, FunctionCount: 3, ClassCount: 1, ImportCount: 3}, stats)
	})

	t.Run("query symbols", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, Persist(ctx, s, storeGraph(t)))

		got, err := s.QuerySymbols(ctx, "USER", 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"load_user", "save_user", "UserRepo"}, symbolNames(got))

		got, err = s.QuerySymbols(ctx, "load", 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"load_user", "load"}, symbolNames(got))
		for _, sym := range got {
			if sym.Kind == SymbolKindMethod {
				assert.Equal(t, "UserRepo", sym.Owner)
				assert.Equal(t, "def load(self)", sym.Signature)
			}
		}

		got, err = s.QuerySymbols(ctx, "_", 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = s.QuerySymbols(ctx, "missing", 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("schema is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.InitSchema(ctx))
		require.NoError(t, s.InitSchema(ctx))
	})
}

func TestMemStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s := NewMemStore()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSymbolsOf(t *testing.T) {
	fa := sampleAnalysis("a.py", []string{"f"}, []string{"C"})
	fa.Classes[0].Methods = []MethodInfo{{Name: "m", Signature: "def m(self)"}}

	syms := symbolsOf(fa)
	require.Len(t, syms, 3)
	assert.Equal(t, SymbolKindFunction, syms[0].Kind)
	assert.Equal(t, SymbolKindClass, syms[1].Kind)
	assert.Equal(t, SymbolKindMethod, syms[2].Kind)
	assert.Equal(t, "C", syms[2].Owner)

	assert.NotEqual(t, symbolID(syms[1]), symbolID(syms[2]))
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, ".", moduleName(ImportInfo{}))
	assert.Equal(t, ".", moduleName(ImportInfo{Module: strPtr("")}))
	assert.Equal(t, "os", moduleName(ImportInfo{Module: strPtr("os")}))
}
