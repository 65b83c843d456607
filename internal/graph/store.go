package graph

import (
	"context"
	"fmt"
	"io"
)

// SymbolKind classifies persisted symbols.
type SymbolKind string

const (
	SymbolKindFunction SymbolKind = "function"
	SymbolKindClass    SymbolKind = "class"
	SymbolKindMethod   SymbolKind = "method"
)

// Symbol is a named declaration as kept in a Store.
type Symbol struct {
	Name       string     `json:"name"`
	Kind       SymbolKind `json:"kind"`
	FilePath   string     `json:"filePath"`
	Signature  string     `json:"signature,omitempty"`
	Owner      string     `json:"owner,omitempty"` // class name for methods
	LineNumber int        `json:"lineNumber"`
}

// StoredFile is the file-level record of a persisted FileAnalysis.
type StoredFile struct {
	Path     string   `json:"path"`
	Seq      int      `json:"seq"`
	Language Language `json:"language"`
}

// Store persists a built CodeGraph for later querying.
// Implementations: KuzuStore (cgo), MemStore.
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations.
	AddFile(ctx context.Context, file StoredFile) error
	AddSymbol(ctx context.Context, sym Symbol) error
	AddImport(ctx context.Context, filePath string, imp ImportInfo) error

	// Read operations.
	ListFiles(ctx context.Context) ([]StoredFile, error)
	QuerySymbols(ctx context.Context, query string, limit int) ([]Symbol, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}

// Persist writes every file of g, in insertion order, into store.
func Persist(ctx context.Context, store Store, g *CodeGraph) error {
	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	for seq, fa := range g.Files() {
		if err := store.AddFile(ctx, StoredFile{Path: fa.FilePath, Seq: seq, Language: fa.Language}); err != nil {
			return fmt.Errorf("add file %s: %w", fa.FilePath, err)
		}
		for _, sym := range symbolsOf(fa) {
			if err := store.AddSymbol(ctx, sym); err != nil {
				return fmt.Errorf("add symbol %s: %w", sym.Name, err)
			}
		}
		for _, imp := range fa.Imports {
			if err := store.AddImport(ctx, fa.FilePath, imp); err != nil {
				return fmt.Errorf("add import in %s: %w", fa.FilePath, err)
			}
		}
	}
	return nil
}

// symbolsOf flattens a FileAnalysis into functions, classes and methods.
func symbolsOf(fa *FileAnalysis) []Symbol {
	var out []Symbol
	for _, fn := range fa.Functions {
		out = append(out, Symbol{
			Name:       fn.Name,
			Kind:       SymbolKindFunction,
			FilePath:   fa.FilePath,
			Signature:  fn.Signature,
			LineNumber: fn.LineNumber,
		})
	}
	for _, cls := range fa.Classes {
		out = append(out, Symbol{
			Name:       cls.Name,
			Kind:       SymbolKindClass,
			FilePath:   fa.FilePath,
			LineNumber: cls.LineNumber,
		})
		for _, m := range cls.Methods {
			out = append(out, Symbol{
				Name:       m.Name,
				Kind:       SymbolKindMethod,
				FilePath:   fa.FilePath,
				Signature:  m.Signature,
				Owner:      cls.Name,
				LineNumber: cls.LineNumber,
			})
		}
	}
	return out
}

// symbolID is unique per file: a method and a function may share a name.
func symbolID(sym Symbol) string {
	return fmt.Sprintf("%s:%s:%s.%s:%d", sym.FilePath, sym.Kind, sym.Owner, sym.Name, sym.LineNumber)
}

// moduleName keys an import's module; purely relative imports have none.
func moduleName(imp ImportInfo) string {
	if imp.Module == nil || *imp.Module == "" {
		return "."
	}
	return *imp.Module
}
