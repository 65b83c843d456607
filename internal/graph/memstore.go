package graph

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu      sync.RWMutex
	files   map[string]StoredFile
	symbols map[string]Symbol // key: symbolID
	order   []string          // symbol insertion order
	imports int
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		files:   make(map[string]StoredFile),
		symbols: make(map[string]Symbol),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddFile stores a file record keyed by its path.
func (m *MemStore) AddFile(_ context.Context, file StoredFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[file.Path] = file
	return nil
}

// AddSymbol stores a symbol; re-adding the same symbol overwrites it.
func (m *MemStore) AddSymbol(_ context.Context, sym Symbol) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := symbolID(sym)
	if _, ok := m.symbols[id]; !ok {
		m.order = append(m.order, id)
	}
	m.symbols[id] = sym
	return nil
}

// AddImport counts the import; MemStore does not index modules.
func (m *MemStore) AddImport(_ context.Context, _ string, _ ImportInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports++
	return nil
}

// ListFiles returns the stored files ordered by Seq.
func (m *MemStore) ListFiles(_ context.Context) ([]StoredFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]StoredFile, 0, len(m.files))
	for _, f := range m.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// QuerySymbols returns symbols whose name contains query (case-insensitive),
// in insertion order, up to limit results. A limit <= 0 returns all matches.
func (m *MemStore) QuerySymbols(_ context.Context, query string, limit int) ([]Symbol, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lowerQuery := strings.ToLower(query)
	var results []Symbol
	for _, id := range m.order {
		sym := m.symbols[id]
		if strings.Contains(strings.ToLower(sym.Name), lowerQuery) {
			results = append(results, sym)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// Stats returns file, function, class and import counts.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &GraphStats{FileCount: len(m.files), ImportCount: m.imports}
	for _, sym := range m.symbols {
		switch sym.Kind {
		case SymbolKindFunction:
			stats.FunctionCount++
		case SymbolKindClass:
			stats.ClassCount++
		}
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
