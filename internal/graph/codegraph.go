package graph

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateFile is returned when a path is inserted twice. CodeGraph is
// append-only; files are never re-parsed or replaced in place.
var ErrDuplicateFile = errors.New("file already in code graph")

// CodeGraph is the ordered collection of FileAnalysis values keyed by path.
// Insertion order is preserved and drives the class diagram's first-seen
// deduplication. Inserts are serialized by a mutex.
type CodeGraph struct {
	mu    sync.RWMutex
	order []string
	nodes map[string]*FileAnalysis
}

// NewCodeGraph returns an empty CodeGraph.
func NewCodeGraph() *CodeGraph {
	return &CodeGraph{nodes: make(map[string]*FileAnalysis)}
}

// Insert appends analysis under path.
func (g *CodeGraph) Insert(path string, analysis *FileAnalysis) error {
	if analysis == nil {
		return fmt.Errorf("insert %s: nil analysis", path)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[path]; ok {
		return fmt.Errorf("insert %s: %w", path, ErrDuplicateFile)
	}
	g.order = append(g.order, path)
	g.nodes[path] = analysis
	return nil
}

// Get returns the analysis stored under path.
func (g *CodeGraph) Get(path string) (*FileAnalysis, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fa, ok := g.nodes[path]
	return fa, ok
}

// Len returns the number of files in the graph.
func (g *CodeGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// Paths returns the file paths in insertion order.
func (g *CodeGraph) Paths() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Files returns the analyses in insertion order.
func (g *CodeGraph) Files() []*FileAnalysis {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*FileAnalysis, len(g.order))
	for i, p := range g.order {
		out[i] = g.nodes[p]
	}
	return out
}

// Each calls fn for every entry in insertion order until fn returns false.
func (g *CodeGraph) Each(fn func(path string, fa *FileAnalysis) bool) {
	paths := g.Paths()
	for _, p := range paths {
		fa, _ := g.Get(p)
		if !fn(p, fa) {
			return
		}
	}
}

// Stats counts files, functions, classes and imports.
func (g *CodeGraph) Stats() GraphStats {
	var s GraphStats
	for _, fa := range g.Files() {
		s.FileCount++
		s.FunctionCount += len(fa.Functions)
		s.ClassCount += len(fa.Classes)
		s.ImportCount += len(fa.Imports)
	}
	return s
}
