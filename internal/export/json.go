package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-indust/codegenius/internal/graph"
)

// AnalysisExport is the top-level JSON export structure.
type AnalysisExport struct {
	Name          string                    `json:"name"`
	ExportedAt    string                    `json:"exportedAt"`
	Stats         graph.GraphStats          `json:"stats"`
	Files         []*graph.FileAnalysis     `json:"files"`
	Relationships []graph.FileRelationships `json:"relationships"`
	Skipped       []graph.SkippedFile       `json:"skipped,omitempty"`
	Diagrams      map[DiagramKind]string    `json:"diagrams,omitempty"`
}

// NewAnalysisExport assembles an export from a built graph. Files and
// relationships keep graph insertion order.
func NewAnalysisExport(name string, g *graph.CodeGraph, rels []graph.FileRelationships, skipped []graph.SkippedFile, diagrams map[DiagramKind]string) *AnalysisExport {
	if rels == nil {
		rels = graph.BuildAllRelationships(g)
	}
	return &AnalysisExport{
		Name:          name,
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		Stats:         g.Stats(),
		Files:         g.Files(),
		Relationships: rels,
		Skipped:       skipped,
		Diagrams:      diagrams,
	}
}

// WriteJSON encodes export as indented JSON.
func WriteJSON(w io.Writer, export *AnalysisExport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// WriteJSONFile writes export to path, creating parent directories.
func WriteJSONFile(path string, export *AnalysisExport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, export); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
