package mcptools

import (
	"github.com/dusk-indust/codegenius/internal/export"
	"github.com/dusk-indust/codegenius/internal/graph"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// AnalyzeRepositoryInput is the input for the analyze_repository MCP tool.
type AnalyzeRepositoryInput struct {
	RepoPath string `json:"repoPath" jsonschema:"the absolute path to the repository to analyze"`
}

// AnalyzeRepositoryOutput is the result of the analyze_repository MCP tool.
type AnalyzeRepositoryOutput struct {
	Name            string              `json:"name"`
	Stats           graph.GraphStats    `json:"stats"`
	TotalFiles      int                 `json:"totalFiles"`
	TopExtensions   []string            `json:"topExtensions"`
	MainDirectories []string            `json:"mainDirectories"`
	ReadmePath      string              `json:"readmePath,omitempty"`
	Skipped         []graph.SkippedFile `json:"skipped,omitempty"`
}

// RenderDiagramInput is the input for the render_diagram MCP tool.
type RenderDiagramInput struct {
	Kind     string `json:"kind" jsonschema:"diagram kind: class, calls or architecture"`
	RepoPath string `json:"repoPath,omitempty" jsonschema:"repository to analyze first (default: the last analyzed repository)"`
}

// RenderDiagramOutput is the result of the render_diagram MCP tool.
type RenderDiagramOutput struct {
	Kind    export.DiagramKind `json:"kind"`
	Mermaid string             `json:"mermaid"`
}

// QuerySymbolsInput is the input for the query_symbols MCP tool.
type QuerySymbolsInput struct {
	Query string `json:"query" jsonschema:"search query for symbol names (substring match)"`
	Kind  string `json:"kind,omitempty" jsonschema:"filter by symbol kind: function, class, method"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QuerySymbolsOutput is the result of the query_symbols MCP tool.
type QuerySymbolsOutput struct {
	Symbols []graph.Symbol `json:"symbols"`
	Total   int            `json:"total"`
}

// GetRelationshipsInput is the input for the get_relationships MCP tool.
type GetRelationshipsInput struct {
	FilePath string `json:"filePath,omitempty" jsonschema:"repository-relative file path (default: every file)"`
}

// GetRelationshipsOutput is the result of the get_relationships MCP tool.
type GetRelationshipsOutput struct {
	Relationships []graph.FileRelationships `json:"relationships"`
}
