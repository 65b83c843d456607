package graph

// BuildRelationships derives the import dependencies and "defines" edges of
// one file. Call edges are not produced: FunctionInfo.Calls is reserved and
// no extractor fills it.
func BuildRelationships(fa *FileAnalysis) Relationships {
	rel := Relationships{
		Edges:        make([]Edge, 0, len(fa.Functions)),
		Dependencies: make([]Dependency, 0, len(fa.Imports)),
	}

	for _, imp := range fa.Imports {
		names := make([]string, len(imp.Names))
		copy(names, imp.Names)
		rel.Dependencies = append(rel.Dependencies, Dependency{
			Type:    DependencyImport,
			Module:  imp.Module,
			Imports: names,
		})
	}

	for _, fn := range fa.Functions {
		rel.Edges = append(rel.Edges, Edge{
			Source: fa.FilePath,
			Target: "function:" + fn.Name,
			Type:   EdgeKindDefines,
		})
	}

	return rel
}

// FileRelationships pairs a file path with its relationships.
type FileRelationships struct {
	Path          string        `json:"path"`
	Relationships Relationships `json:"relationships"`
}

// BuildAllRelationships runs BuildRelationships over g in insertion order.
// Results stay per file; nothing is merged across files.
func BuildAllRelationships(g *CodeGraph) []FileRelationships {
	out := make([]FileRelationships, 0, g.Len())
	g.Each(func(path string, fa *FileAnalysis) bool {
		out = append(out, FileRelationships{Path: path, Relationships: BuildRelationships(fa)})
		return true
	})
	return out
}
