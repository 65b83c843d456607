package graph

// --- Enums ---

// Language identifies which parser variant produced a FileAnalysis.
type Language string

const (
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangRust       Language = "rust"
	LangJac        Language = "jac"
	LangGeneric    Language = "generic"
)

// DependencyKind classifies entries in Relationships.Dependencies.
type DependencyKind string

const (
	DependencyImport DependencyKind = "import"
)

// EdgeKind classifies entries in Relationships.Edges.
type EdgeKind string

const (
	EdgeKindDefines EdgeKind = "defines"
)

// UnknownType is the type recorded for every parameter. Types are never resolved.
const UnknownType = "unknown"

// --- Models ---

// FileAnalysis is the structural extraction result for one source file.
type FileAnalysis struct {
	FilePath  string         `json:"file_path"`
	Language  Language       `json:"language"`
	Functions []FunctionInfo `json:"functions"`
	Classes   []ClassInfo    `json:"classes"`
	Imports   []ImportInfo   `json:"imports"`

	// ContentPreview is only set by the generic variant.
	ContentPreview string `json:"content_preview,omitempty"`
}

// FunctionInfo describes a function declaration.
type FunctionInfo struct {
	Name       string  `json:"name"`
	Signature  string  `json:"signature"` // synthesized, not source-verbatim
	Docstring  *string `json:"docstring"`
	Parameters []Param `json:"parameters"`
	LineNumber int     `json:"line_number"`

	// Calls is reserved for call-graph extraction. No extractor fills it yet.
	Calls []string `json:"calls,omitempty"`
}

// Param is a declared parameter. Type is always UnknownType.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ClassInfo describes a class-like declaration.
type ClassInfo struct {
	Name          string       `json:"name"`
	Docstring     *string      `json:"docstring"`
	Methods       []MethodInfo `json:"methods"`
	ParentClasses []string     `json:"parent_classes"`
	LineNumber    int          `json:"line_number"`
}

// MethodInfo is a method declared directly in a class body.
type MethodInfo struct {
	Name      string  `json:"name"`
	Signature string  `json:"signature"`
	Docstring *string `json:"docstring"`
}

// ImportInfo normalizes "import m" and "from m import n" forms.
type ImportInfo struct {
	Module     *string  `json:"module"`
	Names      []string `json:"names"`
	LineNumber int      `json:"line_number"`
}

// Relationships are the edges and dependencies derived from one FileAnalysis.
type Relationships struct {
	Edges        []Edge       `json:"edges"`
	Dependencies []Dependency `json:"dependencies"`
}

// Edge links a file to something it defines.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeKind `json:"type"`
}

// Dependency records one import of a file.
type Dependency struct {
	Type    DependencyKind `json:"type"`
	Module  *string        `json:"module"`
	Imports []string       `json:"imports"`
}

// GraphStats summarizes a code graph.
type GraphStats struct {
	FileCount     int `json:"fileCount"`
	FunctionCount int `json:"functionCount"`
	ClassCount    int `json:"classCount"`
	ImportCount   int `json:"importCount"`
}

func newAnalysis(path string, lang Language) *FileAnalysis {
	return &FileAnalysis{
		FilePath:  path,
		Language:  lang,
		Functions: []FunctionInfo{},
		Classes:   []ClassInfo{},
		Imports:   []ImportInfo{},
	}
}

func strPtr(s string) *string {
	return &s
}
