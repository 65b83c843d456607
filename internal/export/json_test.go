package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codegenius/internal/graph"
)

func TestAnalysisExport_JSON(t *testing.T) {
	module := "os"
	g := mustGraph(t,
		&graph.FileAnalysis{
			FilePath:  "a.py",
			Language:  graph.LangPython,
			Functions: []graph.FunctionInfo{fn("run")},
			Classes:   []graph.ClassInfo{},
			Imports:   []graph.ImportInfo{{Module: &module, Names: []string{"os"}, LineNumber: 1}},
		},
	)

	exp := NewAnalysisExport("demo", g, nil,
		[]graph.SkippedFile{{Path: "bad.py", Reason: graph.SkipSyntax}},
		map[DiagramKind]string{DiagramClass: ClassDiagram(g)},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, exp))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "demo", decoded["name"])
	assert.NotEmpty(t, decoded["exportedAt"])

	stats := decoded["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["fileCount"])
	assert.Equal(t, float64(1), stats["importCount"])

	files := decoded["files"].([]any)
	require.Len(t, files, 1)
	assert.Equal(t, "a.py", files[0].(map[string]any)["file_path"])

	rels := decoded["relationships"].([]any)
	require.Len(t, rels, 1)
	edges := rels[0].(map[string]any)["relationships"].(map[string]any)["edges"].([]any)
	require.Len(t, edges, 1)
	assert.Equal(t, "function:run", edges[0].(map[string]any)["target"])

	skipped := decoded["skipped"].([]any)
	assert.Equal(t, "syntax", skipped[0].(map[string]any)["reason"])

	diagrams := decoded["diagrams"].(map[string]any)
	assert.Contains(t, diagrams["class"], "classDiagram")
}

func TestWriteJSONFile(t *testing.T) {
	g := mustGraph(t, &graph.FileAnalysis{FilePath: "a.py"})
	path := filepath.Join(t.TempDir(), "out", "analysis.json")

	require.NoError(t, WriteJSONFile(path, NewAnalysisExport("x", g, nil, nil, nil)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}
