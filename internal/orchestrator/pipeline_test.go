package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codegenius/internal/config"
	"github.com/dusk-indust/codegenius/internal/export"
	"github.com/dusk-indust/codegenius/internal/graph"
)

// writeRepo lays out files (slash paths -> content) under a temp dir.
func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func demoRepo(t *testing.T) string {
	return writeRepo(t, map[string]string{
		"README.md":                  "# Demo\n",
		"app/models.py":              modelsPy,
		"app/main.py":                mainPy,
		"notes.txt":                  "plain notes",
		"node_modules/dep/index.ts":  "export function dep() {}\n",
		"app/__pycache__/models.pyc": "\x00\x01",
	})
}

// drain closes the pipeline and collects every buffered event.
func drain(p *Pipeline) []ProgressEvent {
	p.Close()
	var events []ProgressEvent
	for ev := range p.Progress() {
		events = append(events, ev)
	}
	return events
}

func TestPipeline_Run(t *testing.T) {
	root := demoRepo(t)
	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)

	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(root), report.Name)
	assert.Equal(t, "README.md", report.ReadmePath)
	assert.Equal(t, "# Demo\n", report.Readme)
	assert.Equal(t, 4, report.Tree.FileCount())
	assert.Equal(t,
		[]string{"README.md", "app/main.py", "app/models.py", "notes.txt"},
		report.Graph.Paths())
	assert.Empty(t, report.Skipped)
	assert.Contains(t, report.Diagrams.Class, "Base <|-- User")
	assert.Contains(t, report.Diagrams.Architecture, "F[Total Files: 4] --> E")

	var stages []Stage
	for _, ev := range drain(p) {
		if ev.Status == ProgressComplete {
			stages = append(stages, ev.Stage)
		}
	}
	assert.Equal(t, []Stage{StageWalk, StageReadme, StageParse, StageRelationships, StageDiagrams}, stages)
}

func TestPipeline_RunWithConfig(t *testing.T) {
	root := demoRepo(t)
	cfg := config.Default()
	cfg.ExcludeGlobs = []string{"**/*.txt"}
	cfg.ExcludeDirs = []string{"app"}
	cfg.Workers = 1

	p, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md"}, report.Graph.Paths())
	assert.Equal(t, "classDiagram\n", report.Diagrams.Class)
}

func TestPipeline_ExtensionMapping(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"stubs/models.pyi": "class Stub:\n    def get(self): ...\n",
	})
	cfg := config.Default()
	cfg.Extensions = map[string]string{".pyi": "python"}

	p, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	fa, ok := report.Graph.Get("stubs/models.pyi")
	require.True(t, ok)
	assert.Equal(t, graph.LangPython, fa.Language)
	assert.Contains(t, report.Diagrams.Class, "class Stub {")

	cfg.Extensions = map[string]string{".x": "cobol"}
	_, err = NewPipeline(cfg, nil)
	assert.ErrorIs(t, err, graph.ErrUnsupportedLanguage)
}

func TestPipeline_MaxFileSize(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"main.py":        "def main():\n    pass\n",
		"assets/big.dat": strings.Repeat("x", 4096),
	})
	cfg := config.Default()
	cfg.MaxFileSize = 1024

	p, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Tree.FileCount())
	assert.Equal(t, []string{"main.py"}, report.Graph.Paths())
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "assets/big.dat", report.Skipped[0].Path)
	assert.Equal(t, graph.SkipTooLarge, report.Skipped[0].Reason)
}

func TestPipeline_RunTwiceIsStable(t *testing.T) {
	root := demoRepo(t)
	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)
	defer p.Close()

	first, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, first.Graph.Paths(), second.Graph.Paths())
	assert.Equal(t, first.Diagrams, second.Diagrams)
	assert.Equal(t, first.Relationships, second.Relationships)
}

func TestPipeline_NoReadme(t *testing.T) {
	root := writeRepo(t, map[string]string{"main.py": "def main():\n    pass\n"})
	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)
	defer p.Close()

	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, report.ReadmePath)
	assert.Empty(t, report.Readme)
	assert.Equal(t, 1, report.Graph.Len())
}

func TestPipeline_MissingRoot(t *testing.T) {
	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	events := drain(p)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, StageWalk, last.Stage)
	assert.Equal(t, ProgressFailed, last.Status)
}

func TestPipeline_InvalidLanguage(t *testing.T) {
	cfg := config.Default()
	cfg.Languages = []string{"fortran"}
	_, err := NewPipeline(cfg, nil)
	assert.Error(t, err)
}

func TestReport_Export(t *testing.T) {
	root := demoRepo(t)
	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)
	defer p.Close()

	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)

	exp := report.Export()
	assert.Equal(t, report.Name, exp.Name)
	assert.Equal(t, 4, exp.Stats.FileCount)
	assert.Len(t, exp.Relationships, 4)
	assert.Equal(t, report.Diagrams.CallGraph, exp.Diagrams[export.DiagramCalls])
}
