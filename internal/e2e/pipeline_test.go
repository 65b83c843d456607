//go:build e2e

package e2e

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codegenius/internal/config"
	"github.com/dusk-indust/codegenius/internal/graph"
	"github.com/dusk-indust/codegenius/internal/orchestrator"
)

func runFixtures(t *testing.T, workers int) *orchestrator.Report {
	t.Helper()
	cfg := config.Default()
	cfg.Workers = workers

	pipeline, err := orchestrator.NewPipeline(cfg, nil)
	require.NoError(t, err)
	defer pipeline.Close()

	report, err := pipeline.Run(context.Background(), filepath.Join("..", "..", "testdata", "fixtures"))
	require.NoError(t, err)
	return report
}

// TestPipeline_AllFixtures runs every fixture project as one repository.
func TestPipeline_AllFixtures(t *testing.T) {
	report := runFixtures(t, 4)

	assert.Equal(t, "fixtures", report.Name)
	assert.Equal(t, 10, report.Tree.FileCount())
	assert.Equal(t, 9, report.Graph.Len())
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "py_project/broken.py", report.Skipped[0].Path)

	languages := map[graph.Language]int{}
	for _, fa := range report.Graph.Files() {
		languages[fa.Language]++
	}
	assert.Equal(t, map[graph.Language]int{
		graph.LangGo:         3,
		graph.LangJac:        1,
		graph.LangPython:     3,
		graph.LangRust:       1,
		graph.LangTypeScript: 1,
	}, languages)
}

// TestPipeline_Deterministic checks that worker count does not change output.
func TestPipeline_Deterministic(t *testing.T) {
	seq := runFixtures(t, 1)
	par := runFixtures(t, 8)

	assert.Equal(t, seq.Graph.Paths(), par.Graph.Paths())
	assert.Equal(t, seq.Relationships, par.Relationships)
	assert.Equal(t, seq.Skipped, par.Skipped)
	assert.Equal(t, seq.Diagrams, par.Diagrams)
}
