//go:build cgo

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersist(t *testing.T) {
	db := filepath.Join(t.TempDir(), "graph")
	out, _, err := execute(t, "persist", fixturePath(t), "-q", "--db", db)
	require.NoError(t, err)

	assert.Contains(t, out, "Graph stored at "+db)
	assert.Contains(t, out, "  Files:     3\n")
	assert.Contains(t, out, "  Classes:   4\n")

	_, err = os.Stat(db)
	assert.NoError(t, err)

	// A second run replaces the previous graph instead of appending to it.
	out, _, err = execute(t, "persist", fixturePath(t), "-q", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "  Files:     3\n")
}
