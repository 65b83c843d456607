package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the override variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvLogLevel, EnvWorkers} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "codegenius.yml", `
outputDir: out/docs
excludeDirs: [vendor, third_party]
excludeGlobs: ["**/*_gen.go"]
languages: [python, go]
workers: 3
logLevel: debug
includeHidden: true
extensions:
  .pyi: python
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "out/docs", cfg.OutputDir)
	assert.Equal(t, []string{"vendor", "third_party"}, cfg.ExcludeDirs)
	assert.Equal(t, []string{"**/*_gen.go"}, cfg.ExcludeGlobs)
	assert.Equal(t, []string{"python", "go"}, cfg.Languages)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 4096, cfg.CacheSize, "unset fields keep defaults")
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.True(t, cfg.IncludeHidden)
	assert.Equal(t, map[string]string{".pyi": "python"}, cfg.Extensions)
}

func TestLoad_YAMLAlternateName(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "codegenius.yaml", "cacheSize: 16\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.CacheSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "codegenius.yml", "workers: 3\nlogLevel: debug\n")
	writeFile(t, dir, ".env", EnvWorkers+"=7\n"+EnvLogLevel+"=warn\n")
	require.NoError(t, LoadEnv(filepath.Join(dir, ".env")))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestLoad_ProcessEnvBeatsDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvWorkers, "2")
	dir := t.TempDir()
	writeFile(t, dir, ".env", EnvWorkers+"=9\n")
	require.NoError(t, LoadEnv(filepath.Join(dir, ".env")))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoad_IgnoresDotEnvInDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, ".env", EnvWorkers+"=9\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	_, set := os.LookupEnv(EnvWorkers)
	assert.False(t, set, "an analyzed directory must not change the process environment")
}

func TestLoadEnv_Missing(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoad_MaxFileSize(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "codegenius.yml", "maxFileSize: 1024\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), cfg.MaxFileSize)

	cfg, err = Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.MaxFileSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  string
	}{
		{"bad yaml", "workers: [1\n", ""},
		{"negative workers", "workers: -1\n", ""},
		{"negative max file size", "maxFileSize: -1\n", ""},
		{"bad level", "logLevel: loud\n", ""},
		{"bad env workers", "", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.env != "" {
				t.Setenv(EnvWorkers, tt.env)
			}
			dir := t.TempDir()
			if tt.file != "" {
				writeFile(t, dir, "codegenius.yml", tt.file)
			}
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
