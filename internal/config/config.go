package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvLogLevel = "CODEGENIUS_LOG_LEVEL"
	EnvWorkers  = "CODEGENIUS_WORKERS"
)

// DefaultMaxFileSize is the largest file, in bytes, read for analysis.
const DefaultMaxFileSize = 2 << 20

// FileNames are the config file names Load looks for, in order.
var FileNames = []string{"codegenius.yml", "codegenius.yaml"}

// ProjectConfig holds project-level settings loaded from codegenius.yml.
type ProjectConfig struct {
	OutputDir     string   `yaml:"outputDir,omitempty"`
	ExcludeDirs   []string `yaml:"excludeDirs,omitempty"`
	ExcludeGlobs  []string `yaml:"excludeGlobs,omitempty"`
	Languages     []string `yaml:"languages,omitempty"`
	Workers       int      `yaml:"workers,omitempty"`
	CacheSize     int      `yaml:"cacheSize,omitempty"`
	MaxFileSize   int64    `yaml:"maxFileSize,omitempty"`
	LogLevel      string   `yaml:"logLevel,omitempty"`
	IncludeHidden bool     `yaml:"includeHidden,omitempty"`

	// Extensions maps extra file extensions to a language, e.g. ".pyi": python.
	Extensions map[string]string `yaml:"extensions,omitempty"`
}

// Default returns the settings used when no config file exists.
func Default() *ProjectConfig {
	return &ProjectConfig{
		OutputDir:   filepath.Join("docs", "codegenius"),
		Workers:     runtime.NumCPU(),
		CacheSize:   4096,
		MaxFileSize: DefaultMaxFileSize,
		LogLevel:    "info",
	}
}

// LoadEnv loads a .env file into the process environment; variables already
// set win. A missing file is not an error. Callers pass the tool's own .env,
// never one from a repository being analyzed.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads codegenius.yml or codegenius.yaml from dir, filling unset fields
// from Default, then applies CODEGENIUS_* environment overrides. A missing
// config file is not an error.
func Load(dir string) (*ProjectConfig, error) {
	cfg := Default()
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var fileCfg ProjectConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		cfg.merge(fileCfg)
		break
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ProjectConfig) merge(o ProjectConfig) {
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if len(o.ExcludeDirs) > 0 {
		c.ExcludeDirs = o.ExcludeDirs
	}
	if len(o.ExcludeGlobs) > 0 {
		c.ExcludeGlobs = o.ExcludeGlobs
	}
	if len(o.Languages) > 0 {
		c.Languages = o.Languages
	}
	if len(o.Extensions) > 0 {
		c.Extensions = o.Extensions
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
	if o.CacheSize != 0 {
		c.CacheSize = o.CacheSize
	}
	if o.MaxFileSize != 0 {
		c.MaxFileSize = o.MaxFileSize
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	c.IncludeHidden = c.IncludeHidden || o.IncludeHidden
}

func (c *ProjectConfig) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *ProjectConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cacheSize must be >= 0, got %d", c.CacheSize)
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("maxFileSize must be >= 0, got %d", c.MaxFileSize)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level; invalid values were rejected
// by Validate, so this falls back to info only for hand-built configs.
func (c *ProjectConfig) SlogLevel() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel maps debug|info|warn|error (case-insensitive) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logLevel %q: %w", s, err)
	}
	return lvl, nil
}
