package graph

import (
	"errors"
	"path/filepath"
)

var (
	// ErrDecode means the content is neither UTF-8 nor Latin-1 text.
	ErrDecode = errors.New("content is not decodable text")

	// ErrSyntax means a grammar-based parse found syntax errors.
	ErrSyntax = errors.New("syntax error")

	// ErrUnsupportedLanguage is returned by TreeSitterParser for languages
	// without a registered grammar.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrTooLarge means a file is over the configured read limit.
	ErrTooLarge = errors.New("file exceeds size limit")
)

// Descriptor is one input file: a path, its extension and raw bytes.
// When Content is nil, Load supplies it on demand; the Builder calls Load from
// a worker, so only the files being parsed are held in memory.
type Descriptor struct {
	Path      string
	Extension string
	Content   []byte
	Load      func() ([]byte, error)
}

// Source returns the descriptor's bytes, calling Load when Content is unset.
func (d Descriptor) Source() ([]byte, error) {
	if d.Content != nil || d.Load == nil {
		return d.Content, nil
	}
	return d.Load()
}

// Ext returns the descriptor's extension, falling back to the path suffix.
func (d Descriptor) Ext() string {
	if d.Extension != "" {
		return d.Extension
	}
	return filepath.Ext(d.Path)
}

// LanguageParser extracts a FileAnalysis from one file's bytes.
// Implementations: TreeSitterParser variants, HeuristicParser, GenericParser.
//
// Recoverable failures are reported as ErrDecode or ErrSyntax. Callers treat
// both as "no analysis for this file" and carry on.
type LanguageParser interface {
	Parse(path string, source []byte) (*FileAnalysis, error)
}
