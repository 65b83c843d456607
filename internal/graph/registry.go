package graph

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultExtensions maps file extensions to the language variant that
// handles them. Anything else goes to GenericParser.
var DefaultExtensions = map[string]Language{
	".py":  LangPython,
	".go":  LangGo,
	".ts":  LangTypeScript,
	".tsx": LangTSX,
	".rs":  LangRust,
	".jac": LangJac,
}

// Registry dispatches descriptors to a LanguageParser by extension. The set of
// variants is closed: supporting a new language means registering a new
// parser, not changing an existing one.
type Registry struct {
	byExt    map[string]LanguageParser
	fallback LanguageParser
}

// NewRegistry builds a Registry for the given languages; no languages means
// every language in DefaultExtensions. Disabled languages fall through to the
// generic variant.
func NewRegistry(langs ...Language) (*Registry, error) {
	enabled := make(map[Language]bool, len(langs))
	for _, l := range langs {
		if !isKnownLanguage(l) {
			return nil, fmt.Errorf("registry: %w: %s", ErrUnsupportedLanguage, l)
		}
		enabled[l] = true
	}

	r := &Registry{
		byExt:    make(map[string]LanguageParser),
		fallback: GenericParser{},
	}
	built := make(map[Language]LanguageParser)
	for ext, lang := range DefaultExtensions {
		if len(enabled) > 0 && !enabled[lang] {
			continue
		}
		p, ok := built[lang]
		if !ok {
			var err error
			p, err = newLanguageParser(lang)
			if err != nil {
				return nil, err
			}
			built[lang] = p
		}
		r.byExt[ext] = p
	}
	return r, nil
}

func newLanguageParser(lang Language) (LanguageParser, error) {
	switch lang {
	case LangJac:
		return NewHeuristicParser(JacRules), nil
	case LangGeneric:
		return GenericParser{}, nil
	default:
		p, err := NewTreeSitterParser(lang)
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		return p, nil
	}
}

// Register binds ext (with leading dot) to p, replacing any previous binding.
func (r *Registry) Register(ext string, p LanguageParser) {
	r.byExt[strings.ToLower(ext)] = p
}

// Map binds ext to the parser for lang: the one already serving lang when the
// language is enabled, a new one otherwise.
func (r *Registry) Map(ext string, lang Language) error {
	if ext == "" {
		return fmt.Errorf("registry: empty extension for %s", lang)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for known, l := range DefaultExtensions {
		if l != lang {
			continue
		}
		if p, ok := r.byExt[known]; ok {
			r.Register(ext, p)
			return nil
		}
	}
	if lang != LangGeneric && !isKnownLanguage(lang) {
		return fmt.Errorf("registry: %w: %s", ErrUnsupportedLanguage, lang)
	}
	p, err := newLanguageParser(lang)
	if err != nil {
		return err
	}
	r.Register(ext, p)
	return nil
}

func isKnownLanguage(lang Language) bool {
	for _, l := range DefaultExtensions {
		if l == lang {
			return true
		}
	}
	return false
}

// ParserFor returns the parser for ext, or the generic fallback.
func (r *Registry) ParserFor(ext string) LanguageParser {
	if p, ok := r.byExt[strings.ToLower(ext)]; ok {
		return p
	}
	return r.fallback
}

// Parse dispatches d to its parser.
func (r *Registry) Parse(d Descriptor) (*FileAnalysis, error) {
	content, err := d.Source()
	if err != nil {
		return nil, err
	}
	return r.ParserFor(d.Ext()).Parse(d.Path, content)
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
