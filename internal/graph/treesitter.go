package graph

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// extractor fills a FileAnalysis from a parsed tree-sitter AST.
type extractor interface {
	Extract(root *tree_sitter.Node, source []byte, fa *FileAnalysis)
}

// syntaxChecker is implemented by extractors whose grammar accepts forms the
// language's own compiler rejects.
type syntaxChecker interface {
	CheckSyntax(root *tree_sitter.Node) error
}

// TreeSitterParser is the syntax-tree LanguageParser variant: one grammar and
// one extractor per instance. A new tree-sitter parser is created per Parse
// call, so a TreeSitterParser may be shared by concurrent workers.
type TreeSitterParser struct {
	lang      Language
	language  *tree_sitter.Language
	extractor extractor
}

var _ LanguageParser = (*TreeSitterParser)(nil)

// NewTreeSitterParser returns the syntax-tree parser for lang.
func NewTreeSitterParser(lang Language) (*TreeSitterParser, error) {
	var (
		grammar *tree_sitter.Language
		ext     extractor
	)
	switch lang {
	case LangPython:
		grammar = tree_sitter.NewLanguage(tree_sitter_python.Language())
		ext = &pyExtractor{}
	case LangGo:
		grammar = tree_sitter.NewLanguage(tree_sitter_go.Language())
		ext = &goExtractor{}
	case LangTypeScript:
		grammar = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		ext = &tsExtractor{}
	case LangTSX:
		grammar = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
		ext = &tsExtractor{}
	case LangRust:
		grammar = tree_sitter.NewLanguage(tree_sitter_rust.Language())
		ext = &rsExtractor{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	return &TreeSitterParser{lang: lang, language: grammar, extractor: ext}, nil
}

// Language reports which grammar this parser uses.
func (p *TreeSitterParser) Language() Language {
	return p.lang
}

// Parse decodes source, builds a syntax tree and extracts functions, classes
// and imports. A tree containing ERROR or MISSING nodes yields ErrSyntax.
func (p *TreeSitterParser) Parse(path string, source []byte) (*FileAnalysis, error) {
	text, _, err := Decode(source)
	if err != nil {
		return nil, err
	}
	src := []byte(text)

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("set language %s: %w", p.lang, err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: tree-sitter returned nil tree for %s", ErrSyntax, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, path)
	}
	if checker, ok := p.extractor.(syntaxChecker); ok {
		if err := checker.CheckSyntax(root); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSyntax, path, err)
		}
	}

	fa := newAnalysis(path, p.lang)
	p.extractor.Extract(root, src, fa)
	return fa, nil
}

// --- shared helpers for the grammar extractors ---

// lineOf returns the 1-based line a node starts on.
func lineOf(node *tree_sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// sameNode reports whether a and b cover the same source span.
func sameNode(a, b *tree_sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

// namedChildren returns node's named children in source order.
func namedChildren(node *tree_sitter.Node) []*tree_sitter.Node {
	if node == nil {
		return nil
	}
	count := node.NamedChildCount()
	out := make([]*tree_sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := node.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// firstDescendantOfKind does a pre-order search for the first node of kind.
func firstDescendantOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	if node.Kind() == kind {
		return node
	}
	for _, child := range namedChildren(node) {
		if found := firstDescendantOfKind(child, kind); found != nil {
			return found
		}
	}
	return nil
}

// synthesizeSignature renders "<keyword> <name>(<p1, p2>)".
func synthesizeSignature(keyword, name string, params []Param) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return fmt.Sprintf("%s %s(%s)", keyword, name, strings.Join(names, ", "))
}

func newParam(name string) Param {
	return Param{Name: name, Type: UnknownType}
}

// leadingComment gathers the block of comments that ends on the line right
// above node, skipping nodes whose kind is in skip (attributes, decorators).
// Returns nil when there is no such block.
func leadingComment(node *tree_sitter.Node, source []byte, commentKinds, skip map[string]bool) *string {
	var lines []string
	wantRow := node.StartPosition().Row
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		kind := prev.Kind()
		if skip[kind] {
			wantRow = prev.StartPosition().Row
			continue
		}
		if !commentKinds[kind] {
			break
		}
		if prev.EndPosition().Row+1 != wantRow && prev.EndPosition().Row != wantRow {
			break
		}
		lines = append([]string{stripCommentMarkers(prev.Utf8Text(source))}, lines...)
		wantRow = prev.StartPosition().Row
	}
	doc := strings.TrimSpace(strings.Join(lines, "\n"))
	if doc == "" {
		return nil
	}
	return &doc
}

// stripCommentMarkers removes //, ///, //!, /* */ and leading * decorations.
func stripCommentMarkers(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/*") {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		text = strings.TrimPrefix(text, "*")
		var out []string
		for _, l := range strings.Split(text, "\n") {
			l = strings.TrimSpace(l)
			l = strings.TrimSpace(strings.TrimPrefix(l, "*"))
			out = append(out, l)
		}
		return strings.TrimSpace(strings.Join(out, "\n"))
	}
	for _, prefix := range []string{"///", "//!", "//"} {
		if strings.HasPrefix(text, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	return text
}
