package graph

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyExtractor extracts functions, classes and imports from Python source.
//
// Definitions are collected breadth-first over statement nesting, so a file's
// top-level functions come before methods and methods before nested
// functions. block, decorated_definition and the else/finally clauses are
// flattened into their parent so nesting depth counts statements, not
// grammar wrappers. Functions cover every function_definition in the tree.
// A class lists the functions that are direct statements of its body,
// decorated ones included, except property accessors. parent_classes keeps
// plain identifier bases only: attribute access (abc.ABC), subscripted
// generics (Generic[T]), calls and keyword arguments (metaclass=...) are
// dropped rather than resolved.
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte, fa *FileAnalysis) {
	queue := []*tree_sitter.Node{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		e.visit(node, source, fa)
		queue = pyStatementChildren(queue, node)
	}
}

// CheckSyntax rejects the Python 2 print and exec statements, which the
// grammar still parses.
func (e *pyExtractor) CheckSyntax(root *tree_sitter.Node) error {
	for _, kind := range []string{"print_statement", "exec_statement"} {
		if node := firstDescendantOfKind(root, kind); node != nil {
			return fmt.Errorf("python 2 %s at line %d", strings.TrimSuffix(kind, "_statement"), lineOf(node))
		}
	}
	return nil
}

func (e *pyExtractor) visit(node *tree_sitter.Node, source []byte, fa *FileAnalysis) {
	switch node.Kind() {
	case "function_definition":
		if fn := e.extractFunction(node, source); fn != nil {
			fa.Functions = append(fa.Functions, *fn)
		}

	case "class_definition":
		if cls := e.extractClass(node, source); cls != nil {
			fa.Classes = append(fa.Classes, *cls)
		}

	case "import_statement":
		if imp := e.extractImport(node, source); imp != nil {
			fa.Imports = append(fa.Imports, *imp)
		}

	case "import_from_statement", "future_import_statement":
		fa.Imports = append(fa.Imports, e.extractFromImport(node, source))
	}
}

// pyFlattened are wrapper nodes whose children sit at their parent's depth.
var pyFlattened = map[string]bool{
	"block":                true,
	"decorated_definition": true,
	"else_clause":          true,
	"finally_clause":       true,
}

// pyStatementChildren appends node's named children to dst, replacing
// wrapper nodes with their own children.
func pyStatementChildren(dst []*tree_sitter.Node, node *tree_sitter.Node) []*tree_sitter.Node {
	for _, child := range namedChildren(node) {
		if pyFlattened[child.Kind()] {
			dst = pyStatementChildren(dst, child)
			continue
		}
		dst = append(dst, child)
	}
	return dst
}

func (e *pyExtractor) extractFunction(node *tree_sitter.Node, source []byte) *FunctionInfo {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	params := e.extractParameters(node.ChildByFieldName("parameters"), source)
	return &FunctionInfo{
		Name:       name,
		Signature:  synthesizeSignature("def", name, params),
		Docstring:  pyDocstring(node, source),
		Parameters: params,
		LineNumber: lineOf(node),
	}
}

// extractParameters lists every named parameter. Annotations, defaults and
// the * / ** markers are dropped; the bare * and / separators are skipped.
func (e *pyExtractor) extractParameters(paramsNode *tree_sitter.Node, source []byte) []Param {
	params := []Param{}
	for _, child := range namedChildren(paramsNode) {
		var name string
		switch child.Kind() {
		case "identifier":
			name = child.Utf8Text(source)
		case "typed_parameter":
			name = pyParamName(child.NamedChild(0), source)
		case "default_parameter", "typed_default_parameter":
			name = pyParamName(child.ChildByFieldName("name"), source)
		case "list_splat_pattern", "dictionary_splat_pattern":
			name = pyParamName(child, source)
		}
		if name != "" {
			params = append(params, newParam(name))
		}
	}
	return params
}

func pyParamName(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "identifier":
		return node.Utf8Text(source)
	case "list_splat_pattern", "dictionary_splat_pattern":
		return pyParamName(node.NamedChild(0), source)
	}
	return ""
}

func (e *pyExtractor) extractClass(node *tree_sitter.Node, source []byte) *ClassInfo {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	parents := []string{}
	for _, base := range namedChildren(node.ChildByFieldName("superclasses")) {
		if base.Kind() == "identifier" {
			parents = append(parents, base.Utf8Text(source))
		}
	}

	methods := []MethodInfo{}
	for _, stmt := range namedChildren(node.ChildByFieldName("body")) {
		if stmt.Kind() == "decorated_definition" {
			if pyIsProperty(stmt, source) {
				continue
			}
			stmt = stmt.ChildByFieldName("definition")
		}
		if stmt == nil || stmt.Kind() != "function_definition" {
			continue
		}
		if fn := e.extractFunction(stmt, source); fn != nil {
			methods = append(methods, MethodInfo{
				Name:      fn.Name,
				Signature: fn.Signature,
				Docstring: fn.Docstring,
			})
		}
	}

	return &ClassInfo{
		Name:          nameNode.Utf8Text(source),
		Docstring:     pyDocstring(node, source),
		Methods:       methods,
		ParentClasses: parents,
		LineNumber:    lineOf(node),
	}
}

// pyIsProperty reports whether a decorated definition is a property
// accessor: @property, @cached_property or @<name>.setter/getter/deleter.
func pyIsProperty(node *tree_sitter.Node, source []byte) bool {
	for _, child := range namedChildren(node) {
		if child.Kind() != "decorator" {
			continue
		}
		expr := strings.TrimSpace(strings.TrimPrefix(child.Utf8Text(source), "@"))
		switch {
		case expr == "property", expr == "cached_property", expr == "functools.cached_property":
			return true
		case strings.HasSuffix(expr, ".setter"), strings.HasSuffix(expr, ".getter"), strings.HasSuffix(expr, ".deleter"):
			return true
		}
	}
	return false
}

// extractImport handles "import a.b, c as d": module is the first dotted
// name, names lists every imported dotted name.
func (e *pyExtractor) extractImport(node *tree_sitter.Node, source []byte) *ImportInfo {
	names := []string{}
	for _, child := range namedChildren(node) {
		if name := pyImportedName(child, source); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return &ImportInfo{
		Module:     strPtr(names[0]),
		Names:      names,
		LineNumber: lineOf(node),
	}
}

// extractFromImport handles "from m import x, y as z" and the relative and
// wildcard forms. A purely relative module ("from . import x") has no module.
func (e *pyExtractor) extractFromImport(node *tree_sitter.Node, source []byte) ImportInfo {
	imp := ImportInfo{Names: []string{}, LineNumber: lineOf(node)}

	moduleNode := node.ChildByFieldName("module_name")
	switch {
	case node.Kind() == "future_import_statement":
		imp.Module = strPtr("__future__")
	case moduleNode != nil && moduleNode.Kind() == "dotted_name":
		imp.Module = strPtr(moduleNode.Utf8Text(source))
	case moduleNode != nil && moduleNode.Kind() == "relative_import":
		if dotted := firstDescendantOfKind(moduleNode, "dotted_name"); dotted != nil {
			imp.Module = strPtr(dotted.Utf8Text(source))
		}
	}

	for _, child := range namedChildren(node) {
		if sameNode(child, moduleNode) {
			continue
		}
		if child.Kind() == "wildcard_import" {
			imp.Names = append(imp.Names, "*")
			continue
		}
		if name := pyImportedName(child, source); name != "" {
			imp.Names = append(imp.Names, name)
		}
	}
	return imp
}

func pyImportedName(node *tree_sitter.Node, source []byte) string {
	switch node.Kind() {
	case "dotted_name":
		return node.Utf8Text(source)
	case "aliased_import":
		if name := node.ChildByFieldName("name"); name != nil {
			return name.Utf8Text(source)
		}
	}
	return ""
}

// pyDocstring returns the cleaned docstring of a function or class: the body's
// first statement when it is a plain string literal.
func pyDocstring(node *tree_sitter.Node, source []byte) *string {
	body := node.ChildByFieldName("body")
	for _, stmt := range namedChildren(body) {
		if stmt.Kind() == "comment" {
			continue
		}
		if stmt.Kind() != "expression_statement" || stmt.NamedChildCount() != 1 {
			return nil
		}
		lit := stmt.NamedChild(0)
		if lit == nil || lit.Kind() != "string" {
			return nil
		}
		text, ok := pyStringValue(lit.Utf8Text(source))
		if !ok {
			return nil
		}
		doc := cleanDoc(text)
		return &doc
	}
	return nil
}

// pyStringValue strips prefix and quotes from a Python string literal.
// f-strings and bytes literals are not docstrings and report false.
func pyStringValue(raw string) (string, bool) {
	i := 0
	for i < len(raw) && raw[i] != '"' && raw[i] != '\'' {
		i++
	}
	prefix := strings.ToLower(raw[:i])
	if strings.ContainsAny(prefix, "fb") {
		return "", false
	}
	body := raw[i:]

	var quote string
	switch {
	case strings.HasPrefix(body, `"""`), strings.HasPrefix(body, `'''`):
		quote = body[:3]
	case len(body) > 0:
		quote = body[:1]
	default:
		return "", false
	}
	if len(body) < 2*len(quote) {
		return "", false
	}
	body = strings.TrimSuffix(strings.TrimPrefix(body, quote), quote)

	if !strings.Contains(prefix, "r") {
		body = pyUnescape(body)
	}
	return body, true
}

var pyEscapes = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\t`, "\t",
	`\"`, `"`,
	`\'`, `'`,
	"\\\n", "",
)

func pyUnescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return pyEscapes.Replace(s)
}

// cleanDoc normalizes docstring indentation the way Python's inspect.cleandoc
// does: tabs expanded, the first line left-stripped, the common indentation of
// the remaining lines removed, and leading/trailing blank lines dropped.
func cleanDoc(doc string) string {
	lines := strings.Split(expandTabs(doc, 8), "\n")

	margin := -1
	for _, line := range lines[1:] {
		content := strings.TrimLeft(line, " \t\r\f\v")
		if content == "" {
			continue
		}
		indent := len(line) - len(content)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " \t\r\f\v")
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " ")
			}
		}
	}
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t\r")
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func expandTabs(s string, width int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := width - col%width
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}
