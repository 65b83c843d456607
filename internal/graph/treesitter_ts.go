package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

var (
	tsCommentKinds = map[string]bool{"comment": true}
	tsSkipKinds    = map[string]bool{"decorator": true}
)

// tsExtractor extracts functions, classes, interfaces and imports from
// TypeScript and TSX source. Functions include declarations, class methods
// and arrow functions bound by const/let. A class parent is recorded only
// when the extends clause is a plain identifier.
type tsExtractor struct{}

func (e *tsExtractor) Extract(root *tree_sitter.Node, source []byte, fa *FileAnalysis) {
	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, fa)
}

func (e *tsExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, fa *FileAnalysis) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration", "generator_function_declaration", "method_definition":
		if fn := e.extractFunction(node, node.ChildByFieldName("name"), node, source); fn != nil {
			fa.Functions = append(fa.Functions, *fn)
		}

	case "lexical_declaration":
		fa.Functions = append(fa.Functions, e.extractArrowFunctions(node, source)...)

	case "class_declaration", "abstract_class_declaration":
		if cls := e.extractClass(node, source); cls != nil {
			fa.Classes = append(fa.Classes, *cls)
		}

	case "interface_declaration":
		if cls := e.extractInterface(node, source); cls != nil {
			fa.Classes = append(fa.Classes, *cls)
		}

	case "import_statement":
		if imp := e.extractImport(node, source); imp != nil {
			fa.Imports = append(fa.Imports, *imp)
		}
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, fa)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, fa)
		}
		cursor.GotoParent()
	}
}

// extractFunction builds a FunctionInfo from a declaration node. fnNode holds
// the "parameters" field; docNode is where leading comments are looked up.
func (e *tsExtractor) extractFunction(fnNode, nameNode, docNode *tree_sitter.Node, source []byte) *FunctionInfo {
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	params := tsParameters(fnNode.ChildByFieldName("parameters"), source)
	return &FunctionInfo{
		Name:       name,
		Signature:  synthesizeSignature("function", name, params),
		Docstring:  tsDoc(docNode, source),
		Parameters: params,
		LineNumber: lineOf(docNode),
	}
}

// extractArrowFunctions handles "const foo = (a, b) => { ... }".
func (e *tsExtractor) extractArrowFunctions(node *tree_sitter.Node, source []byte) []FunctionInfo {
	var result []FunctionInfo
	for _, decl := range namedChildren(node) {
		if decl.Kind() != "variable_declarator" {
			continue
		}
		value := decl.ChildByFieldName("value")
		if value == nil || (value.Kind() != "arrow_function" && value.Kind() != "function_expression") {
			continue
		}
		if fn := e.extractFunction(value, decl.ChildByFieldName("name"), node, source); fn != nil {
			result = append(result, *fn)
		}
	}
	return result
}

func tsParameters(list *tree_sitter.Node, source []byte) []Param {
	params := []Param{}
	for _, p := range namedChildren(list) {
		switch p.Kind() {
		case "required_parameter", "optional_parameter":
			pattern := p.ChildByFieldName("pattern")
			if pattern == nil {
				continue
			}
			if pattern.Kind() == "rest_pattern" {
				pattern = firstDescendantOfKind(pattern, "identifier")
			}
			if pattern != nil && pattern.Kind() == "identifier" {
				params = append(params, newParam(pattern.Utf8Text(source)))
			}
		case "identifier":
			params = append(params, newParam(p.Utf8Text(source)))
		}
	}
	return params
}

func (e *tsExtractor) extractClass(node *tree_sitter.Node, source []byte) *ClassInfo {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	cls := &ClassInfo{
		Name:          nameNode.Utf8Text(source),
		Docstring:     tsDoc(node, source),
		Methods:       []MethodInfo{},
		ParentClasses: []string{},
		LineNumber:    lineOf(node),
	}

	for _, child := range namedChildren(node) {
		if child.Kind() != "class_heritage" {
			continue
		}
		for _, clause := range namedChildren(child) {
			if clause.Kind() != "extends_clause" {
				continue
			}
			for _, base := range namedChildren(clause) {
				if base.Kind() == "identifier" {
					cls.ParentClasses = append(cls.ParentClasses, base.Utf8Text(source))
				}
			}
		}
	}

	for _, member := range namedChildren(node.ChildByFieldName("body")) {
		if member.Kind() != "method_definition" {
			continue
		}
		if fn := e.extractFunction(member, member.ChildByFieldName("name"), member, source); fn != nil {
			cls.Methods = append(cls.Methods, MethodInfo{Name: fn.Name, Signature: fn.Signature, Docstring: fn.Docstring})
		}
	}
	return cls
}

func (e *tsExtractor) extractInterface(node *tree_sitter.Node, source []byte) *ClassInfo {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	cls := &ClassInfo{
		Name:          nameNode.Utf8Text(source),
		Docstring:     tsDoc(node, source),
		Methods:       []MethodInfo{},
		ParentClasses: []string{},
		LineNumber:    lineOf(node),
	}

	for _, child := range namedChildren(node) {
		if child.Kind() != "extends_type_clause" {
			continue
		}
		for _, base := range namedChildren(child) {
			if base.Kind() == "type_identifier" {
				cls.ParentClasses = append(cls.ParentClasses, base.Utf8Text(source))
			}
		}
	}

	for _, member := range namedChildren(node.ChildByFieldName("body")) {
		if member.Kind() != "method_signature" {
			continue
		}
		if fn := e.extractFunction(member, member.ChildByFieldName("name"), member, source); fn != nil {
			cls.Methods = append(cls.Methods, MethodInfo{Name: fn.Name, Signature: fn.Signature, Docstring: fn.Docstring})
		}
	}
	return cls
}

// extractImport maps "import a, { b, c as d } from 'm'" to
// {module: "m", names: ["a", "b", "c"]}. Namespace imports contribute "*".
func (e *tsExtractor) extractImport(node *tree_sitter.Node, source []byte) *ImportInfo {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	module := strings.Trim(sourceNode.Utf8Text(source), "\"'`")
	if module == "" {
		return nil
	}

	imp := &ImportInfo{Module: strPtr(module), Names: []string{}, LineNumber: lineOf(node)}
	for _, child := range namedChildren(node) {
		if child.Kind() != "import_clause" {
			continue
		}
		for _, part := range namedChildren(child) {
			switch part.Kind() {
			case "identifier":
				imp.Names = append(imp.Names, part.Utf8Text(source))
			case "namespace_import":
				imp.Names = append(imp.Names, "*")
			case "named_imports":
				for _, spec := range namedChildren(part) {
					if spec.Kind() != "import_specifier" {
						continue
					}
					if name := spec.ChildByFieldName("name"); name != nil {
						imp.Names = append(imp.Names, name.Utf8Text(source))
					}
				}
			}
		}
	}
	return imp
}

// tsDoc finds the comment above a declaration, looking past an enclosing
// export statement.
func tsDoc(node *tree_sitter.Node, source []byte) *string {
	if parent := node.Parent(); parent != nil && parent.Kind() == "export_statement" {
		node = parent
	}
	return leadingComment(node, source, tsCommentKinds, tsSkipKinds)
}
