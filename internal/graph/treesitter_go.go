package graph

import (
	"path"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

var goCommentKinds = map[string]bool{"comment": true}

// goExtractor extracts functions, struct/interface types and imports from Go
// source. Methods are attached to the struct declared in the same file whose
// name matches the receiver type; embedded plain type names become parents.
type goExtractor struct{}

// goMethod is a method_declaration waiting to be attached to its receiver.
type goMethod struct {
	receiver string
	method   MethodInfo
}

func (e *goExtractor) Extract(root *tree_sitter.Node, source []byte, fa *FileAnalysis) {
	var methods []goMethod

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, fa, &methods)

	byName := make(map[string]int, len(fa.Classes))
	for i, cls := range fa.Classes {
		if _, ok := byName[cls.Name]; !ok {
			byName[cls.Name] = i
		}
	}
	for _, m := range methods {
		if i, ok := byName[m.receiver]; ok {
			fa.Classes[i].Methods = append(fa.Classes[i].Methods, m.method)
		}
	}
}

func (e *goExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, fa *FileAnalysis, methods *[]goMethod) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration":
		if fn := e.extractFunction(node, source); fn != nil {
			fa.Functions = append(fa.Functions, *fn)
		}

	case "method_declaration":
		if fn := e.extractFunction(node, source); fn != nil {
			fa.Functions = append(fa.Functions, *fn)
			if recv := goReceiverType(node, source); recv != "" {
				*methods = append(*methods, goMethod{
					receiver: recv,
					method:   MethodInfo{Name: fn.Name, Signature: fn.Signature, Docstring: fn.Docstring},
				})
			}
		}

	case "type_spec":
		if cls := e.extractTypeSpec(node, source); cls != nil {
			fa.Classes = append(fa.Classes, *cls)
		}

	case "import_spec":
		if imp := e.extractImport(node, source); imp != nil {
			fa.Imports = append(fa.Imports, *imp)
		}
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, fa, methods)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, fa, methods)
		}
		cursor.GotoParent()
	}
}

func (e *goExtractor) extractFunction(node *tree_sitter.Node, source []byte) *FunctionInfo {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	params := goParameters(node.ChildByFieldName("parameters"), source)
	return &FunctionInfo{
		Name:       name,
		Signature:  synthesizeSignature("func", name, params),
		Docstring:  leadingComment(node, source, goCommentKinds, nil),
		Parameters: params,
		LineNumber: lineOf(node),
	}
}

// goParameters lists named parameters; "a, b int" yields two entries and
// unnamed parameters are skipped.
func goParameters(list *tree_sitter.Node, source []byte) []Param {
	params := []Param{}
	for _, decl := range namedChildren(list) {
		switch decl.Kind() {
		case "parameter_declaration", "variadic_parameter_declaration":
			for _, child := range namedChildren(decl) {
				if child.Kind() == "identifier" {
					params = append(params, newParam(child.Utf8Text(source)))
				}
			}
		}
	}
	return params
}

// goReceiverType returns the bare type name of a method receiver
// ("(s *Server)" -> "Server").
func goReceiverType(node *tree_sitter.Node, source []byte) string {
	recv := node.ChildByFieldName("receiver")
	for _, decl := range namedChildren(recv) {
		if decl.Kind() != "parameter_declaration" {
			continue
		}
		if ident := firstDescendantOfKind(decl.ChildByFieldName("type"), "type_identifier"); ident != nil {
			return ident.Utf8Text(source)
		}
	}
	return ""
}

// extractTypeSpec turns struct and interface type specs into classes. Other
// named types (aliases, func types) are not class-like and are skipped.
func (e *goExtractor) extractTypeSpec(node *tree_sitter.Node, source []byte) *ClassInfo {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return nil
	}

	cls := &ClassInfo{
		Name:          nameNode.Utf8Text(source),
		Methods:       []MethodInfo{},
		ParentClasses: []string{},
		LineNumber:    lineOf(node),
	}

	// A lone spec takes the comment above the "type" keyword; grouped specs
	// carry their own.
	docNode := node
	if parent := node.Parent(); parent != nil && parent.Kind() == "type_declaration" && parent.NamedChildCount() == 1 {
		docNode = parent
	}
	cls.Docstring = leadingComment(docNode, source, goCommentKinds, nil)

	switch typeNode.Kind() {
	case "struct_type":
		fields := firstDescendantOfKind(typeNode, "field_declaration_list")
		for _, field := range namedChildren(fields) {
			if field.Kind() != "field_declaration" || field.ChildByFieldName("name") != nil {
				continue
			}
			if t := field.ChildByFieldName("type"); t != nil && t.Kind() == "type_identifier" {
				cls.ParentClasses = append(cls.ParentClasses, t.Utf8Text(source))
			}
		}

	case "interface_type":
		for _, elem := range namedChildren(typeNode) {
			switch elem.Kind() {
			case "method_elem", "method_spec":
				name := elem.ChildByFieldName("name")
				if name == nil {
					continue
				}
				params := goParameters(elem.ChildByFieldName("parameters"), source)
				cls.Methods = append(cls.Methods, MethodInfo{
					Name:      name.Utf8Text(source),
					Signature: synthesizeSignature("func", name.Utf8Text(source), params),
					Docstring: leadingComment(elem, source, goCommentKinds, nil),
				})
			case "type_elem":
				if elem.NamedChildCount() == 1 {
					if t := elem.NamedChild(0); t != nil && t.Kind() == "type_identifier" {
						cls.ParentClasses = append(cls.ParentClasses, t.Utf8Text(source))
					}
				}
			case "type_identifier":
				cls.ParentClasses = append(cls.ParentClasses, elem.Utf8Text(source))
			}
		}

	default:
		return nil
	}
	return cls
}

// extractImport maps an import spec to {module: path, names: [local name]}.
// The local name is the alias when present, else the last path element.
func (e *goExtractor) extractImport(node *tree_sitter.Node, source []byte) *ImportInfo {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return nil
	}
	importPath := strings.Trim(pathNode.Utf8Text(source), "\"`")
	if importPath == "" {
		return nil
	}

	local := path.Base(importPath)
	if alias := node.ChildByFieldName("name"); alias != nil {
		local = alias.Utf8Text(source)
	}
	return &ImportInfo{
		Module:     strPtr(importPath),
		Names:      []string{local},
		LineNumber: lineOf(node),
	}
}
