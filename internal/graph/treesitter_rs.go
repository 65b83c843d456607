package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

var (
	rsCommentKinds = map[string]bool{"line_comment": true, "block_comment": true}
	rsSkipKinds    = map[string]bool{"attribute_item": true}
)

// rsExtractor extracts functions, structs/enums/traits and use declarations
// from Rust source. Methods come from impl blocks in the same file; a trait
// implemented with "impl Trait for Type" becomes a parent of Type.
type rsExtractor struct{}

// rsImpl is an impl block waiting to be merged into its type's class.
type rsImpl struct {
	typeName string
	trait    string
	methods  []MethodInfo
}

func (e *rsExtractor) Extract(root *tree_sitter.Node, source []byte, fa *FileAnalysis) {
	var impls []rsImpl

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, fa, &impls)

	byName := make(map[string]int, len(fa.Classes))
	for i, cls := range fa.Classes {
		if _, ok := byName[cls.Name]; !ok {
			byName[cls.Name] = i
		}
	}
	for _, impl := range impls {
		i, ok := byName[impl.typeName]
		if !ok {
			continue
		}
		fa.Classes[i].Methods = append(fa.Classes[i].Methods, impl.methods...)
		if impl.trait != "" {
			fa.Classes[i].ParentClasses = append(fa.Classes[i].ParentClasses, impl.trait)
		}
	}
}

func (e *rsExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, fa *FileAnalysis, impls *[]rsImpl) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_item":
		if fn := e.extractFunction(node, source); fn != nil {
			fa.Functions = append(fa.Functions, *fn)
		}

	case "struct_item", "enum_item", "union_item":
		if cls := e.extractType(node, source); cls != nil {
			fa.Classes = append(fa.Classes, *cls)
		}

	case "trait_item":
		if cls := e.extractType(node, source); cls != nil {
			cls.Methods = e.bodyMethods(node.ChildByFieldName("body"), source)
			fa.Classes = append(fa.Classes, *cls)
		}

	case "impl_item":
		if impl := e.extractImpl(node, source); impl != nil {
			*impls = append(*impls, *impl)
		}

	case "use_declaration":
		if imp := e.extractUse(node, source); imp != nil {
			fa.Imports = append(fa.Imports, *imp)
		}
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, fa, impls)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, fa, impls)
		}
		cursor.GotoParent()
	}
}

func (e *rsExtractor) extractFunction(node *tree_sitter.Node, source []byte) *FunctionInfo {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	params := rsParameters(node.ChildByFieldName("parameters"), source)
	return &FunctionInfo{
		Name:       name,
		Signature:  synthesizeSignature("fn", name, params),
		Docstring:  leadingComment(node, source, rsCommentKinds, rsSkipKinds),
		Parameters: params,
		LineNumber: lineOf(node),
	}
}

func rsParameters(list *tree_sitter.Node, source []byte) []Param {
	params := []Param{}
	for _, p := range namedChildren(list) {
		switch p.Kind() {
		case "self_parameter":
			params = append(params, newParam("self"))
		case "parameter":
			pattern := p.ChildByFieldName("pattern")
			if pattern == nil {
				continue
			}
			if pattern.Kind() != "identifier" {
				pattern = firstDescendantOfKind(pattern, "identifier")
			}
			if pattern != nil {
				params = append(params, newParam(pattern.Utf8Text(source)))
			}
		}
	}
	return params
}

func (e *rsExtractor) extractType(node *tree_sitter.Node, source []byte) *ClassInfo {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return &ClassInfo{
		Name:          nameNode.Utf8Text(source),
		Docstring:     leadingComment(node, source, rsCommentKinds, rsSkipKinds),
		Methods:       []MethodInfo{},
		ParentClasses: []string{},
		LineNumber:    lineOf(node),
	}
}

// bodyMethods collects the functions declared directly in a trait or impl body.
func (e *rsExtractor) bodyMethods(body *tree_sitter.Node, source []byte) []MethodInfo {
	methods := []MethodInfo{}
	for _, item := range namedChildren(body) {
		if item.Kind() != "function_item" && item.Kind() != "function_signature_item" {
			continue
		}
		if fn := e.extractFunction(item, source); fn != nil {
			methods = append(methods, MethodInfo{Name: fn.Name, Signature: fn.Signature, Docstring: fn.Docstring})
		}
	}
	return methods
}

func (e *rsExtractor) extractImpl(node *tree_sitter.Node, source []byte) *rsImpl {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}
	if typeNode.Kind() == "generic_type" {
		typeNode = typeNode.ChildByFieldName("type")
	}
	if typeNode == nil || typeNode.Kind() != "type_identifier" {
		return nil
	}

	impl := &rsImpl{
		typeName: typeNode.Utf8Text(source),
		methods:  e.bodyMethods(node.ChildByFieldName("body"), source),
	}
	if trait := node.ChildByFieldName("trait"); trait != nil && trait.Kind() == "type_identifier" {
		impl.trait = trait.Utf8Text(source)
	}
	return impl
}

// extractUse maps use declarations to imports:
//
//	use std::fmt;                 -> {std, [fmt]}
//	use std::io::{Read, Write};   -> {std::io, [Read, Write]}
//	use crate::model::*;          -> {crate::model, [*]}
func (e *rsExtractor) extractUse(node *tree_sitter.Node, source []byte) *ImportInfo {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return nil
	}
	imp := &ImportInfo{Names: []string{}, LineNumber: lineOf(node)}

	switch arg.Kind() {
	case "use_as_clause":
		if p := arg.ChildByFieldName("path"); p != nil {
			arg = p
		}
	}

	switch arg.Kind() {
	case "identifier", "crate", "super", "self":
		name := arg.Utf8Text(source)
		imp.Module = strPtr(name)
		imp.Names = append(imp.Names, name)

	case "scoped_identifier":
		if p := arg.ChildByFieldName("path"); p != nil {
			imp.Module = strPtr(p.Utf8Text(source))
		}
		if n := arg.ChildByFieldName("name"); n != nil {
			imp.Names = append(imp.Names, n.Utf8Text(source))
		}

	case "scoped_use_list":
		if p := arg.ChildByFieldName("path"); p != nil {
			imp.Module = strPtr(p.Utf8Text(source))
		}
		for _, item := range namedChildren(arg.ChildByFieldName("list")) {
			if item.Kind() == "use_as_clause" {
				if p := item.ChildByFieldName("path"); p != nil {
					item = p
				}
			}
			imp.Names = append(imp.Names, item.Utf8Text(source))
		}

	case "use_wildcard":
		text := strings.TrimSuffix(arg.Utf8Text(source), "*")
		imp.Module = strPtr(strings.TrimSuffix(text, "::"))
		imp.Names = append(imp.Names, "*")

	default:
		imp.Module = strPtr(arg.Utf8Text(source))
	}
	return imp
}
