package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/dei/pkg/models"
	"github.com/panbanda/dei/pkg/parser"
)

var rustSyntax = &syntax{
	paramsField: "parameters",
	paramTypes: map[string]bool{
		"parameter":          true,
		"variadic_parameter": true,
	},
	returnField: "return_type",
	callTypes:   map[string]string{"call_expression": "function"},
	selfNames:   map[string]bool{"self": true},
}

func extractRust(r *parser.ParseResult) []models.ClassMetrics {
	src := r.Source
	types := &typeSet{byName: make(map[string]*declaredType)}

	var visit func(n *sitter.Node, mod string)
	visit = func(n *sitter.Node, mod string) {
		for i := range int(n.NamedChildCount()) {
			item := n.NamedChild(i)
			switch item.Type() {
			case "mod_item":
				if body := item.ChildByFieldName("body"); body != nil {
					visit(body, joinName(mod, parser.GetNodeText(item.ChildByFieldName("name"), src)))
				}
			case "struct_item", "enum_item", "union_item":
				name := parser.GetNodeText(item.ChildByFieldName("name"), src)
				t := types.get(name, joinName(mod, name))
				t.nodes = append(t.nodes, item)
				t.metrics.FieldCount += rustFieldCount(item.ChildByFieldName("body"))
			case "trait_item":
				name := parser.GetNodeText(item.ChildByFieldName("name"), src)
				t := types.get(name, joinName(mod, name))
				t.nodes = append(t.nodes, item)
				if bounds := item.ChildByFieldName("bounds"); bounds != nil {
					t.metrics.Inherits = append(t.metrics.Inherits, typeNames(bounds, src)...)
				}
				rustMethods(t, item.ChildByFieldName("body"), src, true)
			case "impl_item":
				name := cleanTypeName(parser.GetNodeText(item.ChildByFieldName("type"), src))
				if name == "" {
					continue
				}
				t := types.get(name, joinName(mod, name))
				t.nodes = append(t.nodes, item)
				if trait := item.ChildByFieldName("trait"); trait != nil {
					t.metrics.Implements = append(t.metrics.Implements, parser.GetNodeText(trait, src))
				}
				rustMethods(t, item.ChildByFieldName("body"), src, false)
			}
		}
	}
	visit(r.Root(), "")

	return types.classes(src)
}

func rustMethods(t *declaredType, body *sitter.Node, src []byte, inTrait bool) {
	if body == nil {
		return
	}
	for i := range int(body.NamedChildCount()) {
		fn := body.NamedChild(i)
		if fn.Type() != "function_item" && fn.Type() != "function_signature_item" {
			continue
		}
		name := parser.GetNodeText(fn.ChildByFieldName("name"), src)
		m := methodMetrics(rustSyntax, fn, src, name, nil)
		m.IsPublic = inTrait || hasChildToken(fn, "visibility_modifier")
		m.IsStatic = true
		if params := fn.ChildByFieldName("parameters"); params != nil && hasChildToken(params, "self_parameter") {
			m.IsStatic = false
		}
		for j := range int(fn.NamedChildCount()) {
			if mod := fn.NamedChild(j); mod.Type() == "function_modifiers" && hasChildToken(mod, "async") {
				m.IsAsync = true
			}
		}
		t.metrics.Methods = append(t.metrics.Methods, m)
	}
}

func rustFieldCount(body *sitter.Node) int {
	if body == nil {
		return 0
	}
	n := 0
	for i := range int(body.NamedChildCount()) {
		switch body.NamedChild(i).Type() {
		case "field_declaration":
			n++
		case "attribute_item", "visibility_modifier", "line_comment", "block_comment":
		default:
			if body.Type() == "ordered_field_declaration_list" {
				n++
			}
		}
	}
	return n
}
