package extractor

import (
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/dei/pkg/models"
	"github.com/panbanda/dei/pkg/parser"
)

var csharpSyntax = &syntax{
	paramsField: "parameters",
	paramTypes:  map[string]bool{"parameter": true},
	returnField: "type",
	callTypes: map[string]string{
		"invocation_expression":      "function",
		"object_creation_expression": "type",
	},
	selfNames: map[string]bool{"this": true},
}

var csharpClassTypes = map[string]bool{
	"class_declaration":     true,
	"interface_declaration": true,
	"struct_declaration":    true,
	"record_declaration":    true,
}

func extractCSharp(r *parser.ParseResult) []models.ClassMetrics {
	src := r.Source
	var classes []models.ClassMetrics

	var visit func(n *sitter.Node, scope string)
	visit = func(n *sitter.Node, scope string) {
		for i := range int(n.NamedChildCount()) {
			child := n.NamedChild(i)
			switch {
			case child.Type() == "namespace_declaration" || child.Type() == "file_scoped_namespace_declaration":
				ns := parser.GetNodeText(child.ChildByFieldName("name"), src)
				visit(child, joinName(scope, ns))
			case csharpClassTypes[child.Type()]:
				name := parser.GetNodeText(child.ChildByFieldName("name"), src)
				classes = append(classes, csharpClass(child, src, name, joinName(scope, name)))
				visit(child, joinName(scope, name))
			default:
				visit(child, scope)
			}
		}
	}
	visit(r.Root(), "")
	return classes
}

func csharpClass(node *sitter.Node, src []byte, name, qualified string) models.ClassMetrics {
	c := models.ClassMetrics{
		Name:          name,
		QualifiedName: qualified,
		Lines:         CountLines(parser.GetNodeText(node, src)),
	}

	for i := range int(node.NamedChildCount()) {
		if bases := node.NamedChild(i); bases.Type() == "base_list" {
			for _, base := range typeNames(bases, src) {
				if isInterfaceName(cleanTypeName(base)) || node.Type() == "interface_declaration" {
					c.Implements = append(c.Implements, base)
				} else {
					c.Inherits = append(c.Inherits, base)
				}
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body != nil {
		for i := range int(body.NamedChildCount()) {
			member := body.NamedChild(i)
			switch member.Type() {
			case "method_declaration", "constructor_declaration":
				mName := parser.GetNodeText(member.ChildByFieldName("name"), src)
				m := methodMetrics(csharpSyntax, member, src, mName, nil)
				if m.ReturnType == "" && member.Type() == "method_declaration" {
					m.ReturnType = returnType(member.ChildByFieldName("returns"), src)
				}
				for _, mod := range csharpModifiers(member, src) {
					switch mod {
					case "public":
						m.IsPublic = true
					case "static":
						m.IsStatic = true
					case "async":
						m.IsAsync = true
					}
				}
				if node.Type() == "interface_declaration" {
					m.IsPublic = true
				}
				c.Methods = append(c.Methods, m)
			case "field_declaration":
				c.FieldCount += len(parser.FindNodesByType(member, src, "variable_declarator"))
			case "property_declaration":
				c.PropertyCount++
			}
		}
	}

	deps := typeRefs([]*sitter.Node{body}, src)
	c.Dependencies = normalizeTypes(deps, name, c.Inherits, c.Implements)
	c.Inherits = normalizeTypes(c.Inherits, name)
	c.Implements = normalizeTypes(c.Implements, name)
	return c
}

func csharpModifiers(node *sitter.Node, src []byte) []string {
	var mods []string
	for i := range int(node.NamedChildCount()) {
		if c := node.NamedChild(i); c.Type() == "modifier" {
			mods = append(mods, parser.GetNodeText(c, src))
		}
	}
	return mods
}

// isInterfaceName follows the .NET convention of an I prefix followed by
// another capital, as in IDisposable.
func isInterfaceName(name string) bool {
	r := []rune(name)
	return len(r) > 1 && r[0] == 'I' && unicode.IsUpper(r[1])
}
