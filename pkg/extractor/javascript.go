package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/dei/pkg/models"
	"github.com/panbanda/dei/pkg/parser"
)

// javascriptSyntax covers JavaScript, TypeScript and TSX.
var javascriptSyntax = &syntax{
	paramsField: "parameters",
	paramTypes: map[string]bool{
		"identifier":         true,
		"assignment_pattern": true,
		"rest_pattern":       true,
		"object_pattern":     true,
		"array_pattern":      true,
		"required_parameter": true,
		"optional_parameter": true,
	},
	selfParams:  map[string]bool{"this": true},
	returnField: "return_type",
	callTypes: map[string]string{
		"call_expression": "function",
		"new_expression":  "constructor",
	},
	selfNames: map[string]bool{"this": true},
}

var javascriptClassTypes = map[string]bool{
	"class_declaration":          true,
	"class":                      true,
	"abstract_class_declaration": true,
	"interface_declaration":      true,
}

func extractJavaScript(r *parser.ParseResult) []models.ClassMetrics {
	src := r.Source
	var classes []models.ClassMetrics
	parser.WalkTyped(r.Root(), src, func(n *sitter.Node, t string, s []byte) bool {
		if !javascriptClassTypes[t] {
			return true
		}
		name := parser.GetNodeText(n.ChildByFieldName("name"), s)
		if name == "" {
			// const Foo = class { ... }
			if p := n.Parent(); p != nil && p.Type() == "variable_declarator" {
				name = parser.GetNodeText(p.ChildByFieldName("name"), s)
			}
		}
		if name != "" {
			classes = append(classes, javascriptClass(n, s, name))
		}
		return true
	})
	return classes
}

func javascriptClass(node *sitter.Node, src []byte, name string) models.ClassMetrics {
	c := models.ClassMetrics{
		Name:          name,
		QualifiedName: name,
		Lines:         CountLines(parser.GetNodeText(node, src)),
	}

	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class_heritage":
			javascriptHeritage(child, src, &c)
		case "extends_type_clause":
			c.Inherits = append(c.Inherits, typeNames(child, src)...)
		}
	}

	body := node.ChildByFieldName("body")
	if body != nil {
		for i := range int(body.NamedChildCount()) {
			member := body.NamedChild(i)
			switch member.Type() {
			case "method_definition", "method_signature", "abstract_method_signature":
				c.Methods = append(c.Methods, javascriptMethod(member, member, src))
			case "field_definition", "public_field_definition":
				if fn := javascriptFunctionValue(member); fn != nil {
					c.Methods = append(c.Methods, javascriptMethod(member, fn, src))
					continue
				}
				c.FieldCount++
			case "property_signature":
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

func javascriptHeritage(heritage *sitter.Node, src []byte, c *models.ClassMetrics) {
	found := false
	for i := range int(heritage.NamedChildCount()) {
		clause := heritage.NamedChild(i)
		switch clause.Type() {
		case "extends_clause":
			found = true
			c.Inherits = append(c.Inherits, typeNames(clause, src)...)
		case "implements_clause":
			found = true
			c.Implements = append(c.Implements, typeNames(clause, src)...)
		}
	}
	if !found {
		// Plain JavaScript: class_heritage wraps the base expression directly.
		base := strings.TrimSpace(strings.TrimPrefix(parser.GetNodeText(heritage, src), "extends"))
		if base != "" {
			c.Inherits = append(c.Inherits, base)
		}
	}
}

// javascriptFunctionValue returns the function assigned to a class field,
// as in handler = async () => {...}.
func javascriptFunctionValue(field *sitter.Node) *sitter.Node {
	v := field.ChildByFieldName("value")
	if v == nil {
		return nil
	}
	switch v.Type() {
	case "arrow_function", "function", "function_expression":
		return v
	}
	return nil
}

// javascriptMethod builds metrics for a class member whose declaration is
// decl and whose function (parameters and body) is fn.
func javascriptMethod(decl, fn *sitter.Node, src []byte) models.MethodMetrics {
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = decl.ChildByFieldName("property")
	}
	name := parser.GetNodeText(nameNode, src)

	m := methodMetrics(javascriptSyntax, fn, src, name, nil)
	if fn != decl {
		m.Lines = CountLines(parser.GetNodeText(decl, src))
	}
	// A single bare arrow parameter has no parentheses and no parameters field.
	if fn.ChildByFieldName("parameter") != nil {
		m.Parameters = 1
	}

	m.IsPublic = !strings.HasPrefix(name, "#")
	for i := range int(decl.NamedChildCount()) {
		if mod := decl.NamedChild(i); mod.Type() == "accessibility_modifier" {
			m.IsPublic = parser.GetNodeText(mod, src) == "public"
		}
	}
	m.IsStatic = hasChildToken(decl, "static")
	m.IsAsync = hasChildToken(decl, "async") || hasChildToken(fn, "async")
	return m
}
