package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/dei/pkg/models"
	"github.com/panbanda/dei/pkg/parser"
)

var javaSyntax = &syntax{
	paramsField: "parameters",
	paramTypes: map[string]bool{
		"formal_parameter": true,
		"spread_parameter": true,
	},
	returnField: "type",
	callTypes: map[string]string{
		"method_invocation":          "",
		"object_creation_expression": "type",
	},
	selfNames: map[string]bool{"this": true},
}

var javaClassTypes = map[string]bool{
	"class_declaration":     true,
	"interface_declaration": true,
	"enum_declaration":      true,
	"record_declaration":    true,
}

func extractJava(r *parser.ParseResult) []models.ClassMetrics {
	src := r.Source
	pkg := ""
	for _, decl := range parser.FindNodesByType(r.Root(), src, "package_declaration") {
		for i := range int(decl.NamedChildCount()) {
			if c := decl.NamedChild(i); c.Type() == "scoped_identifier" || c.Type() == "identifier" {
				pkg = parser.GetNodeText(c, src)
			}
		}
		break
	}

	var classes []models.ClassMetrics
	var visit func(n *sitter.Node, outer string)
	visit = func(n *sitter.Node, outer string) {
		for i := range int(n.NamedChildCount()) {
			child := n.NamedChild(i)
			if !javaClassTypes[child.Type()] {
				visit(child, outer)
				continue
			}
			name := parser.GetNodeText(child.ChildByFieldName("name"), src)
			qualified := joinName(joinName(pkg, outer), name)
			classes = append(classes, javaClass(child, src, name, qualified))
			visit(child, joinName(outer, name))
		}
	}
	visit(r.Root(), "")
	return classes
}

func javaClass(node *sitter.Node, src []byte, name, qualified string) models.ClassMetrics {
	c := models.ClassMetrics{
		Name:          name,
		QualifiedName: qualified,
		Lines:         CountLines(parser.GetNodeText(node, src)),
	}

	if sc := node.ChildByFieldName("superclass"); sc != nil {
		c.Inherits = typeNames(sc, src)
	}
	if ifs := node.ChildByFieldName("interfaces"); ifs != nil {
		c.Implements = typeNames(ifs, src)
	}
	for i := range int(node.NamedChildCount()) {
		if ext := node.NamedChild(i); ext.Type() == "extends_interfaces" {
			c.Inherits = append(c.Inherits, typeNames(ext, src)...)
		}
	}

	body := node.ChildByFieldName("body")
	for _, member := range javaMembers(body) {
		switch member.Type() {
		case "method_declaration", "constructor_declaration":
			mName := parser.GetNodeText(member.ChildByFieldName("name"), src)
			m := methodMetrics(javaSyntax, member, src, mName, nil)
			if member.Type() == "constructor_declaration" {
				m.ReturnType = ""
			} else if m.ReturnType == "" {
				m.ReturnType = "void"
			}
			mods := javaModifiers(member, src)
			m.IsPublic = strings.Contains(mods, "public") || node.Type() == "interface_declaration"
			m.IsStatic = strings.Contains(mods, "static")
			c.Methods = append(c.Methods, m)
		case "field_declaration", "constant_declaration":
			for j := range int(member.NamedChildCount()) {
				if member.NamedChild(j).Type() == "variable_declarator" {
					c.FieldCount++
				}
			}
		}
	}

	deps := typeRefs([]*sitter.Node{body}, src)
	c.Dependencies = normalizeTypes(deps, name, c.Inherits, c.Implements)
	c.Inherits = normalizeTypes(c.Inherits, name)
	c.Implements = normalizeTypes(c.Implements, name)
	return c
}

// javaMembers returns the declarations of a class body, looking through
// the enum_body_declarations wrapper enums use.
func javaMembers(body *sitter.Node) []*sitter.Node {
	if body == nil {
		return nil
	}
	var out []*sitter.Node
	for i := range int(body.NamedChildCount()) {
		child := body.NamedChild(i)
		if child.Type() == "enum_body_declarations" {
			out = append(out, javaMembers(child)...)
			continue
		}
		out = append(out, child)
	}
	return out
}

func javaModifiers(node *sitter.Node, src []byte) string {
	for i := range int(node.NamedChildCount()) {
		if c := node.NamedChild(i); c.Type() == "modifiers" {
			return parser.GetNodeText(c, src)
		}
	}
	return ""
}

// typeNames returns the type identifiers directly named under node,
// ignoring generic arguments.
func typeNames(node *sitter.Node, src []byte) []string {
	var out []string
	parser.WalkTyped(node, src, func(n *sitter.Node, t string, s []byte) bool {
		switch t {
		case "type_arguments", "type_argument_list", "type_parameters":
			return false
		case "type_identifier", "identifier":
			out = append(out, parser.GetNodeText(n, s))
			return false
		case "scoped_type_identifier", "qualified_name", "generic_name":
			out = append(out, parser.GetNodeText(n, s))
			return false
		}
		return true
	})
	return out
}

func joinName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + "." + name
}
