package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/dei/pkg/models"
	"github.com/panbanda/dei/pkg/parser"
)

var pythonSyntax = &syntax{
	paramsField: "parameters",
	paramTypes: map[string]bool{
		"identifier":               true,
		"typed_parameter":          true,
		"default_parameter":        true,
		"typed_default_parameter":  true,
		"list_splat_pattern":       true,
		"dictionary_splat_pattern": true,
	},
	selfParams:  map[string]bool{"self": true, "cls": true},
	returnField: "return_type",
	callTypes:   map[string]string{"call": "function"},
	selfNames:   map[string]bool{"self": true},
}

func extractPython(r *parser.ParseResult) []models.ClassMetrics {
	src := r.Source
	var classes []models.ClassMetrics

	var visit func(n *sitter.Node, outer string)
	visit = func(n *sitter.Node, outer string) {
		for i := range int(n.NamedChildCount()) {
			child := n.NamedChild(i)
			if child.Type() != "class_definition" {
				visit(child, outer)
				continue
			}
			name := parser.GetNodeText(child.ChildByFieldName("name"), src)
			classes = append(classes, pythonClass(child, src, name, joinName(outer, name)))
			visit(child, joinName(outer, name))
		}
	}
	visit(r.Root(), "")
	return classes
}

func pythonClass(node *sitter.Node, src []byte, name, qualified string) models.ClassMetrics {
	c := models.ClassMetrics{
		Name:          name,
		QualifiedName: qualified,
		Lines:         CountLines(parser.GetNodeText(node, src)),
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := range int(supers.NamedChildCount()) {
			s := supers.NamedChild(i)
			if s.Type() == "identifier" || s.Type() == "attribute" {
				if base := parser.GetNodeText(s, src); base != "object" {
					c.Inherits = append(c.Inherits, base)
				}
			}
		}
	}

	fields := make(map[string]bool)
	body := node.ChildByFieldName("body")
	if body != nil {
		for i := range int(body.NamedChildCount()) {
			member := body.NamedChild(i)
			var decorators []string
			if member.Type() == "decorated_definition" {
				for j := range int(member.NamedChildCount()) {
					if d := member.NamedChild(j); d.Type() == "decorator" {
						decorators = append(decorators, parser.GetNodeText(d, src))
					}
				}
				member = member.ChildByFieldName("definition")
			}

			switch member.Type() {
			case "function_definition":
				c.Methods = append(c.Methods, pythonMethod(member, src, decorators))
				for _, f := range pythonSelfAssignments(member, src) {
					fields[f] = true
				}
			case "expression_statement":
				for j := range int(member.NamedChildCount()) {
					a := member.NamedChild(j)
					if a.Type() != "assignment" {
						continue
					}
					if left := a.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
						fields[parser.GetNodeText(left, src)] = true
					}
				}
			}
		}
	}
	c.FieldCount = len(fields)

	deps := typeRefs([]*sitter.Node{body}, src)
	c.Dependencies = normalizeTypes(deps, name, c.Inherits)
	c.Inherits = normalizeTypes(c.Inherits, name)
	return c
}

func pythonMethod(node *sitter.Node, src []byte, decorators []string) models.MethodMetrics {
	name := parser.GetNodeText(node.ChildByFieldName("name"), src)
	m := methodMetrics(pythonSyntax, node, src, name, nil)
	m.IsPublic = !strings.HasPrefix(name, "_") || (strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"))
	m.IsAsync = hasChildToken(node, "async")
	for _, d := range decorators {
		if d == "@staticmethod" || d == "@classmethod" {
			m.IsStatic = true
		}
	}
	return m
}

// pythonSelfAssignments returns the attributes a method assigns on self,
// which is how Python classes usually declare instance fields.
func pythonSelfAssignments(node *sitter.Node, src []byte) []string {
	var out []string
	for _, a := range parser.FindNodesByType(node, src, "assignment") {
		left := a.ChildByFieldName("left")
		if left == nil || left.Type() != "attribute" {
			continue
		}
		if parser.GetNodeText(left.ChildByFieldName("object"), src) == "self" {
			out = append(out, parser.GetNodeText(left.ChildByFieldName("attribute"), src))
		}
	}
	return out
}
