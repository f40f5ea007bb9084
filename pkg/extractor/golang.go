package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/dei/pkg/models"
	"github.com/panbanda/dei/pkg/parser"
)

var goSyntax = &syntax{
	paramsField: "parameters",
	countParams: goParamCount,
	returnField: "result",
	callTypes:   map[string]string{"call_expression": "function"},
}

// extractGo treats struct and interface types as classes. Methods declared
// in the file attach to their receiver type; a receiver whose type lives
// in another file of the package still gets an entry here.
func extractGo(r *parser.ParseResult) []models.ClassMetrics {
	src := r.Source
	root := r.Root()

	pkg := ""
	for i := range int(root.NamedChildCount()) {
		if c := root.NamedChild(i); c.Type() == "package_clause" {
			pkg = strings.TrimSpace(strings.TrimPrefix(parser.GetNodeText(c, src), "package"))
			break
		}
	}

	types := &typeSet{byName: make(map[string]*declaredType)}
	for _, spec := range parser.FindNodesByType(root, src, "type_spec") {
		typ := spec.ChildByFieldName("type")
		if typ == nil || (typ.Type() != "struct_type" && typ.Type() != "interface_type") {
			continue
		}
		name := parser.GetNodeText(spec.ChildByFieldName("name"), src)
		t := types.get(name, joinName(pkg, name))
		t.nodes = append(t.nodes, spec)
		if typ.Type() == "struct_type" {
			goStructFields(t, typ, src)
		} else {
			goInterface(t, typ, src)
		}
	}

	for i := range int(root.NamedChildCount()) {
		decl := root.NamedChild(i)
		if decl.Type() != "method_declaration" {
			continue
		}
		recvName, recvType := goReceiver(decl.ChildByFieldName("receiver"), src)
		if recvType == "" {
			continue
		}
		t := types.get(recvType, joinName(pkg, recvType))
		t.nodes = append(t.nodes, decl)

		name := parser.GetNodeText(decl.ChildByFieldName("name"), src)
		var self map[string]bool
		if recvName != "" && recvName != "_" {
			self = map[string]bool{recvName: true}
		}
		m := methodMetrics(goSyntax, decl, src, name, self)
		m.IsPublic = isExported(name)
		t.metrics.Methods = append(t.metrics.Methods, m)
	}

	return types.classes(src)
}

func goStructFields(t *declaredType, st *sitter.Node, src []byte) {
	for _, fd := range parser.FindNodesByType(st, src, "field_declaration") {
		names := 0
		for i := range int(fd.ChildCount()) {
			if fd.FieldNameForChild(i) == "name" {
				names++
			}
		}
		if names == 0 {
			// Embedded field.
			t.metrics.Inherits = append(t.metrics.Inherits, parser.GetNodeText(fd.ChildByFieldName("type"), src))
			continue
		}
		t.metrics.FieldCount += names
	}
}

func goInterface(t *declaredType, it *sitter.Node, src []byte) {
	for i := range int(it.NamedChildCount()) {
		member := it.NamedChild(i)
		switch member.Type() {
		case "method_spec", "method_elem":
			name := parser.GetNodeText(member.ChildByFieldName("name"), src)
			m := methodMetrics(goSyntax, member, src, name, nil)
			m.IsPublic = isExported(name)
			t.metrics.Methods = append(t.metrics.Methods, m)
		case "type_identifier", "qualified_type", "type_elem", "constraint_elem":
			t.metrics.Inherits = append(t.metrics.Inherits, parser.GetNodeText(member, src))
		}
	}
}

// goReceiver returns the receiver variable and its base type name.
func goReceiver(recv *sitter.Node, src []byte) (string, string) {
	if recv == nil {
		return "", ""
	}
	for i := range int(recv.NamedChildCount()) {
		p := recv.NamedChild(i)
		if p.Type() != "parameter_declaration" {
			continue
		}
		name := parser.GetNodeText(p.ChildByFieldName("name"), src)
		return name, cleanTypeName(parser.GetNodeText(p.ChildByFieldName("type"), src))
	}
	return "", ""
}

// goParamCount counts declared names, so (a, b int) is two parameters.
func goParamCount(params *sitter.Node, _ []byte) int {
	n := 0
	for i := range int(params.NamedChildCount()) {
		p := params.NamedChild(i)
		switch p.Type() {
		case "parameter_declaration":
			names := 0
			for j := range int(p.ChildCount()) {
				if p.FieldNameForChild(j) == "name" {
					names++
				}
			}
			n += max(names, 1)
		case "variadic_parameter_declaration":
			n++
		}
	}
	return n
}
