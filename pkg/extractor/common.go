package extractor

import (
	"sort"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/dei/pkg/models"
	"github.com/panbanda/dei/pkg/parser"
)

// syntax holds the grammar-specific node and field names the shared
// method analysis needs.
type syntax struct {
	paramsField string
	paramTypes  map[string]bool
	// selfParams are parameter texts that are receivers, not arguments.
	selfParams map[string]bool
	// countParams overrides the default one-node-per-parameter count.
	countParams func(params *sitter.Node, src []byte) int

	returnField string

	// callTypes maps a call node type to the field holding the callee.
	// An empty field means the call node carries object/name itself.
	callTypes map[string]string

	// selfNames are receivers through which member access is field access.
	selfNames map[string]bool
}

// member access node type -> object field, member field
var memberFields = map[string][2]string{
	"member_expression":        {"object", "property"},
	"attribute":                {"object", "attribute"},
	"field_expression":         {"value", "field"},
	"selector_expression":      {"operand", "field"},
	"member_access_expression": {"expression", "name"},
	"field_access":             {"object", "field"},
	"scoped_identifier":        {"path", "name"},
}

// Node types that add a path through a routine.
var decisionTypes = map[string]bool{
	"if_statement":           true,
	"if_expression":          true,
	"elif_clause":            true,
	"while_statement":        true,
	"while_expression":       true,
	"for_statement":          true,
	"for_expression":         true,
	"for_in_statement":       true,
	"enhanced_for_statement": true,
	"for_each_statement":     true,
	"do_statement":           true,
	"match_expression":       true,
	"match_arm":              true,
	"switch_statement":       true,
	"switch_expression":      true,
	"switch_label":           true,
	"switch_case":            true,
	"case_switch_label":      true,
	"switch_expression_arm":  true,
	"case_clause":            true,
	"expression_case":        true,
	"type_case":              true,
	"communication_case":     true,
	"case":                   true,
	"catch_clause":           true,
	"except_clause":          true,
	"conditional_expression": true,
	"ternary_expression":     true,
	"boolean_operator":       true,
}

var identifierTypes = map[string]bool{
	"identifier":          true,
	"type_identifier":     true,
	"field_identifier":    true,
	"property_identifier": true,
}

// primitiveTypes is a pre-allocated set of primitive type names.
var primitiveTypes = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"f32": true, "f64": true, "float": true, "float32": true, "float64": true, "double": true,
	"bool": true, "boolean": true, "Boolean": true,
	"string": true, "String": true, "str": true, "rune": true, "error": true,
	"void": true, "None": true, "null": true, "nil": true,
	"byte": true, "char": true, "short": true, "long": true, "decimal": true,
	"any": true, "object": true, "Object": true, "dynamic": true, "var": true,
	"number": true, "Number": true, "unknown": true, "never": true,
	"int?": true, "Self": true, "self": true, "this": true, "super": true,
	"List": true, "Dict": true, "Optional": true, "Vec": true, "Option": true, "Result": true, "Box": true,
}

// CountLines counts non-blank lines that do not start with a comment marker.
func CountLines(source string) int {
	n := 0
	for _, line := range strings.Split(source, "\n") {
		t := strings.TrimSpace(line)
		if t == "" ||
			strings.HasPrefix(t, "//") ||
			strings.HasPrefix(t, "#") ||
			strings.HasPrefix(t, "/*") ||
			strings.HasPrefix(t, "*") {
			continue
		}
		n++
	}
	return n
}

// Complexity returns the cyclomatic complexity of the subtree at node:
// one plus the number of branches and short-circuit operators.
func Complexity(node *sitter.Node, src []byte) int {
	complexity := 1
	parser.WalkTyped(node, src, func(n *sitter.Node, nodeType string, s []byte) bool {
		if decisionTypes[nodeType] {
			complexity++
			return true
		}
		if nodeType == "binary_expression" {
			switch parser.GetNodeText(n.ChildByFieldName("operator"), s) {
			case "&&", "||", "??":
				complexity++
			}
		}
		return true
	})
	return complexity
}

// SplitIdentifier splits camelCase, PascalCase and snake_case names into
// lowercased fragments longer than two characters.
func SplitIdentifier(name string) []string {
	var parts []string
	var cur []rune
	flush := func() {
		if len(cur) > 2 {
			parts = append(parts, strings.ToLower(string(cur)))
		}
		cur = cur[:0]
	}

	runes := []rune(name)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return parts
}

func tokens(node *sitter.Node, src []byte) []string {
	var out []string
	parser.WalkTyped(node, src, func(n *sitter.Node, nodeType string, s []byte) bool {
		if identifierTypes[nodeType] {
			out = append(out, SplitIdentifier(parser.GetNodeText(n, s))...)
			return false
		}
		return true
	})
	return out
}

// cleanTypeName strips generic arguments, pointers, references and
// package qualifiers from a type reference.
func cleanTypeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimLeft(name, "*&[] ")
	name = strings.TrimPrefix(name, "mut ")
	name = strings.TrimPrefix(name, "dyn ")
	if i := strings.IndexAny(name, "<[({"); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

// typeRefs collects type names referenced under the given nodes: every
// type_identifier, plus identifiers under a type-position field for grammars
// that do not distinguish type names.
func typeRefs(nodes []*sitter.Node, src []byte) []string {
	var out []string
	var collect func(n *sitter.Node)
	collect = func(n *sitter.Node) {
		parser.WalkTyped(n, src, func(c *sitter.Node, t string, s []byte) bool {
			if t == "type_identifier" || t == "identifier" {
				out = append(out, parser.GetNodeText(c, s))
			}
			return true
		})
	}

	for _, node := range nodes {
		parser.WalkTyped(node, src, func(n *sitter.Node, nodeType string, s []byte) bool {
			if nodeType == "type_identifier" {
				out = append(out, parser.GetNodeText(n, s))
				return true
			}
			for _, f := range []string{"type", "return_type", "returns"} {
				if t := n.ChildByFieldName(f); t != nil && t.Type() != "type_identifier" {
					collect(t)
				}
			}
			return true
		})
	}
	return out
}

// normalizeTypes cleans, deduplicates and sorts names, dropping primitives,
// the owning class and anything in exclude.
func normalizeTypes(names []string, own string, exclude ...[]string) []string {
	skip := map[string]bool{own: true, "": true}
	for _, list := range exclude {
		for _, e := range list {
			skip[e] = true
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		n = cleanTypeName(n)
		if skip[n] || seen[n] || primitiveTypes[n] || len(n) < 2 {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// methodMetrics computes the language-neutral parts of MethodMetrics.
// self overrides syn.selfNames when non-nil (Go receivers are per method).
func methodMetrics(syn *syntax, node *sitter.Node, src []byte, name string, self map[string]bool) models.MethodMetrics {
	if self == nil {
		self = syn.selfNames
	}

	m := models.MethodMetrics{
		Name:       name,
		Lines:      CountLines(parser.GetNodeText(node, src)),
		Complexity: Complexity(node, src),
		Parameters: countParameters(syn, node, src),
		Tokens:     tokens(node, src),
	}
	if syn.returnField != "" {
		m.ReturnType = returnType(node.ChildByFieldName(syn.returnField), src)
	}
	m.CalledMethods, m.AccessedFields = callsAndFields(syn, node, src, self)
	return m
}

func countParameters(syn *syntax, node *sitter.Node, src []byte) int {
	params := node.ChildByFieldName(syn.paramsField)
	if params == nil {
		return 0
	}
	if syn.countParams != nil {
		return syn.countParams(params, src)
	}

	count := 0
	for i := range int(params.NamedChildCount()) {
		p := params.NamedChild(i)
		if !syn.paramTypes[p.Type()] {
			continue
		}
		if syn.selfParams[strings.TrimSpace(parser.GetNodeText(p, src))] {
			continue
		}
		count++
	}
	return count
}

func returnType(node *sitter.Node, src []byte) string {
	t := strings.TrimSpace(parser.GetNodeText(node, src))
	t = strings.TrimPrefix(t, ":")
	t = strings.TrimPrefix(t, "->")
	return strings.TrimSpace(t)
}

type span struct{ start, end uint32 }

// callsAndFields walks a routine collecting called names and fields accessed
// through a self receiver. Calls through self are recorded by bare name;
// calls through any other simple receiver as "receiver.name".
func callsAndFields(syn *syntax, node *sitter.Node, src []byte, self map[string]bool) ([]string, []string) {
	var calls []string
	callees := make(map[span]bool)
	fieldSet := make(map[string]bool)
	var fields []string

	parser.WalkTyped(node, src, func(n *sitter.Node, nodeType string, s []byte) bool {
		if field, ok := syn.callTypes[nodeType]; ok {
			if name, callee := calleeName(n, field, s, self); name != "" {
				calls = append(calls, name)
				if callee != nil {
					callees[span{callee.StartByte(), callee.EndByte()}] = true
				}
			}
			return true
		}

		if f, ok := memberFields[nodeType]; ok && !callees[span{n.StartByte(), n.EndByte()}] {
			obj := n.ChildByFieldName(f[0])
			member := n.ChildByFieldName(f[1])
			if obj != nil && member != nil && self[parser.GetNodeText(obj, s)] {
				name := parser.GetNodeText(member, s)
				if !fieldSet[name] {
					fieldSet[name] = true
					fields = append(fields, name)
				}
			}
		}
		return true
	})

	return dedupe(calls), fields
}

func calleeName(call *sitter.Node, field string, src []byte, self map[string]bool) (string, *sitter.Node) {
	if field == "" {
		// Java method_invocation: object and name sit on the call itself.
		name := parser.GetNodeText(call.ChildByFieldName("name"), src)
		obj := call.ChildByFieldName("object")
		return qualify(obj, name, src, self), nil
	}

	callee := call.ChildByFieldName(field)
	if callee == nil {
		return "", nil
	}
	if f, ok := memberFields[callee.Type()]; ok {
		obj := callee.ChildByFieldName(f[0])
		name := parser.GetNodeText(callee.ChildByFieldName(f[1]), src)
		return qualify(obj, name, src, self), callee
	}
	if identifierTypes[callee.Type()] {
		return parser.GetNodeText(callee, src), callee
	}
	return "", nil
}

func qualify(obj *sitter.Node, name string, src []byte, self map[string]bool) string {
	if obj == nil || name == "" {
		return name
	}
	recv := parser.GetNodeText(obj, src)
	if self[recv] || recv == "this" || recv == "self" || recv == "Self" || strings.ContainsAny(recv, "()[] \n\t") {
		return name
	}
	if head, rest, ok := strings.Cut(recv, "."); ok && (self[head] || head == "this" || head == "self") {
		recv = rest
	}
	return strings.ReplaceAll(recv, "::", ".") + "." + name
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// hasChildToken reports whether node has a direct child of the given type,
// such as an "async" or "static" keyword.
func hasChildToken(node *sitter.Node, tokenType string) bool {
	for i := range int(node.ChildCount()) {
		if node.Child(i).Type() == tokenType {
			return true
		}
	}
	return false
}

// declaredType accumulates a type declaration and the method containers
// (impl blocks, receiver methods) attached to it elsewhere in the file.
type declaredType struct {
	metrics models.ClassMetrics
	nodes   []*sitter.Node
}

// typeSet keeps declaration order while merging detached methods into
// their type.
type typeSet struct {
	order  []string
	byName map[string]*declaredType
}

func (ts *typeSet) get(name, qualified string) *declaredType {
	if t, ok := ts.byName[qualified]; ok {
		return t
	}
	t := &declaredType{metrics: models.ClassMetrics{Name: name, QualifiedName: qualified}}
	ts.byName[qualified] = t
	ts.order = append(ts.order, qualified)
	return t
}

// classes sums lines over every node of each type and resolves its
// dependencies, in first-seen order.
func (ts *typeSet) classes(src []byte) []models.ClassMetrics {
	out := make([]models.ClassMetrics, 0, len(ts.order))
	for _, q := range ts.order {
		t := ts.byName[q]
		c := t.metrics
		for _, n := range t.nodes {
			c.Lines += CountLines(parser.GetNodeText(n, src))
		}
		c.Dependencies = normalizeTypes(typeRefs(t.nodes, src), c.Name, c.Inherits, c.Implements)
		c.Inherits = normalizeTypes(c.Inherits, c.Name)
		c.Implements = normalizeTypes(c.Implements, c.Name)
		out = append(out, c)
	}
	return out
}

// finishClass fills the aggregate fields of a class from its methods.
func finishClass(c *models.ClassMetrics) {
	c.MethodCount = len(c.Methods)
	c.Complexity = 0
	for _, m := range c.Methods {
		c.Complexity += m.Complexity
	}
	if c.QualifiedName == "" {
		c.QualifiedName = c.Name
	}
}

func isExported(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}
