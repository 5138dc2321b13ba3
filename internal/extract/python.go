package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Aman-CERP/livedoc/internal/doc"
)

// visitor walks one syntax tree. It only reads src and opts.
type visitor struct {
	src  []byte
	opts Options
}

func (v *visitor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(v.src)
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// module collects the module docstring, constants and top-level definitions.
// Statements nested in if/try blocks are not documented.
func (v *visitor) module(root *sitter.Node) *doc.Document {
	d := &doc.Document{
		Docstring: v.docstring(root),
		Constants: []doc.Constant{},
		Classes:   []doc.ClassDoc{},
		Functions: []doc.FunctionDoc{},
	}

	for _, stmt := range namedChildren(root) {
		def, decorators := unwrapDecorated(stmt)
		switch def.Type() {
		case "expression_statement":
			d.Constants = append(d.Constants, v.constants(def)...)
		case "class_definition":
			name := v.text(def.ChildByFieldName("name"))
			if shouldInclude(name, v.opts.IncludePrivate) {
				d.Classes = append(d.Classes, v.class(def, name))
			}
		case "function_definition":
			name := v.text(def.ChildByFieldName("name"))
			if shouldInclude(name, v.opts.IncludePrivate) {
				d.Functions = append(d.Functions, v.function(def, v.decoratorNames(decorators), ""))
			}
		}
	}
	return d
}

func (v *visitor) class(n *sitter.Node, name string) doc.ClassDoc {
	c := doc.ClassDoc{
		Name:    name,
		Bases:   []string{},
		Methods: []doc.FunctionDoc{},
	}

	for _, arg := range namedChildren(n.ChildByFieldName("superclasses")) {
		if arg.Type() == "keyword_argument" {
			continue
		}
		c.Bases = append(c.Bases, v.text(arg))
	}

	body := n.ChildByFieldName("body")
	c.Docstring = v.docstring(body)
	for _, stmt := range namedChildren(body) {
		def, decorators := unwrapDecorated(stmt)
		if def.Type() != "function_definition" {
			continue
		}
		method := v.text(def.ChildByFieldName("name"))
		if !shouldInclude(method, v.opts.IncludePrivate) {
			continue
		}
		c.Methods = append(c.Methods, v.function(def, v.decoratorNames(decorators), name))
	}
	return c
}

func (v *visitor) function(n *sitter.Node, decorators []string, scope string) doc.FunctionDoc {
	name := v.text(n.ChildByFieldName("name"))
	fqn := name
	if scope != "" {
		fqn = scope + "." + name
	}

	fn := doc.FunctionDoc{
		Name:       name,
		FQN:        fqn,
		Params:     v.params(n.ChildByFieldName("parameters")),
		Returns:    v.text(n.ChildByFieldName("return_type")),
		Docstring:  v.docstring(n.ChildByFieldName("body")),
		Decorators: decorators,
	}
	if fn.Decorators == nil {
		fn.Decorators = []string{}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "async" {
			fn.IsAsync = true
			break
		}
	}
	for _, d := range fn.Decorators {
		switch {
		case d == "property" || d == "builtins.property" || strings.HasSuffix(d, ".property"):
			fn.IsProperty = true
		case d == "staticmethod" || strings.HasSuffix(d, ".staticmethod"):
			fn.IsStaticMethod = true
		case d == "classmethod" || strings.HasSuffix(d, ".classmethod"):
			fn.IsClassMethod = true
		}
	}

	if fn.Docstring != "" {
		fn.Parsed = ParseDocstring(fn.Docstring, v.opts.Style)
	}
	return fn
}

// params converts a parameters node. Positional entries seen before a "/"
// become posonly; entries after "*" or "*args" become kwonly.
func (v *visitor) params(n *sitter.Node) []doc.Param {
	out := []doc.Param{}
	if n == nil {
		return out
	}

	afterStar := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		kind := doc.KindPositional
		if afterStar {
			kind = doc.KindKwOnly
		}

		switch child.Type() {
		case "identifier":
			out = append(out, doc.Param{Name: v.text(child), Kind: kind})
		case "default_parameter":
			out = append(out, doc.Param{
				Name:    v.text(child.ChildByFieldName("name")),
				Default: v.text(child.ChildByFieldName("value")),
				Kind:    kind,
			})
		case "typed_default_parameter":
			out = append(out, doc.Param{
				Name:       v.text(child.ChildByFieldName("name")),
				Annotation: v.text(child.ChildByFieldName("type")),
				Default:    v.text(child.ChildByFieldName("value")),
				Kind:       kind,
			})
		case "typed_parameter":
			p := doc.Param{Annotation: v.text(child.ChildByFieldName("type")), Kind: kind}
			target := child.NamedChild(0)
			if target == nil {
				continue
			}
			switch target.Type() {
			case "list_splat_pattern", "list_splat":
				p.Kind = doc.KindVarArg
				p.Name = v.text(target.NamedChild(0))
				afterStar = true
			case "dictionary_splat_pattern", "dictionary_splat":
				p.Kind = doc.KindVarKw
				p.Name = v.text(target.NamedChild(0))
			default:
				p.Name = v.text(target)
			}
			out = append(out, p)
		case "list_splat_pattern", "list_splat":
			out = append(out, doc.Param{Name: v.text(child.NamedChild(0)), Kind: doc.KindVarArg})
			afterStar = true
		case "dictionary_splat_pattern", "dictionary_splat":
			out = append(out, doc.Param{Name: v.text(child.NamedChild(0)), Kind: doc.KindVarKw})
		case "keyword_separator", "*":
			afterStar = true
		case "positional_separator", "/":
			for j := range out {
				if out[j].Kind == doc.KindPositional {
					out[j].Kind = doc.KindPosOnly
				}
			}
		}
	}
	return out
}

func (v *visitor) decoratorNames(decorators []*sitter.Node) []string {
	names := make([]string, 0, len(decorators))
	for _, d := range decorators {
		if expr := d.NamedChild(0); expr != nil {
			names = append(names, v.text(expr))
			continue
		}
		names = append(names, strings.TrimSpace(strings.TrimPrefix(v.text(d), "@")))
	}
	return names
}

// constants returns the names bound to literal values by an assignment
// statement. Chained assignments ("a = b = 1") bind every plain name.
func (v *visitor) constants(stmt *sitter.Node) []doc.Constant {
	expr := stmt.NamedChild(0)
	if expr == nil || expr.Type() != "assignment" {
		return nil
	}

	var names []string
	value := expr
	for value != nil && value.Type() == "assignment" {
		left := value.ChildByFieldName("left")
		if left != nil && left.Type() == "identifier" {
			names = append(names, v.text(left))
		}
		value = value.ChildByFieldName("right")
	}
	if value == nil || len(names) == 0 || !isLiteral(value, v.src) {
		return nil
	}

	lit := v.text(value)
	out := make([]doc.Constant, 0, len(names))
	for _, name := range names {
		out = append(out, doc.Constant{Name: name, Value: lit})
	}
	return out
}

// docstring returns the cleaned docstring of a module or block, if its first
// statement is a bare string literal.
func (v *visitor) docstring(body *sitter.Node) string {
	stmts := namedChildren(body)
	if len(stmts) == 0 || stmts[0].Type() != "expression_statement" {
		return ""
	}
	expr := stmts[0].NamedChild(0)
	if expr == nil {
		return ""
	}

	var raw strings.Builder
	switch expr.Type() {
	case "string":
		if isFormatString(expr, v.src) {
			return ""
		}
		raw.WriteString(stringValue(v.text(expr)))
	case "concatenated_string":
		for _, part := range namedChildren(expr) {
			if isFormatString(part, v.src) {
				return ""
			}
			raw.WriteString(stringValue(v.text(part)))
		}
	default:
		return ""
	}
	return CleanDoc(raw.String())
}

// unwrapDecorated returns the definition inside a decorated_definition and its
// decorator nodes; other nodes are returned unchanged.
func unwrapDecorated(n *sitter.Node) (*sitter.Node, []*sitter.Node) {
	if n.Type() != "decorated_definition" {
		return n, nil
	}
	var decorators []*sitter.Node
	for _, child := range namedChildren(n) {
		if child.Type() == "decorator" {
			decorators = append(decorators, child)
		}
	}
	if def := n.ChildByFieldName("definition"); def != nil {
		return def, decorators
	}
	return n, decorators
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// shouldInclude applies the visibility rules for classes, functions and methods.
func shouldInclude(name string, includePrivate bool) bool {
	if name == "" || isDunder(name) {
		return false
	}
	if strings.HasPrefix(name, "_") && !includePrivate {
		return false
	}
	return true
}
