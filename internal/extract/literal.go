package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// isLiteral reports whether n is a literal whose source text can be shown
// as a constant value: numbers, strings, booleans, None, Ellipsis and
// tuple/list/set/dict displays built only from literals.
func isLiteral(n *sitter.Node, src []byte) bool {
	switch n.Type() {
	case "integer", "float", "true", "false", "none", "ellipsis":
		return true
	case "string":
		return !isFormatString(n, src)
	case "concatenated_string":
		for _, part := range namedChildren(n) {
			if isFormatString(part, src) {
				return false
			}
		}
		return true
	case "unary_operator":
		arg := n.ChildByFieldName("argument")
		return arg != nil && (arg.Type() == "integer" || arg.Type() == "float")
	case "parenthesized_expression":
		inner := namedChildren(n)
		return len(inner) == 1 && isLiteral(inner[0], src)
	case "tuple", "list", "set":
		for _, elem := range namedChildren(n) {
			if !isLiteral(elem, src) {
				return false
			}
		}
		return true
	case "dictionary":
		for _, pair := range namedChildren(n) {
			if pair.Type() != "pair" {
				return false
			}
			key, value := pair.ChildByFieldName("key"), pair.ChildByFieldName("value")
			if key == nil || value == nil || !isLiteral(key, src) || !isLiteral(value, src) {
				return false
			}
		}
		return true
	}
	return false
}

// isFormatString reports whether a string node is an f-string.
func isFormatString(n *sitter.Node, src []byte) bool {
	prefix := stringPrefix(n.Content(src))
	return strings.ContainsAny(prefix, "fF")
}

// stringPrefix returns the letters before the opening quote, e.g. "rb".
func stringPrefix(lit string) string {
	i := strings.IndexAny(lit, `"'`)
	if i < 0 {
		return ""
	}
	return lit[:i]
}

// stringValue strips prefix and quotes from a string literal and resolves
// the common escapes unless the literal is raw.
func stringValue(lit string) string {
	prefix := stringPrefix(lit)
	body := lit[len(prefix):]

	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			body = body[len(q) : len(body)-len(q)]
			break
		}
	}

	if strings.ContainsAny(prefix, "rR") {
		return body
	}
	return unescaper.Replace(body)
}

var unescaper = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\t`, "\t",
	`\"`, `"`,
	`\'`, `'`,
	"\\\n", "",
)
