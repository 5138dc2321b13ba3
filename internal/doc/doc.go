// Package doc defines the documentation model extracted from one source file
// and the entry keys that identify its indexable units.
//
// A Document is produced by an extractor and never mutated afterwards, so it can
// be shared between cache generations and concurrent readers without copying.
package doc

import "strings"

// ParamKind classifies how an argument binds at call time.
type ParamKind string

const (
	KindPositional ParamKind = "positional"
	KindPosOnly    ParamKind = "posonly"
	KindVarArg     ParamKind = "vararg"
	KindKwOnly     ParamKind = "kwonly"
	KindVarKw      ParamKind = "varkw"
)

// Document is the parsed representation of one source file. File is the path
// relative to the scan root, using forward slashes.
type Document struct {
	File      string        `json:"file"`
	Docstring string        `json:"docstring,omitempty"`
	Constants []Constant    `json:"constants"`
	Classes   []ClassDoc    `json:"classes"`
	Functions []FunctionDoc `json:"functions"`
}

// Constant is a module-level name bound to a literal value, kept as source text.
type Constant struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ClassDoc documents one class and its directly defined methods.
type ClassDoc struct {
	Name      string        `json:"name"`
	Bases     []string      `json:"bases"`
	Docstring string        `json:"docstring,omitempty"`
	Methods   []FunctionDoc `json:"methods"`
}

// FunctionDoc documents a function or method. FQN is the dot-joined scope path
// inside the module, e.g. "Client.close".
type FunctionDoc struct {
	Name           string           `json:"name"`
	FQN            string           `json:"fqn"`
	Params         []Param          `json:"signature"`
	Returns        string           `json:"returns,omitempty"`
	Docstring      string           `json:"docstring,omitempty"`
	Parsed         *ParsedDocstring `json:"parsed_doc,omitempty"`
	Decorators     []string         `json:"decorators"`
	IsAsync        bool             `json:"is_async"`
	IsProperty     bool             `json:"is_property"`
	IsStaticMethod bool             `json:"is_staticmethod"`
	IsClassMethod  bool             `json:"is_classmethod"`
}

// Param is one entry of a function signature.
type Param struct {
	Name       string    `json:"name"`
	Annotation string    `json:"annotation,omitempty"`
	Default    string    `json:"default,omitempty"`
	Kind       ParamKind `json:"kind"`
}

// ParsedDocstring is the structured form of a docstring. Style is one of
// numpy, google, rest or plain.
type ParsedDocstring struct {
	Style       string     `json:"style"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Params      []DocField `json:"params,omitempty"`
	Returns     *DocField  `json:"returns,omitempty"`
	Raises      []DocField `json:"raises,omitempty"`
	Examples    string     `json:"examples,omitempty"`
}

// DocField is a named entry in a docstring section.
type DocField struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
	Desc string `json:"desc,omitempty"`
}

// Signature renders the parameter list in call syntax, e.g. "(a, /, b=1, *args, c, **kw) -> int".
func (f *FunctionDoc) Signature() string {
	parts := make([]string, 0, len(f.Params)+2)
	var prev ParamKind
	sawStar := false
	for _, p := range f.Params {
		if prev == KindPosOnly && p.Kind != KindPosOnly {
			parts = append(parts, "/")
		}
		if p.Kind == KindKwOnly && !sawStar {
			parts = append(parts, "*")
			sawStar = true
		}

		var b strings.Builder
		switch p.Kind {
		case KindVarArg:
			b.WriteString("*")
			sawStar = true
		case KindVarKw:
			b.WriteString("**")
		}
		b.WriteString(p.Name)
		if p.Annotation != "" {
			b.WriteString(": ")
			b.WriteString(p.Annotation)
		}
		if p.Default != "" {
			if p.Annotation != "" {
				b.WriteString(" = ")
			} else {
				b.WriteString("=")
			}
			b.WriteString(p.Default)
		}
		parts = append(parts, b.String())
		prev = p.Kind
	}
	if prev == KindPosOnly {
		parts = append(parts, "/")
	}

	sig := "(" + strings.Join(parts, ", ") + ")"
	if f.Returns != "" {
		sig += " -> " + f.Returns
	}
	return sig
}
