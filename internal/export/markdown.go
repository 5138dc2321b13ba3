package export

import (
	"io"
	"strings"

	"github.com/Aman-CERP/livedoc/internal/doc"
)

// WriteMarkdown writes every module, separated by horizontal rules.
func WriteMarkdown(w io.Writer, docs []*doc.Document) error {
	for i, d := range docs {
		if i > 0 {
			if _, err := io.WriteString(w, "\n---\n\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, Module(d)); err != nil {
			return err
		}
	}
	return nil
}

// Module renders one module as Markdown.
func Module(d *doc.Document) string {
	var b strings.Builder
	b.WriteString("# " + d.File + "\n\n")
	if d.Docstring != "" {
		b.WriteString(d.Docstring + "\n\n")
	}

	if len(d.Constants) > 0 {
		b.WriteString("## Constants\n\n")
		for _, c := range d.Constants {
			b.WriteString("- **" + c.Name + "** = `" + c.Value + "`\n")
		}
		b.WriteString("\n")
	}

	if len(d.Classes) > 0 {
		b.WriteString("## Classes\n\n")
		for i := range d.Classes {
			writeClass(&b, &d.Classes[i])
		}
	}

	if len(d.Functions) > 0 {
		b.WriteString("## Functions\n\n")
		for i := range d.Functions {
			writeFunction(&b, &d.Functions[i], "###")
		}
	}
	return b.String()
}

func writeClass(b *strings.Builder, c *doc.ClassDoc) {
	b.WriteString("### " + c.Name)
	if len(c.Bases) > 0 {
		b.WriteString("(" + strings.Join(c.Bases, ", ") + ")")
	}
	b.WriteString("\n\n")
	if c.Docstring != "" {
		b.WriteString(c.Docstring + "\n\n")
	}
	for i := range c.Methods {
		writeFunction(b, &c.Methods[i], "####")
	}
}

func writeFunction(b *strings.Builder, f *doc.FunctionDoc, heading string) {
	b.WriteString(heading + " `" + callable(f) + "`\n\n")
	for _, dec := range f.Decorators {
		b.WriteString("`@" + dec + "` ")
	}
	if len(f.Decorators) > 0 {
		b.WriteString("\n\n")
	}

	p := f.Parsed
	if p == nil {
		if f.Docstring != "" {
			b.WriteString(f.Docstring + "\n\n")
		}
		return
	}

	if p.Summary != "" {
		b.WriteString(p.Summary + "\n\n")
	}
	if p.Description != "" {
		b.WriteString(p.Description + "\n\n")
	}
	if len(p.Params) > 0 {
		b.WriteString("**Parameters**\n\n")
		for _, field := range p.Params {
			writeField(b, field)
		}
		b.WriteString("\n")
	}
	if p.Returns != nil {
		b.WriteString("**Returns**\n\n")
		writeField(b, *p.Returns)
		b.WriteString("\n")
	}
	if len(p.Raises) > 0 {
		b.WriteString("**Raises**\n\n")
		for _, field := range p.Raises {
			writeField(b, field)
		}
		b.WriteString("\n")
	}
	if p.Examples != "" {
		b.WriteString("**Examples**\n\n```python\n" + p.Examples + "\n```\n\n")
	}
}

func writeField(b *strings.Builder, f doc.DocField) {
	b.WriteString("-")
	if f.Name != "" {
		b.WriteString(" `" + f.Name + "`")
	}
	if f.Type != "" {
		b.WriteString(" (" + f.Type + ")")
	}
	if f.Desc != "" {
		if f.Name != "" || f.Type != "" {
			b.WriteString(":")
		}
		b.WriteString(" " + f.Desc)
	}
	b.WriteString("\n")
}

// callable renders "async name(params) -> ret".
func callable(f *doc.FunctionDoc) string {
	prefix := ""
	if f.IsAsync {
		prefix = "async "
	}
	return prefix + f.Name + f.Signature()
}
