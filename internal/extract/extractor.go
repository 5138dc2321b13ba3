// Package extract turns one Python source file into a doc.Document.
//
// Source is parsed with tree-sitter and never imported or executed. Every call
// allocates its own parser, so an Extractor is safe for concurrent use.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/Aman-CERP/livedoc/internal/doc"
	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
)

// binarySniffLen is how many leading bytes are checked for NUL bytes.
const binarySniffLen = 4096

// Docstring styles accepted by Options.Style.
const (
	StyleAuto   = "auto"
	StyleNumpy  = "numpy"
	StyleGoogle = "google"
	StyleRest   = "rest"
	StylePlain  = "plain"
)

// Options configures what an Extractor includes.
type Options struct {
	// IncludePrivate keeps _private names. Dunder names are always skipped.
	IncludePrivate bool

	// Style forces a docstring style; empty or "auto" detects per docstring.
	Style string
}

// Extractor parses Python files into documents.
type Extractor struct {
	opts Options
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.Style == "" {
		opts.Style = StyleAuto
	}
	return &Extractor{opts: opts}
}

// ValidStyle reports whether style is a known docstring style.
func ValidStyle(style string) bool {
	switch style {
	case "", StyleAuto, StyleNumpy, StyleGoogle, StyleRest, StylePlain:
		return true
	}
	return false
}

// Extract reads and parses absPath. relPath becomes Document.File.
// Unreadable, binary and syntactically invalid files return a *errors.DocError
// and a nil document; a failed parse is never reported as an empty document.
func (e *Extractor) Extract(ctx context.Context, absPath, relPath string) (*doc.Document, error) {
	key := doc.ModuleKey(relPath)

	src, err := os.ReadFile(absPath)
	if err != nil {
		return nil, docerrors.IOError(key, err)
	}
	if isBinary(src) {
		return nil, docerrors.New(docerrors.ErrCodeBinaryFile,
			fmt.Sprintf("%s looks like a binary file", key), nil).WithDetail("path", key)
	}

	return e.Parse(ctx, key, src)
}

// Parse builds a document from in-memory source.
func (e *Extractor) Parse(ctx context.Context, file string, src []byte) (*doc.Document, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, docerrors.ParseError(file, err)
	}
	if tree == nil {
		return nil, docerrors.ParseError(file, fmt.Errorf("nil tree"))
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		return nil, docerrors.ParseError(file, fmt.Errorf("syntax error near line %d", line)).
			WithDetail("line", fmt.Sprint(line))
	}

	v := &visitor{src: src, opts: e.opts}
	d := v.module(root)
	d.File = file
	return d, nil
}

// isBinary reports whether the leading bytes contain a NUL.
func isBinary(src []byte) bool {
	head := src
	if len(head) > binarySniffLen {
		head = head[:binarySniffLen]
	}
	return bytes.IndexByte(head, 0) >= 0
}

// firstErrorLine returns the 1-based line of the first ERROR or MISSING node.
func firstErrorLine(n *sitter.Node) int {
	if n.IsMissing() || n.Type() == "ERROR" {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		return firstErrorLine(child)
	}
	return int(n.StartPoint().Row) + 1
}
