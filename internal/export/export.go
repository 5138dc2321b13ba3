// Package export renders extracted documentation as Markdown, JSON or HTML.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Aman-CERP/livedoc/internal/doc"
	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
)

// Format is an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatHTML}

// ParseFormat resolves a format name. "md" and "htm" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", docerrors.New(docerrors.ErrCodeInvalidFormat, fmt.Sprintf("unknown export format %q", s), nil).
		WithSuggestion("use one of: markdown, json, html")
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatHTML:
		return ".html"
	default:
		return ".md"
	}
}

// Sorted returns the documents ordered by file path.
func Sorted(docs map[string]*doc.Document) []*doc.Document {
	out := make([]*doc.Document, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

// Write renders docs to w in the given format.
func Write(w io.Writer, f Format, docs map[string]*doc.Document, title string) error {
	switch f {
	case FormatMarkdown:
		return WriteMarkdown(w, Sorted(docs))
	case FormatJSON:
		return WriteJSON(w, docs)
	case FormatHTML:
		return WriteHTML(w, Sorted(docs), title)
	}
	_, err := ParseFormat(string(f))
	return err
}

// WriteJSON writes docs as one indented object keyed by module path.
func WriteJSON(w io.Writer, docs map[string]*doc.Document) error {
	if docs == nil {
		docs = map[string]*doc.Document{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(docs)
}

// WriteFile renders docs into path, creating parent directories.
func WriteFile(path string, f Format, docs map[string]*doc.Document, title string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return writeFailed(path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return writeFailed(path, err)
	}
	if err := Write(file, f, docs, title); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return writeFailed(path, err)
	}
	return nil
}

// WriteDir writes one file per module into dir. Slashes in module paths
// become underscores, so "pkg/util.py" is written as "pkg_util.py.md".
// It returns the written paths in module order.
func WriteDir(dir string, f Format, docs map[string]*doc.Document) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, writeFailed(dir, err)
	}

	var written []string
	for _, d := range Sorted(docs) {
		name := strings.ReplaceAll(d.File, "/", "_") + f.Extension()
		path := filepath.Join(dir, name)
		single := map[string]*doc.Document{doc.ModuleKey(d.File): d}
		if err := WriteFile(path, f, single, d.File); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFailed(path string, err error) error {
	return docerrors.New(docerrors.ErrCodeWriteFailed, "cannot write "+path, err).WithDetail("path", path)
}
