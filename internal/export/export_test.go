package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/livedoc/internal/doc"
	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
)

func sampleDocs() map[string]*doc.Document {
	util := &doc.Document{
		File:      "pkg/util.py",
		Docstring: "Utility helpers.",
		Constants: []doc.Constant{{Name: "TIMEOUT", Value: "30"}},
		Functions: []doc.FunctionDoc{{
			Name:      "load_config",
			FQN:       "load_config",
			Params:    []doc.Param{{Name: "path", Annotation: "str", Kind: doc.KindPositional}},
			Returns:   "dict",
			Docstring: "Load the config file.\n\nArgs:\n    path (str): Where to read.",
			Parsed: &doc.ParsedDocstring{
				Style:   "google",
				Summary: "Load the config file.",
				Params:  []doc.DocField{{Name: "path", Type: "str", Desc: "Where to read."}},
				Returns: &doc.DocField{Type: "dict", Desc: "Parsed values."},
			},
		}},
	}
	app := &doc.Document{
		File: "app.py",
		Classes: []doc.ClassDoc{{
			Name:      "Server",
			Bases:     []string{"Base"},
			Docstring: "HTTP <server>.",
			Methods: []doc.FunctionDoc{{
				Name:       "start",
				FQN:        "Server.start",
				Params:     []doc.Param{{Name: "self", Kind: doc.KindPositional}},
				Decorators: []string{"cached"},
				IsAsync:    true,
				Docstring:  "Start serving.",
			}},
		}},
	}
	return map[string]*doc.Document{"pkg/util.py": util, "app.py": app}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"markdown", FormatMarkdown, true},
		{"MD", FormatMarkdown, true},
		{"json", FormatJSON, true},
		{" html ", FormatHTML, true},
		{"htm", FormatHTML, true},
		{"pdf", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if !tt.ok {
				assert.Equal(t, docerrors.ErrCodeInvalidFormat, docerrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSorted(t *testing.T) {
	docs := sampleDocs()
	docs["nil.py"] = nil

	sorted := Sorted(docs)
	require.Len(t, sorted, 2)
	assert.Equal(t, "app.py", sorted[0].File)
	assert.Equal(t, "pkg/util.py", sorted[1].File)
}

func TestModuleMarkdown(t *testing.T) {
	md := Module(sampleDocs()["pkg/util.py"])

	assert.True(t, strings.HasPrefix(md, "# pkg/util.py\n\nUtility helpers.\n\n"))
	assert.Contains(t, md, "## Constants\n\n- **TIMEOUT** = `30`\n")
	assert.Contains(t, md, "### `load_config(path: str) -> dict`")
	assert.Contains(t, md, "**Parameters**\n\n- `path` (str): Where to read.\n")
	assert.Contains(t, md, "**Returns**\n\n- (dict): Parsed values.\n")
	assert.NotContains(t, md, "## Classes")
}

func TestModuleMarkdown_ClassAndUnparsedDocstring(t *testing.T) {
	md := Module(sampleDocs()["app.py"])

	assert.Contains(t, md, "### Server(Base)\n\nHTTP <server>.\n\n")
	assert.Contains(t, md, "#### `async start(self)`")
	assert.Contains(t, md, "`@cached`")
	assert.Contains(t, md, "Start serving.")
	assert.NotContains(t, md, "## Functions")
}

func TestWriteMarkdown_Separators(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatMarkdown, sampleDocs(), ""))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n---\n"))
	assert.Less(t, strings.Index(out, "# app.py"), strings.Index(out, "# pkg/util.py"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleDocs(), ""))

	var decoded map[string]*doc.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Contains(t, decoded, "pkg/util.py")
	assert.Equal(t, "load_config", decoded["pkg/util.py"].Functions[0].Name)
	assert.Contains(t, buf.String(), "HTTP <server>.", "HTML is not escaped")

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "{}\n", buf.String())
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatHTML, sampleDocs(), "My <Project>"))

	out := buf.String()
	assert.Contains(t, out, "<title>My &lt;Project&gt;</title>")
	assert.Contains(t, out, `<a href="#mod-pkg-util-py">pkg/util.py</a>`)
	assert.Contains(t, out, `<section id="mod-app-py">`)
	assert.Contains(t, out, "HTTP &lt;server&gt;.")
	assert.Contains(t, out, "<code>async start(self)</code>")
	assert.Contains(t, out, `<span class="decorator">@cached</span>`)
	assert.Contains(t, out, "TIMEOUT = 30")
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("pdf"), sampleDocs(), "")
	assert.Equal(t, docerrors.ErrCodeInvalidFormat, docerrors.GetCode(err))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "docs.json")
	require.NoError(t, WriteFile(path, FormatJSON, sampleDocs(), ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"app.py"`)
}

func TestWriteFile_Unwritable(t *testing.T) {
	// Given: a regular file where a directory is needed
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := WriteFile(filepath.Join(blocker, "docs.md"), FormatMarkdown, sampleDocs(), "")
	assert.Equal(t, docerrors.ErrCodeWriteFailed, docerrors.GetCode(err))
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "md")
	written, err := WriteDir(dir, FormatMarkdown, sampleDocs())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "app.py.md"),
		filepath.Join(dir, "pkg_util.py.md"),
	}, written)

	data, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# pkg/util.py"))
}
