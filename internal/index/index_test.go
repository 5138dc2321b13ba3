package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/livedoc/internal/doc"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"words", "Helper utilities", []string{"helper", "utilities"}},
		{"underscore kept", "load_config(path)", []string{"load_config", "path"}},
		{"path", "pkg/mod.py", []string{"pkg", "mod", "py"}},
		{"digits", "v2 API-3", []string{"v2", "api", "3"}},
		{"only separators", " -- !", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand(t *testing.T) {
	assert.Equal(t, []string{"a"}, Expand("a"))
	assert.Equal(t, []string{"ab", "ab"}, Expand("ab"))
	assert.Equal(t, []string{"load", "lo", "loa", "load"}, Expand("load"))
	assert.Equal(t,
		[]string{"authenticate", "au", "aut", "auth", "authe", "authen"},
		Expand("authenticate"))
}

func TestTokenize_KeepsRepeats(t *testing.T) {
	assert.Equal(t, []string{"load", "load", "path", "load"}, Tokenize("load LOAD path load"))
	assert.Empty(t, Tokenize("   "))
}

func sampleDocs() map[string]*doc.Document {
	return map[string]*doc.Document{
		"a.py": {
			File:      "a.py",
			Docstring: "Helper utilities",
			Functions: []doc.FunctionDoc{{Name: "load", FQN: "load"}},
		},
		"pkg/__init__.py": {
			File:      "pkg/__init__.py",
			Docstring: "\n\n  Package root.\n  More text.",
			Classes: []doc.ClassDoc{{
				Name:      "Client",
				Docstring: "HTTP client",
				Methods:   []doc.FunctionDoc{{Name: "fetch", FQN: "Client.fetch", Docstring: "Fetch a resource"}},
			}},
		},
	}
}

func TestBuild_Metadata(t *testing.T) {
	// Given: two modules
	ix := Build(sampleDocs())

	// Then: every unit has a metadata record
	require.Len(t, ix.Metadata, 5)

	assert.Equal(t, Metadata{Key: "a.py", File: "a.py", FQN: "a", Snippet: "Helper utilities", Type: TypeModule}, ix.Metadata["a.py"])
	assert.Equal(t, Metadata{Key: "a.py::load", File: "a.py", FQN: "a.load", Type: TypeFunction}, ix.Metadata["a.py::load"])
	assert.Equal(t, Metadata{Key: "pkg/__init__.py", File: "pkg/__init__.py", FQN: "pkg", Snippet: "Package root.", Type: TypeModule}, ix.Metadata["pkg/__init__.py"])
	assert.Equal(t, Metadata{Key: "pkg/__init__.py::Client", File: "pkg/__init__.py", FQN: "pkg.Client", Snippet: "HTTP client", Type: TypeClass}, ix.Metadata["pkg/__init__.py::Client"])
	assert.Equal(t, Metadata{Key: "pkg/__init__.py::Client#fetch", File: "pkg/__init__.py", FQN: "pkg.Client.fetch", Snippet: "Fetch a resource", Type: TypeMethod}, ix.Metadata["pkg/__init__.py::Client#fetch"])

	assert.Equal(t, []string{"a.py", "pkg/__init__.py"}, ix.ModuleKeys())
}

func TestBuild_Postings(t *testing.T) {
	ix := Build(sampleDocs())

	// exact short tokens are counted once as a token and once as a prefix
	assert.Equal(t, 2, ix.Lookup("load")["a.py::load"])
	assert.Equal(t, 2, ix.Lookup("helper")["a.py"])
	assert.Equal(t, 1, ix.Lookup("utilit")["a.py"])
	assert.Equal(t, 1, ix.Lookup("he")["a.py"])

	// module tokens come from the key path
	assert.Contains(t, ix.Lookup("pkg"), "pkg/__init__.py")

	// only the first docstring line is indexed
	assert.Nil(t, ix.Lookup("more"))

	// the method is indexed under its name and docstring
	assert.Contains(t, ix.Lookup("fetch"), "pkg/__init__.py::Client#fetch")
	assert.Contains(t, ix.Lookup("resour"), "pkg/__init__.py::Client#fetch")
	assert.Contains(t, ix.Lookup("resource"), "pkg/__init__.py::Client#fetch")
}

func TestBuild_EveryPostedKeyHasMetadata(t *testing.T) {
	ix := Build(sampleDocs())
	for term, posting := range ix.Postings {
		for key, n := range posting {
			assert.Contains(t, ix.Metadata, key, "term %q", term)
			assert.Positive(t, n)
		}
	}
}

func TestBuild_LastDefinitionWins(t *testing.T) {
	// Given: a module that rebinds a class and a function
	docs := map[string]*doc.Document{
		"m.py": {
			File: "m.py",
			Classes: []doc.ClassDoc{
				{Name: "Thing", Docstring: "first", Methods: []doc.FunctionDoc{{Name: "old", FQN: "Thing.old"}}},
				{Name: "Thing", Docstring: "second", Methods: []doc.FunctionDoc{{Name: "new", FQN: "Thing.new"}}},
			},
			Functions: []doc.FunctionDoc{
				{Name: "run", Docstring: "alpha"},
				{Name: "run", Docstring: "beta"},
			},
		},
	}

	ix := Build(docs)

	// Then: only the last definitions are indexed
	assert.Equal(t, "second", ix.Metadata["m.py::Thing"].Snippet)
	assert.Equal(t, "beta", ix.Metadata["m.py::run"].Snippet)
	assert.NotContains(t, ix.Metadata, "m.py::Thing#old")
	assert.Contains(t, ix.Metadata, "m.py::Thing#new")
	assert.Nil(t, ix.Lookup("first"))
	assert.Nil(t, ix.Lookup("alpha"))
	assert.Equal(t, 2, ix.Lookup("run")["m.py::run"])
}

func TestBuild_SnippetTruncated(t *testing.T) {
	long := strings.Repeat("é", 250)
	ix := Build(map[string]*doc.Document{"x.py": {File: "x.py", Docstring: long}})

	assert.Equal(t, 200, len([]rune(ix.Metadata["x.py"].Snippet)))
}

func TestBuild_Empty(t *testing.T) {
	ix := Build(nil)
	assert.Zero(t, ix.TermCount())
	assert.Empty(t, ix.Metadata)
	assert.Empty(t, ix.ModuleKeys())
}
