package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/livedoc/internal/doc"
)

func TestCleanDoc(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"single line", "  Hello.  ", "Hello."},
		{"common indent removed", "Summary.\n\n    Body line.\n      Nested.\n    ", "Summary.\n\nBody line.\n  Nested."},
		{"leading blank lines", "\n\n    Summary.\n    More.\n", "Summary.\nMore."},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanDoc(tt.raw))
		})
	}
}

func TestDetectStyle(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Sum.\n\nParameters\n----------\nx : int", StyleNumpy},
		{"Sum.\n\nArgs:\n    x: value", StyleGoogle},
		{"Sum.\n\n:param x: value", StyleRest},
		{"Just words.", StylePlain},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectStyle(tt.text))
		})
	}
}

func TestParseDocstring_Numpy(t *testing.T) {
	text := "Compute a total.\n\nLonger story.\n\nParameters\n----------\nx : int\n    The first value.\ny : float, optional\n    Scale.\n\nReturns\n-------\nint\n    The total.\n\nRaises\n------\nValueError\n    When x is negative."

	p := ParseDocstring(text, StyleAuto)

	assert.Equal(t, StyleNumpy, p.Style)
	assert.Equal(t, "Compute a total.", p.Summary)
	assert.Equal(t, "Longer story.", p.Description)
	assert.Equal(t, []doc.DocField{
		{Name: "x", Type: "int", Desc: "The first value."},
		{Name: "y", Type: "float, optional", Desc: "Scale."},
	}, p.Params)
	require.NotNil(t, p.Returns)
	assert.Equal(t, "int", p.Returns.Type)
	assert.Equal(t, "The total.", p.Returns.Desc)
	require.Len(t, p.Raises, 2)
	assert.Equal(t, "ValueError", p.Raises[0].Name)
}

func TestParseDocstring_Rest(t *testing.T) {
	text := "Open a file.\n\n:param path: Where to look.\n:type path: str\n:returns: A handle.\n:rtype: File\n:raises OSError: On failure."

	p := ParseDocstring(text, "")

	assert.Equal(t, StyleRest, p.Style)
	assert.Equal(t, "Open a file.", p.Summary)
	assert.Equal(t, []doc.DocField{{Name: "path", Type: "str", Desc: "Where to look."}}, p.Params)
	require.NotNil(t, p.Returns)
	assert.Equal(t, doc.DocField{Type: "File", Desc: "A handle."}, *p.Returns)
	assert.Equal(t, []doc.DocField{{Name: "OSError", Desc: "On failure."}}, p.Raises)
}

func TestParseDocstring_ForcedPlain(t *testing.T) {
	p := ParseDocstring("First line.\nArgs:\n    x: y", StylePlain)

	assert.Equal(t, StylePlain, p.Style)
	assert.Equal(t, "First line.", p.Summary)
	assert.Equal(t, "Args:\n    x: y", p.Description)
	assert.Empty(t, p.Params)
}

func TestStringValue(t *testing.T) {
	assert.Equal(t, "a\nb", stringValue(`"a\nb"`))
	assert.Equal(t, `a\nb`, stringValue(`r"a\nb"`))
	assert.Equal(t, "doc", stringValue(`'''doc'''`))
	assert.Equal(t, "", stringValue(`""`))
}
