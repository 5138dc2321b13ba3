package cache

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Key
	}
	return out
}

func TestSearch_ConcreteScenario(t *testing.T) {
	// Given: two modules each defining a load function
	root := t.TempDir()
	writePy(t, root, "a.py", "\"\"\"Helper utilities\"\"\"\n\ndef load(path):\n    pass\n")
	writePy(t, root, "b.py", "\"\"\"Main entry\"\"\"\n\ndef load_config(path):\n    pass\n")
	s := newTestStore(t, root, newCountingExtractor())
	require.True(t, scan(t, s))

	// When: searching for "load"
	results := s.Search("load", 0, 1)

	// Then: both functions, exact match first
	require.Equal(t, []string{"a.py::load", "b.py::load_config"}, keys(results))
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, "a.load", results[0].FQN)
	assert.Equal(t, "function", string(results[0].Type))

	// And: "helper" only finds a.py
	assert.Equal(t, []string{"a.py"}, keys(s.Search("helper", 0, 1)))
}

func TestSearch_ANDSemantics(t *testing.T) {
	root := t.TempDir()
	writePy(t, root, "one.py", "\"\"\"Parse config files.\"\"\"\n")
	writePy(t, root, "two.py", "\"\"\"Parse network packets.\"\"\"\n")
	s := newTestStore(t, root, newCountingExtractor())
	require.True(t, scan(t, s))

	assert.Len(t, s.Search("parse", 0, 1), 2)
	assert.Equal(t, []string{"one.py"}, keys(s.Search("parse config", 0, 1)))
	assert.Empty(t, s.Search("parse nothingmatches", 0, 1))
}

func TestSearch_Prefix(t *testing.T) {
	root := t.TempDir()
	writePy(t, root, "auth.py", "def authenticate_user(name):\n    pass\n")
	s := newTestStore(t, root, newCountingExtractor())
	require.True(t, scan(t, s))

	assert.Contains(t, keys(s.Search("auth", 0, 1)), "auth.py::authenticate_user")

	// tokens longer than six characters fall back to their prefix
	fallback := s.Search("authenticator", 0, 1)
	assert.Contains(t, keys(fallback), "auth.py::authenticate_user")
	for _, r := range fallback {
		assert.Positive(t, r.Score, "prefix matches carry the prefix count")
	}
}

func TestSearch_EmptyQueryPagination(t *testing.T) {
	root := t.TempDir()
	writePy(t, root, "c.py", "def f():\n    pass\n")
	writePy(t, root, "a.py", "")
	writePy(t, root, "b.py", "")
	s := newTestStore(t, root, newCountingExtractor())
	require.True(t, scan(t, s))

	tests := []struct {
		name  string
		query string
		limit int
		page  int
		want  []string
	}{
		{"all modules", "", 0, 1, []string{"a.py", "b.py", "c.py"}},
		{"whitespace", "   ", 10, 1, []string{"a.py", "b.py", "c.py"}},
		{"second page", "", 1, 2, []string{"b.py"}},
		{"page below one", "", 2, 0, []string{"a.py", "b.py"}},
		{"past the end", "", 2, 5, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keys(s.Search(tt.query, tt.limit, tt.page)))
		})
	}
}

func TestSearch_QueryWithoutTokens(t *testing.T) {
	root := t.TempDir()
	writePy(t, root, "a.py", "")
	s := newTestStore(t, root, newCountingExtractor())
	require.True(t, scan(t, s))

	assert.Empty(t, s.Search("?!", 0, 1))
}

func TestSearch_RepeatedTokensAddWeight(t *testing.T) {
	root := t.TempDir()
	writePy(t, root, "a.py", "def load():\n    pass\n")
	s := newTestStore(t, root, newCountingExtractor())
	require.True(t, scan(t, s))

	once := s.Search("load", 0, 1)
	twice := s.Search("load LOAD", 0, 1)
	require.Len(t, once, 1)
	require.Len(t, twice, 1)
	assert.Equal(t, 2*once[0].Score, twice[0].Score)
}

func TestSearch_RepeatedTokenReorders(t *testing.T) {
	// Given: two functions that tie on "parse config"
	root := t.TempDir()
	writePy(t, root, "a.py", "def parse():\n    \"\"\"Parse the config.\"\"\"\n")
	writePy(t, root, "b.py", "def config():\n    \"\"\"Config for parse.\"\"\"\n")
	s := newTestStore(t, root, newCountingExtractor())
	require.True(t, scan(t, s))

	tied := s.Search("parse config", 0, 1)
	require.Equal(t, []string{"a.py::parse", "b.py::config"}, keys(tied))
	require.Equal(t, tied[0].Score, tied[1].Score)

	// When: "config" is repeated
	results := s.Search("config config parse", 0, 1)

	// Then: the entry with more config hits overtakes the FQN tie-break
	assert.Equal(t, []string{"b.py::config", "a.py::parse"}, keys(results))
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_HugePageIsEmpty(t *testing.T) {
	root := t.TempDir()
	writePy(t, root, "a.py", "\"\"\"Loader.\"\"\"\n\ndef load(path):\n    pass\n")
	writePy(t, root, "b.py", "def load_all():\n    pass\n")
	s := newTestStore(t, root, newCountingExtractor())
	require.True(t, scan(t, s))

	tests := []struct {
		name  string
		query string
		limit int
		page  int
	}{
		{"empty query max page", "", 2, math.MaxInt64},
		{"empty query overflowing page", "", 200, 1 << 62},
		{"tokens max page", "load", 2, math.MaxInt64},
		{"tokens overflowing page", "load", 200, 1 << 62},
		{"default limit max page", "load", 0, math.MaxInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []Result
			require.NotPanics(t, func() {
				results = s.Search(tt.query, tt.limit, tt.page)
			})
			assert.NotNil(t, results)
			assert.Empty(t, results)
		})
	}

	// And: the last real page is still served
	assert.Equal(t, []string{"b.py"}, keys(s.Search("", 1, 2)))
}

func TestSearch_TieBreakByFQN(t *testing.T) {
	root := t.TempDir()
	writePy(t, root, "z.py", "def run():\n    pass\n")
	writePy(t, root, "a.py", "def run():\n    pass\n")
	s := newTestStore(t, root, newCountingExtractor())
	require.True(t, scan(t, s))

	assert.Equal(t, []string{"a.py::run", "z.py::run"}, keys(s.Search("run", 0, 1)))
}

func TestSearch_CacheFollowsGeneration(t *testing.T) {
	// Given: a cached result
	root := t.TempDir()
	writePy(t, root, "a.py", "def alpha():\n    pass\n")
	s := newTestStore(t, root, newCountingExtractor())
	require.True(t, scan(t, s))
	require.Len(t, s.Search("alpha", 0, 1), 1)

	// When: a new generation adds another match
	writePy(t, root, "b.py", "def alpha_two():\n    pass\n")
	require.True(t, scan(t, s))

	// Then: the search reflects it
	assert.Len(t, s.Search("alpha", 0, 1), 2)
}
