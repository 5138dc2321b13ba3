package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/livedoc/internal/cache"
	"github.com/Aman-CERP/livedoc/internal/index"
)

func TestFormatSearchResults(t *testing.T) {
	results := []cache.Result{
		{Metadata: index.Metadata{Key: "a.py::f", File: "a.py", FQN: "a.f", Snippet: "Do f.", Type: index.TypeFunction}, Score: 4},
		{Metadata: index.Metadata{Key: "a.py", File: "a.py", FQN: "a", Type: index.TypeModule}, Score: 2},
	}

	out := FormatSearchResults("f", 2, results)

	assert.Contains(t, out, `## Search Results for "f"`)
	assert.Contains(t, out, "Found 2 results (page 2)")
	assert.Contains(t, out, "### 1. `a.f` (function)")
	assert.Contains(t, out, "**File:** `a.py` | **Score:** 4")
	assert.Contains(t, out, "> Do f.")
	assert.Contains(t, out, "### 2. `a` (module)")
}

func TestFormatSearchResults_Empty(t *testing.T) {
	assert.Equal(t, `No results found for "zzz"`, FormatSearchResults("zzz", 1, nil))
	assert.Equal(t, "No documented modules yet.", FormatSearchResults("", 1, nil))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, clampLimit(0, 20, 1, 200))
	assert.Equal(t, 20, clampLimit(-3, 20, 1, 200))
	assert.Equal(t, 7, clampLimit(7, 20, 1, 200))
	assert.Equal(t, 200, clampLimit(900, 20, 1, 200))
}
