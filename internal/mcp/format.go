package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/livedoc/internal/cache"
)

// FormatSearchResults formats ranked search hits as markdown.
func FormatSearchResults(query string, page int, results []cache.Result) string {
	if len(results) == 0 {
		if query == "" {
			return "No documented modules yet."
		}
		return fmt.Sprintf("No results found for \"%s\"", query)
	}

	var sb strings.Builder
	if query == "" {
		sb.WriteString("## Modules\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("## Search Results for \"%s\"\n\n", query))
	}
	sb.WriteString(fmt.Sprintf("Found %d result", len(results)))
	if len(results) != 1 {
		sb.WriteString("s")
	}
	if page > 1 {
		sb.WriteString(fmt.Sprintf(" (page %d)", page))
	}
	sb.WriteString("\n\n")

	for i, r := range results {
		formatResult(&sb, i+1, r)
	}
	return sb.String()
}

// formatResult writes a single result with its location and snippet.
func formatResult(sb *strings.Builder, num int, r cache.Result) {
	sb.WriteString(fmt.Sprintf("### %d. `%s` (%s)\n", num, r.FQN, r.Type))
	sb.WriteString(fmt.Sprintf("**File:** `%s` | **Score:** %d\n", r.File, r.Score))
	if r.Snippet != "" {
		sb.WriteString("\n> ")
		sb.WriteString(r.Snippet)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// clampLimit ensures limit is within bounds.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}
