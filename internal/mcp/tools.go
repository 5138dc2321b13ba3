package mcp

import (
	"github.com/Aman-CERP/livedoc/internal/cache"
	"github.com/Aman-CERP/livedoc/internal/doc"
	"github.com/Aman-CERP/livedoc/internal/telemetry"
)

// SearchDocsInput defines the input schema for the search_docs tool.
type SearchDocsInput struct {
	Query string `json:"query" jsonschema:"words to look for in names and docstrings; empty lists modules"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 20"`
	Page  int    `json:"page,omitempty" jsonschema:"1-based result page, default 1"`
}

// SearchDocsOutput defines the output schema for the search_docs tool.
type SearchDocsOutput struct {
	Query   string      `json:"query"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	Results []SearchHit `json:"results"`
}

// SearchHit is one ranked entry of the search_docs output.
type SearchHit struct {
	Key     string `json:"key"`
	File    string `json:"file"`
	FQN     string `json:"fqn"`
	Type    string `json:"type"`
	Snippet string `json:"snippet,omitempty"`
	Score   int    `json:"score"`
}

func toSearchHit(r cache.Result) SearchHit {
	return SearchHit{
		Key:     r.Key,
		File:    r.File,
		FQN:     r.FQN,
		Type:    string(r.Type),
		Snippet: r.Snippet,
		Score:   r.Score,
	}
}

// GetModuleInput defines the input schema for the get_module tool.
type GetModuleInput struct {
	Path   string `json:"path" jsonschema:"module path relative to the project root, e.g. pkg/util.py"`
	Format string `json:"format,omitempty" jsonschema:"json (default) or markdown"`
}

// GetModuleOutput defines the output schema for the get_module tool.
// Exactly one of Document and Markdown is set.
type GetModuleOutput struct {
	Document *doc.Document `json:"document,omitempty"`
	Markdown string        `json:"markdown,omitempty"`
}

// ListModulesInput defines the input schema for the list_modules tool.
type ListModulesInput struct {
	Prefix string `json:"prefix,omitempty" jsonschema:"only list module paths starting with this prefix"`
}

// ModuleEntry is one line of the list_modules output.
type ModuleEntry struct {
	Path      string `json:"path"`
	Module    string `json:"module"`
	Summary   string `json:"summary,omitempty"`
	Classes   int    `json:"classes"`
	Functions int    `json:"functions"`
}

// ListModulesOutput defines the output schema for the list_modules tool.
type ListModulesOutput struct {
	Modules []ModuleEntry `json:"modules"`
	Count   int           `json:"count"`
}

// CacheStatusInput defines the input schema for the cache_status tool (no parameters).
type CacheStatusInput struct{}

// CacheStatusOutput defines the output schema for the cache_status tool.
type CacheStatusOutput struct {
	Project     ProjectInfo        `json:"project"`
	Ready       bool               `json:"ready"`
	Generation  uint64             `json:"generation"`
	Modules     int                `json:"modules"`
	IndexKeys   int                `json:"index_keys"`
	LastUpdated string             `json:"last_updated,omitempty"`
	LastScan    cache.ScanStats    `json:"last_scan"`
	Queries     telemetry.Snapshot `json:"queries"`
}
