package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/livedoc/internal/cache"
	"github.com/Aman-CERP/livedoc/internal/extract"
	"github.com/Aman-CERP/livedoc/internal/scanner"
	"github.com/Aman-CERP/livedoc/internal/telemetry"
)

var clock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func writePy(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	clock = clock.Add(time.Second)
	require.NoError(t, os.Chtimes(path, clock, clock))
}

const utilSource = `"""Utility helpers."""

RETRIES = 3


def load_config(path: str) -> dict:
    """Load the config file.

    Args:
        path: Location of the file.
    """
    return {}
`

const appSource = `"""Application entry."""


class Server:
    """HTTP server."""

    def start(self, port: int = 5000) -> None:
        """Start serving."""
`

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newTestServer returns a server over a scanned two-module tree.
func newTestServer(t *testing.T) (*Server, *cache.Store, string) {
	t.Helper()
	root := t.TempDir()
	writePy(t, root, "pkg/util.py", utilSource)
	writePy(t, root, "app.py", appSource)

	sc, err := scanner.New(scanner.Options{})
	require.NoError(t, err)
	store, err := cache.New(cache.Options{Root: root, Workers: 2, Logger: quietLogger()}, extract.New(extract.Options{}), sc)
	require.NoError(t, err)
	_, err = store.ScanAndUpdate(context.Background())
	require.NoError(t, err)

	srv, err := NewServer(store, Options{Version: "test", Logger: quietLogger(), Metrics: telemetry.New(telemetry.Config{})})
	require.NoError(t, err)
	return srv, store, root
}

func TestNewServer_RequiresStore(t *testing.T) {
	_, err := NewServer(nil, Options{})
	assert.Error(t, err)
}

func TestServer_Info(t *testing.T) {
	srv, _, root := newTestServer(t)

	name, ver := srv.Info()
	assert.Equal(t, "livedoc", name)
	assert.Equal(t, "test", ver)
	assert.NotNil(t, srv.MCPServer())
	assert.Equal(t, filepath.Base(root), srv.Project().Name)

	var names []string
	for _, tool := range srv.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}
	assert.Equal(t, []string{"search_docs", "get_module", "list_modules", "cache_status"}, names)
}

func TestSearchDocs(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     SearchDocsInput
		wantFirst string
		wantCount int
		wantLimit int
	}{
		{"single word", SearchDocsInput{Query: "load"}, "pkg/util.py::load_config", 1, defaultSearchLimit},
		{"all words must match", SearchDocsInput{Query: "load config"}, "pkg/util.py::load_config", 1, defaultSearchLimit},
		{"no match", SearchDocsInput{Query: "nothing"}, "", 0, defaultSearchLimit},
		{"empty query lists modules", SearchDocsInput{Query: "  "}, "app.py", 2, defaultSearchLimit},
		{"limit clamped", SearchDocsInput{Limit: 5000}, "app.py", 2, maxSearchLimit},
		{"second page", SearchDocsInput{Limit: 1, Page: 2}, "pkg/util.py", 1, 1},
		{"page past the end", SearchDocsInput{Query: "load", Page: 1 << 62}, "", 0, defaultSearchLimit},
		{"max page max limit", SearchDocsInput{Query: "load", Limit: maxSearchLimit, Page: math.MaxInt64}, "", 0, maxSearchLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When
			res, out, err := srv.mcpSearchDocsHandler(ctx, nil, tt.input)

			// Then
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Len(t, out.Results, tt.wantCount)
			assert.Equal(t, tt.wantLimit, out.Limit)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, out.Results[0].Key)
			}
			text := res.Content[0].(*mcp.TextContent).Text
			if tt.wantCount == 0 {
				assert.Contains(t, text, "No results found")
			} else {
				assert.Contains(t, text, "Found")
			}
		})
	}
}

func TestSearchDocs_NegativePage(t *testing.T) {
	srv, _, _ := newTestServer(t)

	_, _, err := srv.mcpSearchDocsHandler(context.Background(), nil, SearchDocsInput{Query: "load", Page: -1})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestGetModule(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	t.Run("json", func(t *testing.T) {
		res, out, err := srv.mcpGetModuleHandler(ctx, nil, GetModuleInput{Path: "pkg/util.py"})
		require.NoError(t, err)
		assert.Nil(t, res)
		require.NotNil(t, out.Document)
		assert.Equal(t, "pkg/util.py", out.Document.File)
		require.Len(t, out.Document.Functions, 1)
		assert.Equal(t, "load_config", out.Document.Functions[0].Name)
		assert.Empty(t, out.Markdown)
	})

	t.Run("markdown", func(t *testing.T) {
		res, out, err := srv.mcpGetModuleHandler(ctx, nil, GetModuleInput{Path: "./pkg/util.py", Format: "Markdown"})
		require.NoError(t, err)
		assert.Nil(t, out.Document)
		assert.Contains(t, out.Markdown, "# pkg/util.py")
		assert.Contains(t, out.Markdown, "load_config")
		require.NotNil(t, res)
		assert.Equal(t, out.Markdown, res.Content[0].(*mcp.TextContent).Text)
	})

	errTests := []struct {
		name  string
		input GetModuleInput
		code  int
	}{
		{"missing module", GetModuleInput{Path: "nope.py"}, ErrCodeModuleNotFound},
		{"empty path", GetModuleInput{}, ErrCodeInvalidParams},
		{"traversal", GetModuleInput{Path: "../etc/passwd"}, ErrCodeInvalidParams},
		{"absolute", GetModuleInput{Path: "/etc/passwd"}, ErrCodeInvalidParams},
		{"bad format", GetModuleInput{Path: "app.py", Format: "pdf"}, ErrCodeInvalidParams},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := srv.mcpGetModuleHandler(ctx, nil, tt.input)
			var mcpErr *MCPError
			require.ErrorAs(t, err, &mcpErr)
			assert.Equal(t, tt.code, mcpErr.Code)
		})
	}
}

func TestListModules(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// Given no prefix
	_, out, err := srv.mcpListModulesHandler(context.Background(), nil, ListModulesInput{})

	// Then modules are sorted by path with their summaries
	require.NoError(t, err)
	require.Equal(t, 2, out.Count)
	assert.Equal(t, ModuleEntry{Path: "app.py", Module: "app", Summary: "Application entry.", Classes: 1}, out.Modules[0])
	assert.Equal(t, ModuleEntry{Path: "pkg/util.py", Module: "pkg.util", Summary: "Utility helpers.", Functions: 1}, out.Modules[1])

	// Given a prefix
	_, out, err = srv.mcpListModulesHandler(context.Background(), nil, ListModulesInput{Prefix: "pkg/"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "pkg/util.py", out.Modules[0].Path)
}

func TestCacheStatus(t *testing.T) {
	srv, store, _ := newTestServer(t)

	_, out, err := srv.mcpCacheStatusHandler(context.Background(), nil, CacheStatusInput{})

	require.NoError(t, err)
	assert.True(t, out.Ready)
	assert.Equal(t, uint64(1), out.Generation)
	assert.Equal(t, 2, out.Modules)
	assert.Equal(t, store.Snapshot().IndexKeyCount, out.IndexKeys)
	assert.NotEmpty(t, out.LastUpdated)
	assert.Equal(t, 2, out.LastScan.Files)
	assert.Equal(t, 2, out.LastScan.Extracted)
	assert.Zero(t, out.Queries.TotalQueries)
}

func TestCacheStatus_CountsSearches(t *testing.T) {
	// Given: two searches, one of which misses
	srv, _, _ := newTestServer(t)
	ctx := context.Background()
	_, _, err := srv.mcpSearchDocsHandler(ctx, nil, SearchDocsInput{Query: "load"})
	require.NoError(t, err)
	_, _, err = srv.mcpSearchDocsHandler(ctx, nil, SearchDocsInput{Query: "nothing"})
	require.NoError(t, err)

	// When: asking for the cache status
	_, out, err := srv.mcpCacheStatusHandler(ctx, nil, CacheStatusInput{})

	// Then: both queries are reported
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Queries.TotalQueries)
	assert.Equal(t, int64(1), out.Queries.ZeroResultCount)
	assert.Equal(t, []string{"nothing"}, out.Queries.ZeroResultQueries)
	assert.Equal(t, int64(2), out.Queries.SourceCounts[telemetry.SourceMCP])
}

func TestCacheStatus_BeforeFirstScan(t *testing.T) {
	root := t.TempDir()
	sc, err := scanner.New(scanner.Options{})
	require.NoError(t, err)
	store, err := cache.New(cache.Options{Root: root, Logger: quietLogger()}, extract.New(extract.Options{}), sc)
	require.NoError(t, err)
	srv, err := NewServer(store, Options{Logger: quietLogger()})
	require.NoError(t, err)

	_, out, err := srv.mcpCacheStatusHandler(context.Background(), nil, CacheStatusInput{})

	require.NoError(t, err)
	assert.False(t, out.Ready)
	assert.Zero(t, out.Generation)
	assert.Empty(t, out.LastUpdated)
}

// connect wires an in-memory client session to srv.
func connect(t *testing.T, ctx context.Context, srv *Server) *mcp.ClientSession {
	t.Helper()
	serverT, clientT := mcp.NewInMemoryTransports()
	ss, err := srv.MCPServer().Connect(ctx, serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestSession_ToolsAndResources(t *testing.T) {
	srv, store, root := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	session := connect(t, ctx, srv)

	// Tools are listed
	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search_docs", "get_module", "list_modules", "cache_status"}, names)

	// search_docs answers with markdown
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_docs",
		Arguments: map[string]any{"query": "server"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.NotEmpty(t, result.Content)
	assert.Contains(t, result.Content[0].(*mcp.TextContent).Text, "app.Server")

	// cache_status answers with JSON text
	result, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "cache_status", Arguments: map[string]any{}})
	require.NoError(t, err)
	var status CacheStatusOutput
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].(*mcp.TextContent).Text), &status))
	assert.Equal(t, 2, status.Modules)

	// unknown module is a tool error
	result, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_module",
		Arguments: map[string]any{"path": "missing.py"},
	})
	if err == nil {
		assert.True(t, result.IsError)
	}

	// module resources are listed and readable
	listed, err := session.ListResources(ctx, nil)
	require.NoError(t, err)
	uris := map[string]bool{}
	for _, r := range listed.Resources {
		uris[r.URI] = true
	}
	assert.True(t, uris["doc://module/app.py"])
	assert.True(t, uris["doc://module/pkg/util.py"])
	assert.True(t, uris["doc://status"])

	read, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "doc://module/pkg/util.py"})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Equal(t, "text/markdown", read.Contents[0].MIMEType)
	assert.Contains(t, read.Contents[0].Text, "## Functions")

	// Given a deleted module, resources follow the next generation
	require.NoError(t, os.Remove(filepath.Join(root, "pkg", "util.py")))
	_, err = store.ScanAndUpdate(ctx)
	require.NoError(t, err)
	srv.SyncResources()

	listed, err = session.ListResources(ctx, nil)
	require.NoError(t, err)
	uris = map[string]bool{}
	for _, r := range listed.Resources {
		uris[r.URI] = true
	}
	assert.False(t, uris["doc://module/pkg/util.py"])
	assert.True(t, uris["doc://module/app.py"])
}

func TestWatchResources_FollowsGenerations(t *testing.T) {
	srv, store, root := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		srv.WatchResources(ctx)
		close(done)
	}()

	// When a module is added and a new generation is published
	writePy(t, root, "extra.py", `"""Extra."""`+"\n")
	_, err := store.ScanAndUpdate(context.Background())
	require.NoError(t, err)

	// Then a resource appears for it
	assert.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		_, ok := srv.resources[ModuleURI("extra.py")]
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WatchResources did not stop")
	}
}

func TestIsValidPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"app.py", true},
		{"pkg/util.py", true},
		{"./pkg/util.py", true},
		{"", false},
		{"/abs.py", false},
		{"../up.py", false},
		{"pkg/../../up.py", false},
		{`pkg\util.py`, false},
		{"C:/x.py", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isValidPath(tt.path))
		})
	}
}
