package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/livedoc/internal/cache"
	"github.com/Aman-CERP/livedoc/internal/doc"
	"github.com/Aman-CERP/livedoc/internal/export"
	"github.com/Aman-CERP/livedoc/internal/telemetry"
	"github.com/Aman-CERP/livedoc/pkg/version"
)

// ServerName is the implementation name announced to MCP clients.
const ServerName = "livedoc"

// Search limits for the search_docs tool.
const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

// Options configures a Server.
type Options struct {
	// Version overrides the announced version. Defaults to version.Version.
	Version string
	Logger  *slog.Logger

	// Metrics records search_docs queries. Nil disables recording.
	Metrics *telemetry.QueryMetrics
}

// Server is the MCP server for livedoc.
// It answers tool calls and resource reads from the cache's published generation.
type Server struct {
	mcp     *mcp.Server
	store   *cache.Store
	logger  *slog.Logger
	metrics *telemetry.QueryMetrics
	version string

	// project is detected once; packaging metadata rarely changes while serving.
	project ProjectInfo

	mu        sync.Mutex
	resources map[string]struct{}
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var toolInfos = []ToolInfo{
	{
		Name:        "search_docs",
		Description: "Search documented modules, classes, functions and methods by name and docstring summary. Every query word must match (words longer than 6 characters also match by their 6-character prefix). An empty query lists modules. Returns ranked entries with their file and qualified name.",
	},
	{
		Name:        "get_module",
		Description: "Get the full extracted documentation of one Python module by its path relative to the project root: module docstring, constants, classes with methods, functions with signatures and parsed docstrings. Use format=markdown for a readable rendering.",
	},
	{
		Name:        "list_modules",
		Description: "List documented module paths with their summary line and class/function counts. Optionally filter by path prefix.",
	},
	{
		Name:        "cache_status",
		Description: "Report the documentation cache state: detected project, current generation, module and index key counts, and statistics of the last scan.",
	},
}

// NewServer creates a new MCP server over store.
func NewServer(store *cache.Store, opts Options) (*Server, error) {
	if store == nil {
		return nil, errors.New("cache store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = version.Version
	}

	s := &Server{
		store:     store,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		version:   opts.Version,
		resources: make(map[string]struct{}),
	}
	s.project = NewProjectDetector(store.Root(), s.logger).Detect()

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: s.version,
		},
		nil, // capabilities are inferred from registered tools/resources
	)

	s.registerTools()
	s.registerStatusResource()
	s.SyncResources()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, s.version
}

// Project returns the detected project.
func (s *Server) Project() ProjectInfo {
	return s.project
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(toolInfos))
	copy(out, toolInfos)
	return out
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[0].Name, Description: toolInfos[0].Description}, s.mcpSearchDocsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[1].Name, Description: toolInfos[1].Description}, s.mcpGetModuleHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[2].Name, Description: toolInfos[2].Description}, s.mcpListModulesHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[3].Name, Description: toolInfos[3].Description}, s.mcpCacheStatusHandler)

	s.logger.Debug("MCP tools registered", slog.Int("count", len(toolInfos)))
}

// mcpSearchDocsHandler is the MCP SDK handler for the search_docs tool.
func (s *Server) mcpSearchDocsHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchDocsInput) (
	*mcp.CallToolResult,
	SearchDocsOutput,
	error,
) {
	start := time.Now()
	requestID := generateRequestID()

	if input.Page < 0 {
		return nil, SearchDocsOutput{}, NewInvalidParamsError("page must be 1 or greater")
	}
	query := strings.TrimSpace(input.Query)
	limit := clampLimit(input.Limit, defaultSearchLimit, 1, maxSearchLimit)
	page := input.Page
	if page == 0 {
		page = 1
	}

	results := s.store.Search(query, limit, page)
	s.metrics.Record(telemetry.QueryEvent{
		Query:       query,
		Source:      telemetry.SourceMCP,
		ResultCount: len(results),
		Latency:     time.Since(start),
		Timestamp:   start,
	})

	s.logger.Debug("search_docs completed",
		slog.String("request_id", requestID),
		slog.String("query", query),
		slog.Int("limit", limit),
		slog.Int("page", page),
		slog.Int("result_count", len(results)),
		slog.Duration("duration", time.Since(start)))

	output := SearchDocsOutput{
		Query:   query,
		Page:    page,
		Limit:   limit,
		Results: make([]SearchHit, 0, len(results)),
	}
	for _, r := range results {
		output.Results = append(output.Results, toSearchHit(r))
	}

	return textResult(FormatSearchResults(query, page, results)), output, nil
}

// mcpGetModuleHandler is the MCP SDK handler for the get_module tool.
func (s *Server) mcpGetModuleHandler(_ context.Context, _ *mcp.CallToolRequest, input GetModuleInput) (
	*mcp.CallToolResult,
	GetModuleOutput,
	error,
) {
	if !isValidPath(input.Path) {
		return nil, GetModuleOutput{}, NewInvalidParamsError("invalid module path: " + input.Path)
	}

	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format != "" && format != "json" && format != "markdown" && format != "md" {
		return nil, GetModuleOutput{}, NewInvalidParamsError("format must be json or markdown")
	}

	d, ok := s.store.Document(doc.ModuleKey(input.Path))
	if !ok {
		return nil, GetModuleOutput{}, NewModuleNotFoundError(input.Path)
	}

	if format == "markdown" || format == "md" {
		md := export.Module(d)
		return textResult(md), GetModuleOutput{Markdown: md}, nil
	}
	return nil, GetModuleOutput{Document: d}, nil
}

// mcpListModulesHandler is the MCP SDK handler for the list_modules tool.
func (s *Server) mcpListModulesHandler(_ context.Context, _ *mcp.CallToolRequest, input ListModulesInput) (
	*mcp.CallToolResult,
	ListModulesOutput,
	error,
) {
	snap := s.store.Snapshot()

	entries := make([]ModuleEntry, 0, len(snap.Documents))
	for key, d := range snap.Documents {
		if input.Prefix != "" && !strings.HasPrefix(key, input.Prefix) {
			continue
		}
		entries = append(entries, ModuleEntry{
			Path:      key,
			Module:    doc.ModuleName(key),
			Summary:   doc.FirstLine(d.Docstring),
			Classes:   len(d.Classes),
			Functions: len(d.Functions),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return nil, ListModulesOutput{Modules: entries, Count: len(entries)}, nil
}

// mcpCacheStatusHandler is the MCP SDK handler for the cache_status tool.
func (s *Server) mcpCacheStatusHandler(_ context.Context, _ *mcp.CallToolRequest, _ CacheStatusInput) (
	*mcp.CallToolResult,
	CacheStatusOutput,
	error,
) {
	return nil, s.status(), nil
}

func (s *Server) status() CacheStatusOutput {
	gen := s.store.Current()
	out := CacheStatusOutput{
		Project:    s.project,
		Ready:      gen.Seq > 0,
		Generation: gen.Seq,
		Modules:    len(gen.Documents),
		IndexKeys:  gen.Index.TermCount(),
		LastScan:   s.store.LastStats(),
		Queries:    s.metrics.Snapshot(),
	}
	if !gen.Timestamp.IsZero() {
		out.LastUpdated = gen.Timestamp.UTC().Format(time.RFC3339)
	}
	return out
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects.
// Resources follow the cache while the server runs.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting MCP server", slog.String("transport", "stdio"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.WatchResources(ctx)

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped gracefully")
	return nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
