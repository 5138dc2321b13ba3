package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/livedoc/internal/doc"
	"github.com/Aman-CERP/livedoc/internal/export"
)

const (
	moduleURIPrefix = "doc://module/"
	statusURI       = "doc://status"
)

// ModuleURI returns the resource URI of a module key.
func ModuleURI(key string) string {
	return moduleURIPrefix + key
}

// SyncResources registers a resource for every module of the current
// generation and removes resources of modules that disappeared.
func (s *Server) SyncResources() {
	docs := s.store.Current().Documents

	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []string
	for uri := range s.resources {
		if _, ok := docs[strings.TrimPrefix(uri, moduleURIPrefix)]; !ok {
			stale = append(stale, uri)
		}
	}
	if len(stale) > 0 {
		s.mcp.RemoveResources(stale...)
		for _, uri := range stale {
			delete(s.resources, uri)
		}
	}

	added := 0
	for key, d := range docs {
		uri := ModuleURI(key)
		if _, ok := s.resources[uri]; ok {
			continue
		}
		s.registerModuleResource(key, d)
		s.resources[uri] = struct{}{}
		added++
	}

	if added > 0 || len(stale) > 0 {
		s.logger.Debug("resources synced",
			slog.Int("added", added),
			slog.Int("removed", len(stale)),
			slog.Int("total", len(s.resources)))
	}
}

// WatchResources keeps resources in step with published generations until
// ctx is done.
func (s *Server) WatchResources(ctx context.Context) {
	events, unsubscribe := s.store.Subscribe()
	defer unsubscribe()

	s.SyncResources()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			s.SyncResources()
		}
	}
}

// registerModuleResource registers a single module as an MCP resource.
func (s *Server) registerModuleResource(key string, d *doc.Document) {
	desc := doc.FirstLine(d.Docstring)
	if desc == "" {
		desc = fmt.Sprintf("Documentation of %s", key)
	}
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        path.Base(key),
			URI:         ModuleURI(key),
			Description: desc,
			MIMEType:    "text/markdown",
		},
		s.makeModuleHandler(key),
	)
}

// makeModuleHandler creates a read handler for a specific module key.
// The document is looked up at read time so edits show without re-registering.
func (s *Server) makeModuleHandler(key string) mcp.ResourceHandler {
	return func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		d, ok := s.store.Document(key)
		if !ok {
			return nil, NewResourceNotFoundError(req.Params.URI)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      ModuleURI(key),
					MIMEType: "text/markdown",
					Text:     export.Module(d),
				},
			},
		}, nil
	}
}

// registerStatusResource registers the cache status resource.
func (s *Server) registerStatusResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "status",
			URI:         statusURI,
			Description: "Documentation cache status",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			data, err := json.MarshalIndent(s.status(), "", "  ")
			if err != nil {
				return nil, MapError(err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: statusURI, MIMEType: "application/json", Text: string(data)},
				},
			}, nil
		},
	)
}

// isValidPath validates that a module path is safe to look up.
// Returns false for traversal attempts and absolute paths.
func isValidPath(p string) bool {
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return false
	}
	// Windows drive letters
	if len(p) >= 2 && p[1] == ':' {
		return false
	}
	for _, part := range strings.Split(path.Clean(p), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
