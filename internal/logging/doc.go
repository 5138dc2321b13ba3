// Package logging sets up slog for livedoc.
//
// Without --debug, logs go to stderr through a text handler at the configured
// level. With --debug, JSON logs are written to ~/.livedoc/logs/livedoc.log with
// size-based rotation and, outside MCP mode, tee'd to stderr.
//
// The MCP stdio transport owns stdout, so MCP mode logs only to the file.
package logging
