package logging

import (
	"log/slog"
)

// SetupMCPMode initializes logging for `livedoc mcp`.
// stdout carries JSON-RPC frames and nothing else, so records go only to
// the log file. The logger is also installed as the slog default so that
// stray package-level slog calls cannot reach stdout.
func SetupMCPMode(level string) (*slog.Logger, func(), error) {
	if level == "" {
		level = "info"
	}
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.WriteToStderr = false
	return setupMCP(cfg)
}

func setupMCP(cfg Config) (*slog.Logger, func(), error) {
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	logger.Info("mcp logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))
	return logger, cleanup, nil
}
