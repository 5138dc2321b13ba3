package mcp

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ProjectInfo identifies the documented project.
type ProjectInfo struct {
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
	Source   string `json:"source"`
}

// ProjectDetector reads the project name from Python packaging metadata.
type ProjectDetector struct {
	rootPath string
	logger   *slog.Logger
}

// NewProjectDetector creates a new project detector.
func NewProjectDetector(rootPath string, logger *slog.Logger) *ProjectDetector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProjectDetector{rootPath: rootPath, logger: logger}
}

var (
	tomlNameRe = regexp.MustCompile(`^\s*name\s*=\s*["']([^"']+)["']`)
	cfgNameRe  = regexp.MustCompile(`^\s*name\s*[=:]\s*(\S+)`)
)

// Detect returns project information for the root.
// Order: pyproject.toml [project], [tool.poetry], setup.cfg [metadata],
// then the directory (or file) name.
func (d *ProjectDetector) Detect() ProjectInfo {
	dir := d.rootPath
	name := filepath.Base(d.rootPath)
	if info, err := os.Stat(d.rootPath); err == nil && !info.IsDir() {
		dir = filepath.Dir(d.rootPath)
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	if n := sectionValue(filepath.Join(dir, "pyproject.toml"), tomlNameRe, "[project]", "[tool.poetry]"); n != "" {
		d.logger.Debug("project detected", slog.String("name", n), slog.String("source", "pyproject.toml"))
		return ProjectInfo{Name: n, RootPath: d.rootPath, Source: "pyproject.toml"}
	}
	if n := sectionValue(filepath.Join(dir, "setup.cfg"), cfgNameRe, "[metadata]"); n != "" {
		d.logger.Debug("project detected", slog.String("name", n), slog.String("source", "setup.cfg"))
		return ProjectInfo{Name: n, RootPath: d.rootPath, Source: "setup.cfg"}
	}
	return ProjectInfo{Name: name, RootPath: d.rootPath, Source: "directory"}
}

// sectionValue returns the first match of re inside one of the sections.
func sectionValue(path string, re *regexp.Regexp, sections ...string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	inSection := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			inSection = false
			for _, s := range sections {
				if line == s {
					inSection = true
				}
			}
			continue
		}
		if inSection {
			if m := re.FindStringSubmatch(line); len(m) > 1 {
				return m[1]
			}
		}
	}
	return ""
}
