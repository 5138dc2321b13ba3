package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
	"github.com/Aman-CERP/livedoc/internal/ui"
)

const utilSource = `"""Utility helpers."""

RETRIES = 3


def load_config(path: str) -> dict:
    """Load the config file."""
    return {}
`

const appSource = `"""Application entry."""


class Server:
    """HTTP server."""

    def start(self, port: int = 5000) -> None:
        """Start serving."""
`

// newProject writes a two-module tree and isolates the user config.
func newProject(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := t.TempDir()
	for rel, src := range map[string]string{"pkg/util.py": utilSource, "app.py": appSource} {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return root
}

// run executes the root command and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	// Given: a root command

	// When: executing with --help
	out, _, err := run(t, "--help")

	// Then: every subcommand is listed
	require.NoError(t, err)
	for _, name := range []string{"serve", "mcp", "scan", "search", "export", "show", "browse", "logs", "config", "doctor", "version"} {
		assert.Contains(t, out, name)
	}
}

func TestScanCmd_JSON(t *testing.T) {
	// Given: a project with two modules
	root := newProject(t)

	// When: scanning with --json
	out, _, err := run(t, "scan", root, "--json")

	// Then: the summary reports the first generation
	require.NoError(t, err)
	var summary ui.ScanSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, root, summary.Root)
	assert.Equal(t, uint64(1), summary.Generation)
	assert.Equal(t, 2, summary.Modules)
	assert.True(t, summary.Changed)
	assert.Equal(t, 2, summary.Stats.Extracted)
	assert.Positive(t, summary.IndexKeys)
}

func TestScanCmd_ReportsBrokenFiles(t *testing.T) {
	// Given: a project with one file that does not parse
	root := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.py"), []byte("def broken(:\n"), 0o644))

	// When: scanning
	out, _, err := run(t, "scan", root)

	// Then: the scan succeeds and lists the skipped file
	require.NoError(t, err)
	assert.Contains(t, out, "Scan complete")
	assert.Contains(t, out, "broken.py")
}

func TestScanCmd_MissingRoot(t *testing.T) {
	// Given: a path that does not exist
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	missing := filepath.Join(t.TempDir(), "nope")

	// When: scanning it
	_, _, err := run(t, "scan", missing)

	// Then: the error carries the root-not-found code
	require.Error(t, err)
	assert.Equal(t, docerrors.ErrCodeRootNotFound, docerrors.GetCode(err))
}

func TestSearchCmd(t *testing.T) {
	root := newProject(t)

	tests := []struct {
		name     string
		args     []string
		contains []string
		code     string
	}{
		{"text hit", []string{"search", "load", "--path", root}, []string{"pkg.util.load_config", "pkg/util.py"}, ""},
		{"all words must match", []string{"search", "load", "config", "--path", root}, []string{"load_config"}, ""},
		{"no match", []string{"search", "nothing", "--path", root}, []string{`No results for "nothing"`}, ""},
		{"empty query lists modules", []string{"search", "--path", root}, []string{"app", "pkg.util"}, ""},
		{"bad format", []string{"search", "x", "--format", "xml", "--path", root}, nil, docerrors.ErrCodeInvalidFormat},
		{"bad page", []string{"search", "x", "--page", "0", "--path", root}, nil, docerrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When: running search
			out, _, err := run(t, tt.args...)

			// Then: output or error matches
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, docerrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestSearchCmd_JSON(t *testing.T) {
	// Given: a project
	root := newProject(t)

	// When: searching with --format json
	out, _, err := run(t, "search", "server", "--format", "json", "--path", root)

	// Then: the report decodes and includes the class
	require.NoError(t, err)
	var report struct {
		Query   string `json:"query"`
		Page    int    `json:"page"`
		Results []struct {
			Key  string `json:"key"`
			Type string `json:"type"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "server", report.Query)
	assert.Equal(t, 1, report.Page)
	types := map[string]string{}
	for _, r := range report.Results {
		types[r.Key] = r.Type
	}
	assert.Equal(t, "class", types["app.py::Server"])
}

func TestExportCmd(t *testing.T) {
	root := newProject(t)

	t.Run("markdown to stdout", func(t *testing.T) {
		out, _, err := run(t, "export", root)
		require.NoError(t, err)
		assert.Contains(t, out, "# pkg/util.py")
		assert.Contains(t, out, "# app.py")
	})

	t.Run("json to file", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "docs.json")
		_, stderr, err := run(t, "export", root, "--format", "json", "-o", target)
		require.NoError(t, err)
		assert.Contains(t, stderr, "Exported 2 modules")

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.True(t, json.Valid(data))
		assert.Contains(t, string(data), "load_config")
	})

	t.Run("directory gets one file per module", func(t *testing.T) {
		dir := t.TempDir()
		_, _, err := run(t, "export", root, "--format", "html", "-o", dir)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "pkg_util.py.html"))
		assert.FileExists(t, filepath.Join(dir, "app.py.html"))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := run(t, "export", root, "--format", "pdf")
		require.Error(t, err)
		assert.Equal(t, docerrors.ErrCodeInvalidFormat, docerrors.GetCode(err))
	})
}

func TestShowCmd(t *testing.T) {
	root := newProject(t)

	tests := []struct {
		name   string
		module string
		want   string
	}{
		{"by path", "pkg/util.py", "# pkg/util.py"},
		{"by dotted name", "pkg.util", "load_config"},
		{"with leading dot slash", "./app.py", "Server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When: showing a module (a buffer is not a terminal, so output is raw)
			out, _, err := run(t, "show", tt.module, "--path", root)

			// Then: the module Markdown is printed
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}

	t.Run("missing module", func(t *testing.T) {
		_, _, err := run(t, "show", "nope.py", "--path", root)
		require.Error(t, err)
		assert.Equal(t, docerrors.ErrCodeModuleNotFound, docerrors.GetCode(err))
	})
}

func TestBrowseCmd_RequiresTerminal(t *testing.T) {
	// Given: stdout is a buffer
	root := newProject(t)

	// When: starting the browser
	_, _, err := run(t, "browse", root)

	// Then: it refuses to start
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestConfigCmd_InitAndShow(t *testing.T) {
	// Given: a project without a config file
	root := newProject(t)
	target := filepath.Join(root, ".livedoc.yaml")

	// When: running config init
	out, _, err := run(t, "config", "init", root)

	// Then: the default config is written
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	assert.FileExists(t, target)

	// When: running it again without --force
	_, _, err = run(t, "config", "init", root)

	// Then: it refuses to overwrite
	require.Error(t, err)
	assert.Equal(t, docerrors.ErrCodeInvalidInput, docerrors.GetCode(err))

	// When: forcing
	out, _, err = run(t, "config", "init", root, "--force")

	// Then: the old file is backed up first
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up")
	matches, err := filepath.Glob(target + ".bak.*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	// When: showing the effective config as JSON
	out, _, err = run(t, "config", "show", root, "--json")

	// Then: defaults are reported
	require.NoError(t, err)
	var cfg struct {
		Server struct {
			Port int `json:"port"`
		} `json:"server"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestConfigCmd_ShowUsesProjectFile(t *testing.T) {
	// Given: a project config that changes the port
	root := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".livedoc.yaml"), []byte("server:\n  port: 8123\n"), 0o644))

	// When: showing the config as YAML
	out, _, err := run(t, "config", "show", root)

	// Then: the project value wins
	require.NoError(t, err)
	assert.Contains(t, out, "port: 8123")
}

func TestConfigCmd_UserFlagHonoursConfigDir(t *testing.T) {
	// Given: an explicit config directory
	dir := t.TempDir()

	// When: writing the user config there
	_, _, err := run(t, "--config-dir", dir, "config", "init", "--user")

	// Then: config.yaml is created inside it
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
}

func TestLogsCmd(t *testing.T) {
	// Given: a log file with mixed levels
	path := filepath.Join(t.TempDir(), "livedoc.log")
	lines := []string{
		`{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"scan finished","modules":2}`,
		`{"time":"2026-01-02T10:00:01Z","level":"WARN","msg":"file skipped","path":"broken.py"}`,
		`{"time":"2026-01-02T10:00:02Z","level":"DEBUG","msg":"tick"}`,
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"all lines", nil, []string{"scan finished", "file skipped", "tick"}, nil},
		{"level filter", []string{"--level", "warn"}, []string{"file skipped"}, []string{"scan finished", "tick"}},
		{"pattern filter", []string{"--filter", "scan"}, []string{"scan finished"}, []string{"file skipped"}},
		{"last line only", []string{"-n", "1"}, []string{"tick"}, []string{"scan finished"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When: viewing logs
			args := append([]string{"logs", "--file", path, "--no-color"}, tt.args...)
			out, stderr, err := run(t, args...)

			// Then: only matching entries are printed
			require.NoError(t, err)
			assert.Contains(t, stderr, path)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, out, w)
			}
		})
	}
}

func TestLogsCmd_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := run(t, "logs", "--file", filepath.Join(t.TempDir(), "none.log"))
		require.Error(t, err)
		assert.Equal(t, docerrors.ErrCodeFileNotFound, docerrors.GetCode(err))
	})

	t.Run("invalid pattern", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "livedoc.log")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		_, _, err := run(t, "logs", "--file", path, "--filter", "(")
		require.Error(t, err)
		assert.Equal(t, docerrors.ErrCodeInvalidInput, docerrors.GetCode(err))
	})
}

func TestLookupModule(t *testing.T) {
	root := newProject(t)
	p, err := (&app{}).loadProject([]string{root})
	require.NoError(t, err)
	store, _, err := scanOnce(t.Context(), p, discardLogger())
	require.NoError(t, err)
	docs := store.Snapshot().Documents

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"path", "pkg/util.py", "pkg/util.py", true},
		{"dotted", "pkg.util", "pkg/util.py", true},
		{"top level dotted", "app", "app.py", true},
		{"missing path", "pkg/none.py", "", false},
		{"missing name", "pkg.none", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := lookupModule(docs, tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, d.File)
			}
		})
	}
}

func TestIsDirTarget(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, isDirTarget(dir))
	assert.True(t, isDirTarget("out/"))
	assert.False(t, isDirTarget(filepath.Join(dir, "api.md")))
}
