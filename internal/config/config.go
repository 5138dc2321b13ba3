// Package config loads livedoc configuration.
//
// Values are applied in order of increasing precedence:
//  1. Hardcoded defaults (NewConfig)
//  2. User config ($XDG_CONFIG_HOME/livedoc/config.yaml)
//  3. Project config (.livedoc.yaml or .livedoc.yml in the project root)
//  4. A .env file in the project root
//  5. LIVEDOC_* environment variables
//
// The result is validated before it is returned.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
)

// ProjectConfigNames are the project config file names, in lookup order.
var ProjectConfigNames = []string{".livedoc.yaml", ".livedoc.yml"}

// Config is the complete livedoc configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Paths   PathsConfig   `yaml:"paths" json:"paths"`
	Extract ExtractConfig `yaml:"extract" json:"extract"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Server  ServerConfig  `yaml:"server" json:"server"`
}

// PathsConfig selects the files that are documented.
type PathsConfig struct {
	// ExcludeDirs are directory base names never descended into.
	ExcludeDirs []string `yaml:"exclude_dirs" json:"exclude_dirs"`

	// Exclude holds doublestar globs matched against relative paths.
	Exclude []string `yaml:"exclude" json:"exclude"`

	Extensions       []string `yaml:"extensions" json:"extensions"`
	RespectGitignore bool     `yaml:"respect_gitignore" json:"respect_gitignore"`
}

// ExtractConfig controls what the extractor keeps.
type ExtractConfig struct {
	IncludePrivate bool `yaml:"include_private" json:"include_private"`

	// DocstringStyle is auto, numpy, google, rest or plain.
	DocstringStyle string `yaml:"docstring_style" json:"docstring_style"`
}

// CacheConfig tunes the documentation cache.
type CacheConfig struct {
	RescanInterval time.Duration `yaml:"rescan_interval" json:"rescan_interval"`

	// Workers bounds parallel extraction (0 = NumCPU).
	Workers int `yaml:"workers" json:"workers"`

	QueryCacheSize int `yaml:"query_cache_size" json:"query_cache_size"`
	SearchLimit    int `yaml:"search_limit" json:"search_limit"`
}

// WatchConfig controls the file watcher that wakes the refresher early.
type WatchConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	Debounce     time.Duration `yaml:"debounce" json:"debounce"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// ServerConfig configures the HTTP live view and logging.
type ServerConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			ExcludeDirs: []string{
				".git",
				"__pycache__",
				".venv",
				"venv",
				"node_modules",
				".mypy_cache",
				".pytest_cache",
				".tox",
			},
			Exclude:          []string{},
			Extensions:       []string{".py"},
			RespectGitignore: true,
		},
		Extract: ExtractConfig{
			IncludePrivate: false,
			DocstringStyle: "auto",
		},
		Cache: CacheConfig{
			RescanInterval: 2 * time.Second,
			Workers:        0,
			QueryCacheSize: 256,
			SearchLimit:    200,
		},
		Watch: WatchConfig{
			Enabled:      true,
			Debounce:     200 * time.Millisecond,
			PollInterval: 5 * time.Second,
		},
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     5000,
			LogLevel: "info",
		},
	}
}

// Address returns host:port for the HTTP server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// GetUserConfigPath returns the user configuration file path:
//   - $XDG_CONFIG_HOME/livedoc/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/livedoc/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "livedoc", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "livedoc", "config.yaml")
	}
	return filepath.Join(home, ".config", "livedoc", "config.yaml")
}

// Load loads configuration for the project in dir using the default user
// config location.
func Load(dir string) (*Config, error) {
	return LoadWithUserConfig(dir, GetUserConfigPath())
}

// LoadWithUserConfig is Load with an explicit user config file. An empty
// userConfig skips the user layer.
func LoadWithUserConfig(dir, userConfig string) (*Config, error) {
	cfg := NewConfig()

	if userConfig != "" {
		if err := cfg.loadYAML(userConfig, true); err != nil {
			return nil, err
		}
	}

	if path := ProjectConfigPath(dir); path != "" {
		if err := cfg.loadYAML(path, false); err != nil {
			return nil, err
		}
	}

	dotenv, err := readDotEnv(dir)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides(func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "".
func ProjectConfigPath(dir string) string {
	for _, name := range ProjectConfigNames {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// loadYAML decodes path on top of c. Keys absent from the file keep their
// current values. Unknown keys are rejected.
func (c *Config) loadYAML(path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return docerrors.New(docerrors.ErrCodeConfigNotFound,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return docerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}
	return nil
}

func readDotEnv(dir string) (map[string]string, error) {
	path := filepath.Join(dir, ".env")
	if !fileExists(path) {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, docerrors.ConfigError(fmt.Sprintf("failed to parse %s", path), err)
	}
	return env, nil
}

// applyEnvOverrides applies LIVEDOC_* variables. Unparseable values are
// ignored and the previous value is kept.
func (c *Config) applyEnvOverrides(getenv func(string) string) {
	if v := getenv("LIVEDOC_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := getenv("LIVEDOC_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := getenv("LIVEDOC_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := getenv("LIVEDOC_RESCAN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.RescanInterval = d
		}
	}
	if v := getenv("LIVEDOC_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.Workers = n
		}
	}
	if v := getenv("LIVEDOC_SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.SearchLimit = n
		}
	}
	if v := getenv("LIVEDOC_INCLUDE_PRIVATE"); v != "" {
		c.Extract.IncludePrivate = parseBool(v)
	}
	if v := getenv("LIVEDOC_DOCSTRING_STYLE"); v != "" {
		c.Extract.DocstringStyle = v
	}
	if v := getenv("LIVEDOC_WATCH"); v != "" {
		c.Watch.Enabled = parseBool(v)
	}
	if v := getenv("LIVEDOC_RESPECT_GITIGNORE"); v != "" {
		c.Paths.RespectGitignore = parseBool(v)
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Validate checks the configuration and returns an ERR_102 error on the
// first problem found.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return docerrors.ConfigError(fmt.Sprintf(format, args...), nil)
	}

	if len(c.Paths.Extensions) == 0 {
		return invalid("paths.extensions must not be empty")
	}
	for _, ext := range c.Paths.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return invalid("paths.extensions entries must start with '.', got %q", ext)
		}
	}

	switch strings.ToLower(c.Extract.DocstringStyle) {
	case "", "auto", "numpy", "google", "rest", "plain":
	default:
		return invalid("extract.docstring_style must be auto, numpy, google, rest or plain, got %s", c.Extract.DocstringStyle)
	}

	if c.Cache.RescanInterval <= 0 {
		return invalid("cache.rescan_interval must be positive, got %s", c.Cache.RescanInterval)
	}
	if c.Cache.Workers < 0 {
		return invalid("cache.workers must be non-negative, got %d", c.Cache.Workers)
	}
	if c.Cache.QueryCacheSize < 0 {
		return invalid("cache.query_cache_size must be non-negative, got %d", c.Cache.QueryCacheSize)
	}
	if c.Cache.SearchLimit <= 0 {
		return invalid("cache.search_limit must be positive, got %d", c.Cache.SearchLimit)
	}
	if c.Watch.Debounce < 0 || c.Watch.PollInterval < 0 {
		return invalid("watch durations must be non-negative")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}
	return nil
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return docerrors.New(docerrors.ErrCodeWriteFailed, fmt.Sprintf("failed to write config file %s", path), err)
	}
	return nil
}

// FindProjectRoot walks up from startDir looking for a .git directory, a
// livedoc config file or pyproject.toml. It returns the absolute startDir
// when none is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	if _, err := os.Stat(absDir); err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", absDir, err)
	}

	dir := absDir
	for {
		if dirExists(filepath.Join(dir, ".git")) ||
			ProjectConfigPath(dir) != "" ||
			fileExists(filepath.Join(dir, "pyproject.toml")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir, nil
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
