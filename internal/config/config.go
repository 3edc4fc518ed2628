package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Content Content `yaml:"content"`
	Site    Site    `yaml:"site"`
	Server  Server  `yaml:"server"`
	Output  Output  `yaml:"output"`
	Logging Logging `yaml:"logging"`
}

type Content struct {
	Dir      string   `yaml:"dir"`
	Patterns []string `yaml:"patterns"`
}

type Site struct {
	Title            string `yaml:"title"`
	Description      string `yaml:"description"`
	BaseURL          string `yaml:"base_url"`
	RoutePrefix      string `yaml:"route_prefix"`
	PlaceholderImage string `yaml:"placeholder_image"`
	RelatedLimit     int    `yaml:"related_limit"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Output struct {
	DataDir   string `yaml:"data_dir"`
	IndexFile string `yaml:"index_file"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Environment variables that override file values.
const (
	EnvContentDir = "BLOGPIPE_CONTENT_DIR"
	EnvPort       = "BLOGPIPE_PORT"
	EnvDataDir    = "BLOGPIPE_DATA_DIR"
	EnvLogLevel   = "BLOGPIPE_LOG_LEVEL"
)

// ConfigDir returns the XDG config directory for blogpipe.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "blogpipe")
}

// DataDir returns the XDG data directory for blogpipe.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "blogpipe")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/blogpipe/config.yaml > ./blogpipe.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "blogpipe.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./blogpipe.yaml\n\nRun 'blogpipe init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file, then applies .env and
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Content: Content{
			Dir:      "content/blog",
			Patterns: []string{"*.md", "*.mdx"},
		},
		Site: Site{
			Title:            "Blog",
			RoutePrefix:      "/blog/",
			PlaceholderImage: "/static/placeholder.svg",
			RelatedLimit:     3,
		},
		Server:  Server{Port: 8000},
		Output:  Output{IndexFile: "blogpipe.db"},
		Logging: Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvContentDir); ok && v != "" {
		c.Content.Dir = v
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		c.Output.DataDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	return c.Validate()
}

// Validate checks values that would otherwise fail far from the config file.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Content.Dir) == "" {
		return fmt.Errorf("content.dir must not be empty")
	}
	if len(c.Content.Patterns) == 0 {
		return fmt.Errorf("content.patterns must list at least one pattern")
	}
	for _, p := range c.Content.Patterns {
		if _, err := filepath.Match(p, "probe"); err != nil {
			return fmt.Errorf("content.patterns: invalid pattern %q: %w", p, err)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Output.IndexFile) == "" {
		return fmt.Errorf("output.index_file must not be empty")
	}
	if c.Site.RelatedLimit < 0 {
		return fmt.Errorf("site.related_limit must not be negative")
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// IndexPath returns the SQLite index location. An absolute index_file is
// used as is; otherwise it lives in the data directory.
func (c *Config) IndexPath() string {
	if filepath.IsAbs(c.Output.IndexFile) {
		return c.Output.IndexFile
	}
	return filepath.Join(c.GetDataDir(), c.Output.IndexFile)
}

// ContentDir resolves the content root relative to baseDir when it is not absolute.
func (c *Config) ContentDir(baseDir string) string {
	if filepath.IsAbs(c.Content.Dir) || baseDir == "" {
		return c.Content.Dir
	}
	return filepath.Join(baseDir, c.Content.Dir)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
