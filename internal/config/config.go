package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigDir is the per-repository directory holding mdiff state
	ConfigDir = ".mdiff"

	// EnvUsername and EnvPassword carry the remote credential
	EnvUsername = "MDIFF_GIT_USERNAME"
	EnvPassword = "MDIFF_GIT_PASSWORD"
)

// Config represents the complete mdiff configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Git     GitConfig     `json:"git" mapstructure:"git"`
	Diff    DiffConfig    `json:"diff" mapstructure:"diff"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// GitConfig contains git store configuration
type GitConfig struct {
	Remote string `json:"remote" mapstructure:"remote"`
	// Sync brings local branches up to date with the remote before diffing
	Sync bool `json:"sync" mapstructure:"sync"`
	// TimeoutMs bounds local git commands; 0 disables the bound
	TimeoutMs int `json:"timeoutMs" mapstructure:"timeoutMs"`
	// RemoteTimeoutMs bounds ls-remote/pull; 0 disables the bound
	RemoteTimeoutMs int `json:"remoteTimeoutMs" mapstructure:"remoteTimeoutMs"`
	// Username is normally supplied through the environment
	Username string `json:"username,omitempty" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`
}

// DiffConfig contains the batch comparison settings
type DiffConfig struct {
	ChunkSize        int      `json:"chunkSize" mapstructure:"chunkSize"`
	Workers          int      `json:"workers" mapstructure:"workers"`
	QueueSize        int      `json:"queueSize" mapstructure:"queueSize"`
	SourceExtension  string   `json:"sourceExtension" mapstructure:"sourceExtension"`
	TestDirs         []string `json:"testDirs" mapstructure:"testDirs"`
	IgnoreWhitespace bool     `json:"ignoreWhitespace" mapstructure:"ignoreWhitespace"`
	DetectRenames    bool     `json:"detectRenames" mapstructure:"detectRenames"`
}

// CacheConfig contains parse cache configuration
type CacheConfig struct {
	ParsedUnits int `json:"parsedUnits" mapstructure:"parsedUnits"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file,omitempty" mapstructure:"file"`
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups,omitempty" mapstructure:"maxBackups"`
}

// Credentials is the username/password pair used for remote operations.
// It is handed to the git store at construction and never stored globally.
type Credentials struct {
	Username string
	Password string
}

// IsZero reports whether no credential was configured
func (c Credentials) IsZero() bool {
	return c.Username == "" && c.Password == ""
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Git: GitConfig{
			Remote:          "origin",
			Sync:            true,
			TimeoutMs:       30000,
			RemoteTimeoutMs: 0,
		},
		Diff: DiffConfig{
			ChunkSize:        100,
			Workers:          0,
			QueueSize:        64,
			SourceExtension:  ".java",
			TestDirs:         []string{"src/test/java"},
			IgnoreWhitespace: true,
			DetectRenames:    true,
		},
		Cache: CacheConfig{
			ParsedUnits: 2048,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from <repoRoot>/.mdiff/config.json.
// Keys absent from the file keep their defaults.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ConfigDir))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.RepoRoot == "" || cfg.RepoRoot == "." {
		cfg.RepoRoot = repoRoot
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("repoRoot", d.RepoRoot)
	v.SetDefault("git.remote", d.Git.Remote)
	v.SetDefault("git.sync", d.Git.Sync)
	v.SetDefault("git.timeoutMs", d.Git.TimeoutMs)
	v.SetDefault("git.remoteTimeoutMs", d.Git.RemoteTimeoutMs)
	v.SetDefault("diff.chunkSize", d.Diff.ChunkSize)
	v.SetDefault("diff.workers", d.Diff.Workers)
	v.SetDefault("diff.queueSize", d.Diff.QueueSize)
	v.SetDefault("diff.sourceExtension", d.Diff.SourceExtension)
	v.SetDefault("diff.testDirs", d.Diff.TestDirs)
	v.SetDefault("diff.ignoreWhitespace", d.Diff.IgnoreWhitespace)
	v.SetDefault("diff.detectRenames", d.Diff.DetectRenames)
	v.SetDefault("cache.parsedUnits", d.Cache.ParsedUnits)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

// LoadCredentials resolves the remote credential. A .env file in repoRoot is
// loaded first (existing environment wins), then MDIFF_GIT_USERNAME and
// MDIFF_GIT_PASSWORD override whatever the config file carried.
func (c *Config) LoadCredentials(repoRoot string) Credentials {
	_ = godotenv.Load(filepath.Join(repoRoot, ".env"))

	creds := Credentials{
		Username: c.Git.Username,
		Password: c.Git.Password,
	}
	if u := strings.TrimSpace(os.Getenv(EnvUsername)); u != "" {
		creds.Username = u
	}
	if p := os.Getenv(EnvPassword); p != "" {
		creds.Password = p
	}
	return creds
}

// Save writes the configuration to .mdiff/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Diff.ChunkSize < 1 {
		return &ConfigError{Field: "diff.chunkSize", Message: "must be at least 1"}
	}
	if c.Diff.Workers < 0 {
		return &ConfigError{Field: "diff.workers", Message: "must not be negative"}
	}
	if c.Diff.QueueSize < 0 {
		return &ConfigError{Field: "diff.queueSize", Message: "must not be negative"}
	}
	if !strings.HasPrefix(c.Diff.SourceExtension, ".") {
		return &ConfigError{Field: "diff.sourceExtension", Message: "must start with '.'"}
	}
	if c.Git.TimeoutMs < 0 || c.Git.RemoteTimeoutMs < 0 {
		return &ConfigError{Field: "git.timeoutMs", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
