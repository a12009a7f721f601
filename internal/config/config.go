// Package config loads the agni console configuration.
// Sources are layered: built-in defaults, the YAML config file, a .env file,
// then AGNI_* environment variables. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the config reads.
const EnvPrefix = "AGNI_"

// Config holds all agni configuration.
type Config struct {
	// Backend is the external RAG service the console talks to.
	Backend BackendConfig `yaml:"backend" envPrefix:"BACKEND_"`

	// Upload controls the document panel.
	Upload UploadConfig `yaml:"upload" envPrefix:"UPLOAD_"`

	// UI controls presentation only.
	UI UIConfig `yaml:"ui" envPrefix:"UI_"`

	// Logging
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
}

// BackendConfig configures the HTTP contract with the RAG backend.
type BackendConfig struct {
	BaseURL     string `yaml:"base_url" env:"BASE_URL" validate:"required,url"`
	ChatPath    string `yaml:"chat_path" env:"CHAT_PATH" validate:"required,startswith=/"`
	IngestPath  string `yaml:"ingest_path" env:"INGEST_PATH" validate:"required,startswith=/"`
	HealthPath  string `yaml:"health_path" env:"HEALTH_PATH" validate:"required,startswith=/"`
	UploadField string `yaml:"upload_field" env:"UPLOAD_FIELD" validate:"required"`

	// Token is sent as a bearer token when set.
	Token string `yaml:"token,omitempty" env:"TOKEN"`

	// Timeout bounds a single request. Zero means no client-side timeout.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT" validate:"gte=0s"`

	// ProbeOnStart runs one health check when the console opens.
	ProbeOnStart bool `yaml:"probe_on_start" env:"PROBE_ON_START"`

	HealthRetry RetryConfig `yaml:"health_retry" envPrefix:"HEALTH_RETRY_"`
}

// RetryConfig configures retries. Only the health probe is retried.
type RetryConfig struct {
	Attempts uint          `yaml:"attempts" env:"ATTEMPTS" validate:"gte=1,lte=10"`
	Delay    time.Duration `yaml:"delay" env:"DELAY" validate:"gte=0s"`
	MaxDelay time.Duration `yaml:"max_delay" env:"MAX_DELAY" validate:"gte=0s"`
}

// UploadConfig configures document selection and upload notices.
type UploadConfig struct {
	AllowedExtensions []string      `yaml:"allowed_extensions" env:"ALLOWED_EXTENSIONS" envSeparator:"," validate:"min=1,dive,startswith=."`
	NoticeTTL         time.Duration `yaml:"notice_ttl" env:"NOTICE_TTL" validate:"gt=0s"`

	// MaxFileSize is the per-file byte limit. Zero disables the check.
	MaxFileSize int64 `yaml:"max_file_size" env:"MAX_FILE_SIZE" validate:"gte=0"`

	// StartDir is where the file picker opens. Empty means the working directory.
	StartDir string `yaml:"start_dir,omitempty" env:"START_DIR"`
}

// UIConfig configures the console look.
type UIConfig struct {
	Theme    string `yaml:"theme" env:"THEME" validate:"oneof=auto light dark"`
	Title    string `yaml:"title" env:"TITLE" validate:"required"`
	Subtitle string `yaml:"subtitle" env:"SUBTITLE"`
}

// LoggingConfig configures file logging.
type LoggingConfig struct {
	// DebugMode turns file logging on. When false nothing is written.
	DebugMode  bool   `yaml:"debug_mode" env:"DEBUG_MODE"`
	Level      string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	File       string `yaml:"file" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB" validate:"gte=1"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS" validate:"gte=0"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:     "http://localhost:8000",
			ChatPath:    "/chat",
			IngestPath:  "/api/documents/ingest",
			HealthPath:  "/",
			UploadField: "files",
			HealthRetry: RetryConfig{
				Attempts: 3,
				Delay:    200 * time.Millisecond,
				MaxDelay: 2 * time.Second,
			},
		},
		Upload: UploadConfig{
			AllowedExtensions: []string{".pdf", ".txt", ".doc", ".docx"},
			NoticeTTL:         5 * time.Second,
		},
		UI: UIConfig{
			Theme:    "auto",
			Title:    "Agni RAG Assistant",
			Subtitle: "Ask questions about your documents",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       filepath.Join(os.TempDir(), "agni", "agni.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// DefaultPath returns the config file location.
// A project-local .agni/config.yaml wins over the per-user file.
func DefaultPath() string {
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ".agni", "config.yaml")
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return filepath.Join(".agni", "config.yaml")
		}
		return filepath.Join(home, ".agni", "config.yaml")
	}
	return filepath.Join(dir, "agni", "config.yaml")
}

// Load builds the effective configuration. An empty path means DefaultPath.
// A missing config file or .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides overlays AGNI_* variables. Unset variables keep the current value.
func (c *Config) applyEnvOverrides() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")

	exts := make([]string, 0, len(c.Upload.AllowedExtensions))
	for _, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Upload.AllowedExtensions = exts
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(msgs, "\n  - "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// URL joins the backend base URL with a path.
func (b BackendConfig) URL(path string) string {
	return b.BaseURL + path
}
