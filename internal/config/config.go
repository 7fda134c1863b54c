// Package config loads pdfhelper settings from a YAML file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/chrisboulton/pdfhelper-go"
)

// Config holds every setting the CLI and TUI use.
type Config struct {
	APIURL             string        `yaml:"api_url"`
	ResponseTimeout    time.Duration `yaml:"response_timeout"`
	UploadSuccessDelay time.Duration `yaml:"upload_success_delay"`
	CompletionMarker   string        `yaml:"completion_marker"`
	HTTPTimeout        time.Duration `yaml:"http_timeout"`
	LogLevel           string        `yaml:"log_level"`
	LogFile            string        `yaml:"log_file"`
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		APIURL:             pdfhelper.DefaultBaseURL,
		ResponseTimeout:    pdfhelper.DefaultResponseTimeout,
		UploadSuccessDelay: pdfhelper.DefaultUploadSuccessReset,
		CompletionMarker:   pdfhelper.DefaultCompletionMarker,
		LogLevel:           "info",
	}
}

// DefaultConfigDir returns ~/.config/pdfhelper.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pdfhelper"
	}
	return filepath.Join(home, ".config", "pdfhelper")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Load reads the YAML file at path on top of Defaults and applies the
// environment. An empty path means DefaultConfigPath, which may be absent;
// an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	path = ExpandPath(path)

	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "cannot parse config file %s", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrapf(err, "cannot read config file %s", path)
	}

	ApplyEnv(cfg)
	cfg.LogFile = ExpandPath(cfg.LogFile)

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "config validation")
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(pdfhelper.EnvBaseURL)); v != "" {
		cfg.APIURL = v
	}
}

// Validate checks that the config has usable values.
func Validate(cfg *Config) error {
	var errs []string

	if _, err := pdfhelper.ChatURL(cfg.APIURL); err != nil {
		errs = append(errs, "api_url: "+err.Error())
	}
	if cfg.ResponseTimeout <= 0 {
		errs = append(errs, "response_timeout must be positive")
	}
	if cfg.UploadSuccessDelay <= 0 {
		errs = append(errs, "upload_success_delay must be positive")
	}
	if cfg.HTTPTimeout < 0 {
		errs = append(errs, "http_timeout must not be negative")
	}
	if strings.TrimSpace(cfg.CompletionMarker) == "" {
		errs = append(errs, "completion_marker must not be empty")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, "log_level: "+err.Error())
	}

	if len(errs) > 0 {
		return errors.Errorf("invalid settings:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Save writes cfg as YAML, creating the directory if needed.
func Save(path string, cfg *Config) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "cannot create config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "cannot marshal config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "cannot write config file %s", path)
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// SessionOptions converts the settings into chat session options.
func (c *Config) SessionOptions() []pdfhelper.SessionOption {
	return []pdfhelper.SessionOption{
		pdfhelper.WithResponseTimeout(c.ResponseTimeout),
		pdfhelper.WithCompletionMarker(c.CompletionMarker),
	}
}
