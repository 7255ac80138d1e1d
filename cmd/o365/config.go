package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"o365cli/internal/common/output"
	"o365cli/internal/common/validation"
)

// envPrefix is the prefix of environment variables read into Config.
const envPrefix = "O365_"

// Config holds the settings shared by every command.
// Loading order (later overrides earlier): defaults, YAML file, environment, flags.
type Config struct {
	Output              string  `koanf:"output"`
	LogLevel            string  `koanf:"loglevel"`
	AppID               string  `koanf:"appid"`
	Tenant              string  `koanf:"tenant"`
	RateLimit           float64 `koanf:"ratelimit"`
	MaxRetries          int     `koanf:"maxretries"`
	ConnectionFile      string  `koanf:"connectionfile"`
	Audit               bool    `koanf:"audit"`
	AuditDir            string  `koanf:"auditdir"`
	Secret              string  `koanf:"secret"`
	CertificatePassword string  `koanf:"certificatepassword"`
	Proxy               string  `koanf:"proxy"`
}

// NewConfig returns a Config populated with default values.
func NewConfig() *Config {
	return &Config{
		Output:     string(output.FormatText),
		LogLevel:   "WARN",
		MaxRetries: 3,
	}
}

// defaults returns the defaults as a koanf map.
func (c *Config) defaults() map[string]any {
	return map[string]any{
		"output":     c.Output,
		"loglevel":   c.LogLevel,
		"maxretries": c.MaxRetries,
	}
}

// defaultConfigFile returns <user config dir>/o365cli/config.yaml.
func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "o365cli", "config.yaml")
}

// loadConfig reads defaults, the YAML file at path and O365_* environment
// variables. A missing file is only an error when explicit is set.
func loadConfig(path string, explicit bool) (*Config, error) {
	config := NewConfig()
	k := koanf.New(".")

	if err := k.Load(mapProvider(config.defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	// O365_CONNECTION_FILE -> connectionfile
	envTransformer := func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "_", "")
	}
	if err := k.Load(env.Provider(envPrefix, ".", envTransformer), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if err := k.Unmarshal("", config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return config, nil
}

// validateConfiguration checks values that do not depend on the command.
func validateConfiguration(config *Config) error {
	if _, err := output.ParseFormat(config.Output); err != nil {
		return err
	}
	if err := validation.ValidateOneOf(config.LogLevel, []string{"DEBUG", "INFO", "WARN", "ERROR"}, false, "log level"); err != nil {
		return err
	}
	if config.AppID != "" {
		if err := validation.ValidateGUID(config.AppID, "appId"); err != nil {
			return err
		}
	}
	if config.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	if config.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if config.Proxy != "" {
		if err := validation.ValidateProxyURL(config.Proxy); err != nil {
			return fmt.Errorf("invalid proxy: %w", err)
		}
	}
	return nil
}

// mapProvider is a koanf provider backed by a map.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("mapProvider does not support ReadBytes")
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
