// Copyright 2024 AI SA Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix is prepended to every automatic environment override
const EnvPrefix = "ARCH_PLANNER"

// ErrInvalidConfigValue wraps every validation failure returned by Load
var ErrInvalidConfigValue = errors.New("invalid configuration value")

// Config is the full service configuration, one section per component
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Feedback FeedbackConfig `mapstructure:"feedback"`
	Diagram  DiagramConfig  `mapstructure:"diagram"`
}

// ServerConfig holds the HTTP listener settings. A zero RequestTimeout
// disables the per-request deadline.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// CatalogConfig selects the service catalog. An empty path uses the catalog
// compiled into the binary.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// EngineConfig bounds the recommendation pipeline
type EngineConfig struct {
	MaxAlternatives      int     `mapstructure:"max_alternatives"`
	MaxUpgrades          int     `mapstructure:"max_upgrades"`
	TightBudgetThreshold float64 `mapstructure:"tight_budget_threshold"`
}

// LoggingConfig selects the zap level, encoder and sink
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// FeedbackConfig picks the feedback backend and its location
type FeedbackConfig struct {
	StorageType string `mapstructure:"storage_type"`
	FilePath    string `mapstructure:"file_path"`
	DBPath      string `mapstructure:"db_path"`
}

// DiagramConfig configures Mermaid rendering
type DiagramConfig struct {
	MermaidInkURL  string `mapstructure:"mermaid_ink_url"`
	MaxDiagramSize int    `mapstructure:"max_diagram_size"`
}

// ValidationError describes one rejected configuration field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// LoadOptions controls a single configuration load
type LoadOptions struct {
	ConfigPath       string
	Environment      string
	ValidateRequired bool
}

// Load reads the configuration for the current environment and validates it.
// Environment variables win over file values, which win over defaults.
func Load(configPath string) (*Config, error) {
	return LoadWithOptions(LoadOptions{
		ConfigPath:       configPath,
		Environment:      getEnvironment(),
		ValidateRequired: true,
	})
}

// LoadWithOptions is Load with explicit control over environment and validation
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v, err := newViper(opts.ConfigPath, opts.Environment)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if !opts.ValidateRequired {
		return &cfg, nil
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func newViper(configPath, environment string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, environment)

	if err := setConfigFile(v, configPath); err != nil {
		return nil, fmt.Errorf("failed to set config file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvAliases(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		// defaults plus environment is a valid setup
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper, environment string) {
	mode := "debug"
	if environment == "production" {
		mode = "release"
	}

	defaults := map[string]interface{}{
		"server.port":                   8080,
		"server.mode":                   mode,
		"server.request_timeout":        10 * time.Second,
		"catalog.path":                  "",
		"engine.max_alternatives":       3,
		"engine.max_upgrades":           3,
		"engine.tight_budget_threshold": 50.0,
		"logging.level":                 "info",
		"logging.format":                "json",
		"logging.output":                "stdout",
		"feedback.storage_type":         "file",
		"feedback.file_path":            "./feedback.log",
		"feedback.db_path":              "./feedback.db",
		"diagram.mermaid_ink_url":       "https://mermaid.ink",
		"diagram.max_diagram_size":      10000,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// setConfigFile picks CONFIG_PATH, then the explicit path, then searches
// ./configs and the working directory for config.yaml.
func setConfigFile(v *viper.Viper, configPath string) error {
	explicit, source := configPath, "config file"
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		explicit, source = env, "config file specified by CONFIG_PATH"
	}

	if explicit == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		return nil
	}

	if _, err := os.Stat(explicit); err != nil {
		return fmt.Errorf("%s does not exist: %s", source, explicit)
	}
	v.SetConfigFile(explicit)
	return nil
}

// envAliases are the short variable names accepted next to the
// ARCH_PLANNER_ prefixed form.
var envAliases = map[string]string{
	"server.port":                   "PORT",
	"server.mode":                   "GIN_MODE",
	"server.request_timeout":        "REQUEST_TIMEOUT",
	"catalog.path":                  "CATALOG_PATH",
	"engine.tight_budget_threshold": "TIGHT_BUDGET_THRESH",
	"logging.level":                 "LOG_LEVEL",
	"logging.format":                "LOG_FORMAT",
	"logging.output":                "LOG_OUTPUT",
	"feedback.storage_type":         "FEEDBACK_STORAGE",
	"feedback.file_path":            "FEEDBACK_FILE_PATH",
	"feedback.db_path":              "FEEDBACK_DB_PATH",
	"diagram.mermaid_ink_url":       "MERMAID_INK_URL",
}

func bindEnvAliases(v *viper.Viper) error {
	for key, alias := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return fmt.Errorf("failed to bind %s: %w", alias, err)
		}
	}
	return nil
}

// problems accumulates validation failures so every bad field is reported
// in one pass.
type problems []ValidationError

func (p *problems) add(field, format string, args ...interface{}) {
	*p = append(*p, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (p *problems) oneOf(field, label, value string, allowed ...string) {
	if !contains(allowed, value) {
		p.add(field, "%s must be one of: %s", label, strings.Join(allowed, ", "))
	}
}

func (p *problems) parentDir(field, label, path string) {
	dir := filepath.Dir(path)
	if err := validateDirectoryExists(dir); err != nil {
		p.add(field, "%s directory does not exist: %s", label, dir)
	}
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	lines := make([]string, len(p))
	for i, v := range p {
		lines[i] = v.Error()
	}
	return fmt.Errorf("%w:\n%s", ErrInvalidConfigValue, strings.Join(lines, "\n"))
}

func validateConfig(cfg *Config) error {
	var p problems

	if port := cfg.Server.Port; port < 1 || port > 65535 {
		p.add("server.port", "port must be between 1 and 65535")
	}
	p.oneOf("server.mode", "mode", cfg.Server.Mode, "debug", "release", "test")
	if cfg.Server.RequestTimeout < 0 {
		p.add("server.request_timeout", "request_timeout must be greater than or equal to 0")
	}

	if path := cfg.Catalog.Path; path != "" {
		if _, err := os.Stat(path); err != nil {
			p.add("catalog.path", "catalog file does not exist: %s", path)
		}
	}

	if n := cfg.Engine.MaxAlternatives; n < 0 || n > 3 {
		p.add("engine.max_alternatives", "max_alternatives must be between 0 and 3")
	}
	if cfg.Engine.MaxUpgrades < 0 {
		p.add("engine.max_upgrades", "max_upgrades must be greater than or equal to 0")
	}
	if cfg.Engine.TightBudgetThreshold <= 0 {
		p.add("engine.tight_budget_threshold", "tight_budget_threshold must be greater than 0")
	}

	p.oneOf("logging.level", "log level", cfg.Logging.Level, "debug", "info", "warn", "error")
	p.oneOf("logging.format", "log format", cfg.Logging.Format, "json", "text")

	fb := cfg.Feedback
	p.oneOf("feedback.storage_type", "storage type", fb.StorageType, "file", "sqlite")
	switch {
	case fb.StorageType == "file" && fb.FilePath == "":
		p.add("feedback.file_path", "feedback file path is required for file storage")
	case fb.StorageType == "file":
		p.parentDir("feedback.file_path", "feedback", fb.FilePath)
	case fb.StorageType == "sqlite" && fb.DBPath == "":
		p.add("feedback.db_path", "feedback database path is required for sqlite storage")
	case fb.StorageType == "sqlite":
		p.parentDir("feedback.db_path", "feedback database", fb.DBPath)
	}

	if u := cfg.Diagram.MermaidInkURL; !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		p.add("diagram.mermaid_ink_url", "mermaid_ink_url must be an http or https URL")
	}
	if cfg.Diagram.MaxDiagramSize <= 0 {
		p.add("diagram.max_diagram_size", "max_diagram_size must be greater than 0")
	}

	return p.err()
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// validateDirectoryExists accepts the current directory as always present
func validateDirectoryExists(path string) error {
	if path == "" || path == "." {
		return nil
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

// getEnvironment reads ENVIRONMENT, then ENV, defaulting to development
func getEnvironment() string {
	for _, name := range []string{"ENVIRONMENT", "ENV"} {
		if env := os.Getenv(name); env != "" {
			return env
		}
	}
	return "development"
}

// WatchConfig reloads the configuration whenever the file changes and hands
// the validated result to callback. Invalid edits are logged and ignored.
func WatchConfig(configPath string, logger *zap.Logger, callback func(*Config)) error {
	v := viper.New()
	if err := setConfigFile(v, configPath); err != nil {
		return err
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file for watching: %w", err)
	}

	file := v.ConfigFileUsed()
	v.OnConfigChange(func(e fsnotify.Event) {
		log := logger.With(zap.String("file", e.Name), zap.Stringer("op", e.Op))

		cfg, err := LoadWithOptions(LoadOptions{
			ConfigPath:       file,
			Environment:      getEnvironment(),
			ValidateRequired: true,
		})
		if err != nil {
			log.Warn("Ignoring invalid config change", zap.Error(err))
			return
		}

		log.Info("Config reloaded")
		callback(cfg)
	})
	v.WatchConfig()
	return nil
}
