// Package config loads layered configuration: defaults, then the user
// config file, then the project config file, then environment variables,
// then explicit flag overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/lighthouse-ai/lighthouse/internal/safety"
)

// Config is the full runtime configuration.
type Config struct {
	NLU     NLUConfig     `mapstructure:"nlu" toml:"nlu"`
	Safety  SafetyConfig  `mapstructure:"safety" toml:"safety"`
	History HistoryConfig `mapstructure:"history" toml:"history"`
	Logging LoggingConfig `mapstructure:"logging" toml:"logging"`
}

// NLUConfig tunes command interpretation.
type NLUConfig struct {
	// ConfidenceThreshold is the minimum intent score; below it the
	// command is classified unknown.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" toml:"confidence_threshold"`
	// MaxCommandLength caps accepted command text, in runes.
	MaxCommandLength int `mapstructure:"max_command_length" toml:"max_command_length"`
}

// SafetyConfig seeds the policy engine.
type SafetyConfig struct {
	AllowedDomains    []string `mapstructure:"allowed_domains" toml:"allowed_domains"`
	RestrictedActions []string `mapstructure:"restricted_actions" toml:"restricted_actions"`
	// DomainRulesPath points at the per-domain rules document. Empty
	// disables domain overrides.
	DomainRulesPath string `mapstructure:"domain_rules_path" toml:"domain_rules_path"`
	// WatchDomainRules reloads the rules document on change.
	WatchDomainRules bool `mapstructure:"watch_domain_rules" toml:"watch_domain_rules"`
	ConfirmDangerous bool `mapstructure:"confirm_dangerous" toml:"confirm_dangerous"`
}

// HistoryConfig controls the session and action ledger.
type HistoryConfig struct {
	DatabasePath  string `mapstructure:"database_path" toml:"database_path"`
	RetentionDays int    `mapstructure:"retention_days" toml:"retention_days"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" toml:"level"`
	File  string `mapstructure:"file" toml:"file"`
}

// DefaultConfig returns the builtin defaults.
func DefaultConfig() *Config {
	return &Config{
		NLU: NLUConfig{
			ConfidenceThreshold: 0.7,
			MaxCommandLength:    1000,
		},
		Safety: SafetyConfig{
			AllowedDomains: []string{
				"google.com",
				"amazon.com",
				"github.com",
				"wikipedia.org",
				"example.com",
			},
			RestrictedActions: []string{
				"delete",
				"purchase",
				"payment",
				"account_change",
			},
			DomainRulesPath:  "",
			WatchDomainRules: false,
			ConfirmDangerous: true,
		},
		History: HistoryConfig{
			DatabasePath:  defaultDatabasePath(),
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".lighthouse", "history.db")
	}
	return filepath.Join(home, ".lighthouse", "history.db")
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// ProjectDir is the project root; empty means the current directory.
	ProjectDir string
	// UserConfigPath overrides the user config file location.
	UserConfigPath string
	// ProjectConfigPath overrides the project config file location.
	ProjectConfigPath string
	// FlagOverrides are dotted-key values from command-line flags. They
	// take precedence over every other layer.
	FlagOverrides map[string]any
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"nlu.confidence_threshold":  "LIGHTHOUSE_CONFIDENCE_THRESHOLD",
	"nlu.max_command_length":    "LIGHTHOUSE_MAX_COMMAND_LENGTH",
	"safety.allowed_domains":    "LIGHTHOUSE_ALLOWED_DOMAINS",
	"safety.restricted_actions": "LIGHTHOUSE_RESTRICTED_ACTIONS",
	"safety.domain_rules_path":  "LIGHTHOUSE_DOMAIN_RULES_PATH",
	"safety.watch_domain_rules": "LIGHTHOUSE_WATCH_DOMAIN_RULES",
	"safety.confirm_dangerous":  "LIGHTHOUSE_CONFIRM_DANGEROUS",
	"history.database_path":     "LIGHTHOUSE_DATABASE_PATH",
	"history.retention_days":    "LIGHTHOUSE_RETENTION_DAYS",
	"logging.level":             "LIGHTHOUSE_LOG_LEVEL",
	"logging.file":              "LIGHTHOUSE_LOG_FILE",
}

// Load builds the effective configuration from all layers and validates
// the result.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	userPath, projectPath := ConfigPaths(opts.ProjectDir, opts.ProjectConfigPath)
	if opts.UserConfigPath != "" {
		userPath = opts.UserConfigPath
	}
	if err := mergeConfigFile(v, userPath); err != nil {
		return nil, err
	}
	if err := mergeConfigFile(v, projectPath); err != nil {
		return nil, err
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	for key, value := range opts.FlagOverrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigPaths returns the user and project config file paths.
func ConfigPaths(projectDir, projectOverride string) (string, string) {
	user := ""
	if home, err := os.UserHomeDir(); err == nil {
		user = filepath.Join(home, ".lighthouse", "config.toml")
	}
	return user, projectConfigPath(projectDir, projectOverride)
}

func projectConfigPath(projectDir, override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(projectDir, ".lighthouse", "config.toml")
}

// mergeConfigFile merges a TOML file into v. Empty paths and missing
// files are no-ops; unreadable or malformed files are errors.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.MergeConfig(strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	cfg := DefaultConfig()
	v.SetDefault("nlu.confidence_threshold", cfg.NLU.ConfidenceThreshold)
	v.SetDefault("nlu.max_command_length", cfg.NLU.MaxCommandLength)
	v.SetDefault("safety.allowed_domains", cfg.Safety.AllowedDomains)
	v.SetDefault("safety.restricted_actions", cfg.Safety.RestrictedActions)
	v.SetDefault("safety.domain_rules_path", cfg.Safety.DomainRulesPath)
	v.SetDefault("safety.watch_domain_rules", cfg.Safety.WatchDomainRules)
	v.SetDefault("safety.confirm_dangerous", cfg.Safety.ConfirmDangerous)
	v.SetDefault("history.database_path", cfg.History.DatabasePath)
	v.SetDefault("history.retention_days", cfg.History.RetentionDays)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
}

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration and reports every problem at once.
func Validate(cfg *Config) error {
	var problems []string

	if cfg.NLU.ConfidenceThreshold < 0 || cfg.NLU.ConfidenceThreshold > 1 {
		problems = append(problems, fmt.Sprintf("nlu.confidence_threshold must be in [0,1], got %v", cfg.NLU.ConfidenceThreshold))
	}
	if cfg.NLU.MaxCommandLength <= 0 {
		problems = append(problems, fmt.Sprintf("nlu.max_command_length must be positive, got %d", cfg.NLU.MaxCommandLength))
	}
	for _, action := range cfg.Safety.RestrictedActions {
		if _, err := safety.ParseActionType(action); err != nil {
			problems = append(problems, fmt.Sprintf("safety.restricted_actions: %v", err))
		}
	}
	if cfg.History.RetentionDays < 0 {
		problems = append(problems, fmt.Sprintf("history.retention_days must not be negative, got %d", cfg.History.RetentionDays))
	}
	if cfg.History.DatabasePath == "" {
		problems = append(problems, "history.database_path must not be empty")
	}
	if !logLevels[cfg.Logging.Level] {
		problems = append(problems, fmt.Sprintf("logging.level must be one of debug/info/warn/error, got %q", cfg.Logging.Level))
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// RestrictedActionTypes converts the configured action names. Validation
// has already rejected unknown names; leftovers are skipped.
func (c *SafetyConfig) RestrictedActionTypes() []safety.ActionType {
	actions := make([]safety.ActionType, 0, len(c.RestrictedActions))
	for _, name := range c.RestrictedActions {
		if parsed, err := safety.ParseActionType(name); err == nil {
			actions = append(actions, parsed)
		}
	}
	return actions
}
