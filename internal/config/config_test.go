package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(DefaultConfig) unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NLU.ConfidenceThreshold = 1.5
	cfg.NLU.MaxCommandLength = 0
	cfg.Safety.RestrictedActions = []string{"explode"}
	cfg.History.RetentionDays = -1
	cfg.History.DatabasePath = ""
	cfg.Logging.Level = "loud"

	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "config validation failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"confidence_threshold",
		"max_command_length",
		"explode",
		"retention_days",
		"database_path",
		"logging.level",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %v missing %q", err, want)
		}
	}
}

func TestLoad_Precedence_DefaultsUserProjectEnvFlags(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	project := t.TempDir()

	// User config: 20
	userPath := filepath.Join(home, ".lighthouse", "config.toml")
	if err := WriteValue(userPath, "history.retention_days", 20); err != nil {
		t.Fatalf("WriteValue user: %v", err)
	}

	// Project config: 40
	projectPath := filepath.Join(project, ".lighthouse", "config.toml")
	if err := WriteValue(projectPath, "history.retention_days", 40); err != nil {
		t.Fatalf("WriteValue project: %v", err)
	}

	// Env: 60
	t.Setenv("LIGHTHOUSE_RETENTION_DAYS", "60")

	// Flags: 80
	cfg, err := Load(LoadOptions{
		ProjectDir: project,
		FlagOverrides: map[string]any{
			"history.retention_days": 80,
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.History.RetentionDays != 80 {
		t.Fatalf("retention_days=%d want 80", cfg.History.RetentionDays)
	}
}

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(LoadOptions{ProjectDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NLU.ConfidenceThreshold != 0.7 {
		t.Fatalf("confidence_threshold=%v want 0.7", cfg.NLU.ConfidenceThreshold)
	}
	if len(cfg.Safety.AllowedDomains) != 5 {
		t.Fatalf("allowed_domains=%v want 5 entries", cfg.Safety.AllowedDomains)
	}
	if len(cfg.Safety.RestrictedActions) != 4 {
		t.Fatalf("restricted_actions=%v want 4 entries", cfg.Safety.RestrictedActions)
	}
}

func TestLoad_InvalidEnvValueErrors(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LIGHTHOUSE_RETENTION_DAYS", "not-an-int")
	if _, err := Load(LoadOptions{ProjectDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_InvalidValueFailsValidation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LIGHTHOUSE_CONFIDENCE_THRESHOLD", "2.5")
	if _, err := Load(LoadOptions{ProjectDir: t.TempDir()}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestMergeConfigFile(t *testing.T) {
	v := newTestViper()

	// Empty path is a no-op.
	if err := mergeConfigFile(v, ""); err != nil {
		t.Fatalf("mergeConfigFile(empty): %v", err)
	}

	// Missing file is a no-op.
	if err := mergeConfigFile(v, filepath.Join(t.TempDir(), "missing.toml")); err != nil {
		t.Fatalf("mergeConfigFile(missing): %v", err)
	}

	// Invalid TOML is an error.
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("nlu = [\n"), 0644); err != nil {
		t.Fatalf("write invalid toml: %v", err)
	}
	if err := mergeConfigFile(v, path); err == nil {
		t.Fatalf("expected error for invalid toml")
	}
}

func newTestViper() *viper.Viper {
	// Keep this in a helper so defaults are seeded, mirroring Load().
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)
	return v
}

func TestConfigPathsAndProjectConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	u, p := ConfigPaths("/proj", "")
	if u != filepath.Join(home, ".lighthouse", "config.toml") {
		t.Fatalf("unexpected user path: %q", u)
	}
	if p != filepath.Join("/proj", ".lighthouse", "config.toml") {
		t.Fatalf("unexpected project path: %q", p)
	}

	if got := projectConfigPath("/proj", "/override.toml"); got != "/override.toml" {
		t.Fatalf("projectConfigPath(override)=%q", got)
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("history.retention_days", "7")
	if err != nil {
		t.Fatalf("ParseValue int: %v", err)
	}
	if v.(int) != 7 {
		t.Fatalf("unexpected value: %#v", v)
	}

	v, err = ParseValue("nlu.confidence_threshold", "0.85")
	if err != nil {
		t.Fatalf("ParseValue float: %v", err)
	}
	if v.(float64) != 0.85 {
		t.Fatalf("unexpected value: %#v", v)
	}

	v, err = ParseValue("safety.watch_domain_rules", "true")
	if err != nil {
		t.Fatalf("ParseValue bool: %v", err)
	}
	if v.(bool) != true {
		t.Fatalf("unexpected value: %#v", v)
	}

	v, err = ParseValue("safety.allowed_domains", "a.com, , b.com")
	if err != nil {
		t.Fatalf("ParseValue slice: %v", err)
	}
	if !reflect.DeepEqual(v, []string{"a.com", "b.com"}) {
		t.Fatalf("unexpected slice: %#v", v)
	}

	v, err = ParseValue("logging.file", "/tmp/lighthouse.log")
	if err != nil {
		t.Fatalf("ParseValue string: %v", err)
	}
	if v.(string) != "/tmp/lighthouse.log" {
		t.Fatalf("unexpected value: %#v", v)
	}

	if _, err := parseValueByKind("x", valueKind(123)); err == nil {
		t.Fatalf("expected error for unsupported value kind")
	}

	if _, err := ParseValue("nope.nope", "x"); err == nil {
		t.Fatalf("expected unsupported key error")
	}
}

func TestGetValue(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		key  string
		want any
	}{
		{"nlu.confidence_threshold", cfg.NLU.ConfidenceThreshold},
		{"nlu.max_command_length", cfg.NLU.MaxCommandLength},
		{"safety.domain_rules_path", cfg.Safety.DomainRulesPath},
		{"safety.watch_domain_rules", cfg.Safety.WatchDomainRules},
		{"safety.confirm_dangerous", cfg.Safety.ConfirmDangerous},
		{"history.database_path", cfg.History.DatabasePath},
		{"history.retention_days", cfg.History.RetentionDays},
		{"logging.level", cfg.Logging.Level},
		{"logging.file", cfg.Logging.File},

		{"nlu", cfg.NLU},
		{"history", cfg.History},
		{"logging", cfg.Logging},
	}

	for _, tc := range cases {
		got, ok := GetValue(cfg, tc.key)
		if !ok {
			t.Fatalf("GetValue(%q) not found", tc.key)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("GetValue(%q)=%#v want %#v", tc.key, got, tc.want)
		}
	}

	// Slice-valued keys compare with DeepEqual separately.
	got, ok := GetValue(cfg, "safety.allowed_domains")
	if !ok || !reflect.DeepEqual(got, cfg.Safety.AllowedDomains) {
		t.Fatalf("GetValue(safety.allowed_domains)=%#v", got)
	}

	if _, ok := GetValue(cfg, ""); ok {
		t.Fatalf("expected empty key to be not found")
	}
	for _, key := range []string{"nope", "nlu.nope", "safety.nope", "history.nope", "logging.nope"} {
		if _, ok := GetValue(cfg, key); ok {
			t.Fatalf("expected %q to be not found", key)
		}
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != len(keyKinds) {
		t.Fatalf("keys=%d want %d", len(keys), len(keyKinds))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] < keys[i-1] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
}

func TestWriteValue(t *testing.T) {
	if err := WriteValue("", "history.retention_days", 2); err == nil {
		t.Fatalf("expected error for empty path")
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteValue(path, "history.retention_days", 3); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "[history]") || !strings.Contains(string(data), "retention_days = 3") {
		t.Fatalf("unexpected toml: %q", string(data))
	}

	// Error when an intermediate segment is not a table.
	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("history = \"oops\"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteValue(bad, "history.retention_days", 2); err == nil {
		t.Fatalf("expected error when history is not a table")
	}
}

func TestWriteValue_DecodeExistingInvalidTOMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("history = [\n"), 0644); err != nil {
		t.Fatalf("write invalid toml: %v", err)
	}
	if err := WriteValue(path, "history.retention_days", 2); err == nil {
		t.Fatalf("expected decode error")
	} else if !strings.Contains(err.Error(), "decode config") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRestrictedActionTypes(t *testing.T) {
	cfg := DefaultConfig()
	actions := cfg.Safety.RestrictedActionTypes()
	if len(actions) != 4 {
		t.Fatalf("actions=%v want 4", actions)
	}
}
