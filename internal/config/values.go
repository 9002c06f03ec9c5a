package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type valueKind int

const (
	kindInt valueKind = iota
	kindFloat
	kindBool
	kindString
	kindStringSlice
)

// keyKinds declares the type of every settable config key.
var keyKinds = map[string]valueKind{
	"nlu.confidence_threshold":  kindFloat,
	"nlu.max_command_length":    kindInt,
	"safety.allowed_domains":    kindStringSlice,
	"safety.restricted_actions": kindStringSlice,
	"safety.domain_rules_path":  kindString,
	"safety.watch_domain_rules": kindBool,
	"safety.confirm_dangerous":  kindBool,
	"history.database_path":     kindString,
	"history.retention_days":    kindInt,
	"logging.level":             kindString,
	"logging.file":              kindString,
}

// ParseValue converts a raw string into the typed value for key.
func ParseValue(key, raw string) (any, error) {
	kind, ok := keyKinds[key]
	if !ok {
		return nil, fmt.Errorf("unsupported config key %q", key)
	}
	return parseValueByKind(raw, kind)
}

func parseValueByKind(raw string, kind valueKind) (any, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(raw)
	case kindFloat:
		return strconv.ParseFloat(raw, 64)
	case kindBool:
		return strconv.ParseBool(raw)
	case kindString:
		return raw, nil
	case kindStringSlice:
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %d", kind)
	}
}

// GetValue looks up a dotted key on the config. Section keys return the
// whole section.
func GetValue(cfg *Config, key string) (any, bool) {
	switch key {
	case "nlu":
		return cfg.NLU, true
	case "nlu.confidence_threshold":
		return cfg.NLU.ConfidenceThreshold, true
	case "nlu.max_command_length":
		return cfg.NLU.MaxCommandLength, true
	case "safety":
		return cfg.Safety, true
	case "safety.allowed_domains":
		return cfg.Safety.AllowedDomains, true
	case "safety.restricted_actions":
		return cfg.Safety.RestrictedActions, true
	case "safety.domain_rules_path":
		return cfg.Safety.DomainRulesPath, true
	case "safety.watch_domain_rules":
		return cfg.Safety.WatchDomainRules, true
	case "safety.confirm_dangerous":
		return cfg.Safety.ConfirmDangerous, true
	case "history":
		return cfg.History, true
	case "history.database_path":
		return cfg.History.DatabasePath, true
	case "history.retention_days":
		return cfg.History.RetentionDays, true
	case "logging":
		return cfg.Logging, true
	case "logging.level":
		return cfg.Logging.Level, true
	case "logging.file":
		return cfg.Logging.File, true
	default:
		return nil, false
	}
}

// Keys returns every settable config key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(keyKinds))
	for key := range keyKinds {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteValue sets a dotted key in the TOML file at path, creating the
// file and parent directories as needed.
func WriteValue(path, key string, value any) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}

	doc := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	segments := strings.Split(key, ".")
	node := doc
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node[segment]
		if !ok {
			next := map[string]any{}
			node[segment] = next
			node = next
			continue
		}
		table, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("config key %s: %q is not a table", key, segment)
		}
		node = table
	}
	node[segments[len(segments)-1]] = value

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		return fmt.Errorf("encode config %s: %w", path, err)
	}
	return nil
}
