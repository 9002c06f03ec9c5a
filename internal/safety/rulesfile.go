package safety

import (
	"errors"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// RulesFileError reports a malformed or unreadable domain-rule document.
// It is a distinct type so callers can log-and-continue with global-only
// rules while still observing the failure.
type RulesFileError struct {
	Path string
	Err  error
}

func (e *RulesFileError) Error() string {
	return fmt.Sprintf("domain rules file %s: %v", e.Path, e.Err)
}

func (e *RulesFileError) Unwrap() error {
	return e.Err
}

// IsRulesFileError reports whether err is a domain-rule document failure.
func IsRulesFileError(err error) bool {
	var rfe *RulesFileError
	return errors.As(err, &rfe)
}

// rulesDocument is the on-disk YAML shape:
//
//	domain_configs:
//	  example.com:
//	    allowed_subdomains: [shop]
//	    restricted_paths: [/admin]
//	    blocked_actions: [purchase]
type rulesDocument struct {
	DomainConfigs map[string]domainConfig `yaml:"domain_configs"`
}

type domainConfig struct {
	AllowedSubdomains []string `yaml:"allowed_subdomains"`
	RestrictedPaths   []string `yaml:"restricted_paths"`
	BlockedActions    []string `yaml:"blocked_actions"`
}

// LoadDomainRules reads the declarative domain-rule document. A missing
// file is not an error: the engine proceeds with global rules only. A
// malformed document returns a *RulesFileError and must not be silently
// dropped by callers.
func LoadDomainRules(path string) ([]DomainRule, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &RulesFileError{Path: path, Err: err}
	}

	var doc rulesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &RulesFileError{Path: path, Err: err}
	}

	rules := make([]DomainRule, 0, len(doc.DomainConfigs))
	for domain, cfg := range doc.DomainConfigs {
		rule := DomainRule{
			Domain:            domain,
			AllowedSubdomains: cfg.AllowedSubdomains,
			RestrictedPaths:   cfg.RestrictedPaths,
		}
		for _, action := range cfg.BlockedActions {
			parsed, err := ParseActionType(action)
			if err != nil {
				return nil, &RulesFileError{
					Path: path,
					Err:  fmt.Errorf("domain %s: %w", domain, err),
				}
			}
			rule.BlockedActions = append(rule.BlockedActions, parsed)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
