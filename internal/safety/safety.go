package safety

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// MaxSanitizedLength is the cap applied by SanitizeText.
const MaxSanitizedLength = 1000

// dangerousChars are deleted (not escaped) by SanitizeText.
const dangerousChars = "<>\"'&\x00\r\n"

// suspiciousSchemes produce a validation warning when they appear
// anywhere in a URL, case-insensitively.
var suspiciousSchemes = []string{
	"javascript:",
	"data:",
	"file:",
	"ftp:",
	"mailto:",
}

// Options seeds a policy engine from configuration.
type Options struct {
	// AllowedDomains seeds the allowlist. Entries are normalized the
	// same way runtime lookups are.
	AllowedDomains []string
	// RestrictedActions are globally blocked action types.
	RestrictedActions []ActionType
	// DomainRules are per-domain overrides, keyed by normalized domain
	// inside the engine.
	DomainRules []DomainRule
	// Rules overrides the builtin safety rule table when non-nil.
	Rules []Rule
}

// Engine answers policy queries over a mutable allowlist and domain-rule
// map plus an immutable safety rule table. All query methods are pure
// functions of the current snapshot; the allowlist and domain rules are
// the only mutable state and are guarded by the mutex.
type Engine struct {
	mu          sync.RWMutex
	allowed     map[string]bool
	domainRules map[string]*DomainRule

	restricted map[ActionType]bool
	rules      []Rule
}

// NewEngine constructs a policy engine seeded from opts.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		allowed:     make(map[string]bool),
		domainRules: make(map[string]*DomainRule),
		restricted:  make(map[ActionType]bool),
		rules:       opts.Rules,
	}
	if e.rules == nil {
		e.rules = DefaultRules()
	}
	for _, domain := range opts.AllowedDomains {
		if normalized, err := normalizeDomain(domain); err == nil {
			e.allowed[normalized] = true
		}
	}
	for _, action := range opts.RestrictedActions {
		e.restricted[action] = true
	}
	e.SetDomainRules(opts.DomainRules)
	return e
}

// SetDomainRules replaces the per-domain override map.
func (e *Engine) SetDomainRules(rules []DomainRule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.domainRules = make(map[string]*DomainRule, len(rules))
	for i := range rules {
		rule := rules[i]
		key := strings.ToLower(rule.Domain)
		key = strings.TrimPrefix(key, "www.")
		e.domainRules[key] = &rule
	}
}

// IsDomainAllowed reports whether the URL's domain is in the allowlist.
// Malformed URLs are never allowed.
func (e *Engine) IsDomainAllowed(rawURL string) bool {
	domain, err := domainOf(rawURL)
	if err != nil {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.allowed[domain]
}

// DomainRuleFor returns the override rule for the URL's domain, or nil.
func (e *Engine) DomainRuleFor(rawURL string) *DomainRule {
	domain, err := domainOf(rawURL)
	if err != nil {
		return nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.domainRules[domain]
}

// IsActionRestricted reports whether the action is globally restricted,
// or blocked by the target domain's override rule. An empty url skips
// the domain check.
func (e *Engine) IsActionRestricted(action ActionType, rawURL string) bool {
	e.mu.RLock()
	restricted := e.restricted[action]
	e.mu.RUnlock()
	if restricted {
		return true
	}

	if rawURL != "" {
		if rule := e.DomainRuleFor(rawURL); rule != nil && rule.blocksAction(action) {
			return true
		}
	}
	return false
}

// RequiresConfirmation decides whether the action needs explicit approval.
// Precedence: restricted actions always require confirmation; otherwise
// the first rule-table entry for the action decides, gated by text:
// with text empty (absent) a confirming rule always triggers, with text
// supplied it triggers only on a case-insensitive trigger-phrase match.
func (e *Engine) RequiresConfirmation(action ActionType, rawURL, text string) bool {
	if e.IsActionRestricted(action, rawURL) {
		return true
	}

	rule := e.ruleFor(action)
	if rule == nil || !rule.RequiresConfirmation {
		return false
	}
	if text == "" {
		return true
	}
	return matchesTrigger(rule, text)
}

// SafetyLevelFor computes the risk level for an action. Restricted
// actions are BLOCKED; otherwise the rule table decides with the same
// text gating as RequiresConfirmation; otherwise SAFE.
func (e *Engine) SafetyLevelFor(action ActionType, rawURL, text string) Level {
	if e.IsActionRestricted(action, rawURL) {
		return LevelBlocked
	}

	rule := e.ruleFor(action)
	if rule == nil {
		return LevelSafe
	}
	if text == "" || matchesTrigger(rule, text) {
		return rule.Level
	}
	return LevelSafe
}

// ConfirmationMessage renders the prompt for the computed safety level.
func (e *Engine) ConfirmationMessage(action ActionType, rawURL, text string) string {
	switch e.SafetyLevelFor(action, rawURL, text) {
	case LevelBlocked:
		return fmt.Sprintf("Action '%s' is blocked for security reasons.", action)
	case LevelDangerous:
		return fmt.Sprintf("DANGEROUS ACTION: %s. This action cannot be undone. Are you sure you want to continue?", strings.ToUpper(string(action)))
	case LevelWarning:
		return fmt.Sprintf("WARNING: %s action detected. Do you want to continue?", strings.ToUpper(string(action)))
	default:
		return fmt.Sprintf("Confirm %s action?", action)
	}
}

// URLValidation is the result of validating a URL against the policy.
type URLValidation struct {
	Valid    bool     `json:"valid"`
	Allowed  bool     `json:"allowed"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// ValidateURL checks a URL against the allowlist, suspicious scheme
// prefixes, and the domain rule's restricted paths. Suspicious schemes
// and restricted paths produce warnings only; an allowlist miss or a
// malformed URL makes the result invalid.
func (e *Engine) ValidateURL(rawURL string) *URLValidation {
	result := &URLValidation{
		Valid:    true,
		Allowed:  true,
		Warnings: []string{},
		Errors:   []string{},
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		result.Valid = false
		result.Allowed = false
		result.Errors = append(result.Errors, fmt.Sprintf("URL validation failed: %v", err))
		return result
	}

	if !e.IsDomainAllowed(rawURL) {
		result.Allowed = false
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Domain not in allowlist: %s", parsed.Host))
	}

	lower := strings.ToLower(rawURL)
	for _, scheme := range suspiciousSchemes {
		if strings.Contains(lower, scheme) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Suspicious URL pattern detected: %s", scheme))
		}
	}

	if rule := e.DomainRuleFor(rawURL); rule != nil {
		for _, restricted := range rule.RestrictedPaths {
			if strings.HasPrefix(parsed.Path, restricted) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Restricted path: %s", restricted))
			}
		}
	}

	return result
}

// SanitizeText deletes dangerous characters, truncates to
// MaxSanitizedLength, and trims surrounding whitespace. Idempotent.
func SanitizeText(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(dangerousChars, r) {
			continue
		}
		b.WriteRune(r)
	}

	sanitized := b.String()
	if runes := []rune(sanitized); len(runes) > MaxSanitizedLength {
		sanitized = string(runes[:MaxSanitizedLength])
	}
	return strings.TrimSpace(sanitized)
}

// AddAllowedDomain normalizes and adds a domain to the allowlist.
func (e *Engine) AddAllowedDomain(domain string) bool {
	normalized, err := normalizeDomain(domain)
	if err != nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.allowed[normalized] = true
	return true
}

// RemoveAllowedDomain normalizes and removes a domain from the allowlist.
// Removing an absent domain still succeeds.
func (e *Engine) RemoveAllowedDomain(domain string) bool {
	normalized, err := normalizeDomain(domain)
	if err != nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.allowed, normalized)
	return true
}

// Allowlist returns the current allowlist, sorted.
func (e *Engine) Allowlist() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	domains := make([]string, 0, len(e.allowed))
	for domain := range e.allowed {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}

// RestrictedActions returns the globally restricted actions, sorted.
func (e *Engine) RestrictedActions() []ActionType {
	e.mu.RLock()
	defer e.mu.RUnlock()

	actions := make([]ActionType, 0, len(e.restricted))
	for action := range e.restricted {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

// Rules returns the safety rule table for inspection.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// DomainRules returns the per-domain overrides, sorted by domain.
func (e *Engine) DomainRules() []DomainRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]DomainRule, 0, len(e.domainRules))
	for _, rule := range e.domainRules {
		rules = append(rules, *rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Domain < rules[j].Domain })
	return rules
}

// ruleFor returns the first rule-table entry for the action, or nil.
func (e *Engine) ruleFor(action ActionType) *Rule {
	for i := range e.rules {
		if e.rules[i].Action == action {
			return &e.rules[i]
		}
	}
	return nil
}

// matchesTrigger reports whether any trigger phrase occurs in text,
// case-insensitively.
func matchesTrigger(rule *Rule, text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range rule.TriggerPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// domainOf extracts the normalized network authority from a URL:
// lowercased host with any www. prefix stripped.
func domainOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	domain := strings.ToLower(parsed.Host)
	domain = strings.TrimPrefix(domain, "www.")
	return domain, nil
}

// normalizeDomain normalizes a bare domain the same way URL lookups do.
func normalizeDomain(domain string) (string, error) {
	parsed, err := url.Parse("https://" + domain)
	if err != nil {
		return "", fmt.Errorf("parsing domain: %w", err)
	}
	normalized := strings.ToLower(parsed.Host)
	normalized = strings.TrimPrefix(normalized, "www.")
	if normalized == "" {
		return "", fmt.Errorf("empty domain after normalization")
	}
	return normalized, nil
}
