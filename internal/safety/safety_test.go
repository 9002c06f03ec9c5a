package safety

import (
	"strings"
	"sync"
	"testing"
)

func newTestEngine() *Engine {
	return NewEngine(Options{
		AllowedDomains:    []string{"google.com", "example.com"},
		RestrictedActions: []ActionType{ActionDelete, ActionPayment},
	})
}

func TestIsDomainAllowed_Normalization(t *testing.T) {
	engine := newTestEngine()

	cases := []struct {
		url  string
		want bool
	}{
		{"https://google.com", true},
		{"https://www.google.com", true},
		{"https://GOOGLE.com/search", true},
		{"http://example.com/path?q=1", true},
		{"https://evil.example", false},
		{"https://malicious-site.com", false},
		{"://bad url", false},
	}
	for _, tc := range cases {
		if got := engine.IsDomainAllowed(tc.url); got != tc.want {
			t.Fatalf("IsDomainAllowed(%q)=%v want %v", tc.url, got, tc.want)
		}
	}
}

func TestAllowlistMutation(t *testing.T) {
	engine := newTestEngine()

	if !engine.AddAllowedDomain("Test.com") {
		t.Fatalf("AddAllowedDomain failed")
	}
	if !engine.IsDomainAllowed("https://test.com") {
		t.Fatalf("test.com not allowed after add")
	}
	if !engine.IsDomainAllowed("https://www.test.com") {
		t.Fatalf("www.test.com not allowed after add")
	}

	if !engine.RemoveAllowedDomain("www.test.com") {
		t.Fatalf("RemoveAllowedDomain failed")
	}
	if engine.IsDomainAllowed("https://test.com") {
		t.Fatalf("test.com still allowed after remove")
	}
}

func TestAllowlist_Sorted(t *testing.T) {
	engine := newTestEngine()

	allowlist := engine.Allowlist()
	if len(allowlist) != 2 {
		t.Fatalf("allowlist=%v want 2 entries", allowlist)
	}
	if allowlist[0] != "example.com" || allowlist[1] != "google.com" {
		t.Fatalf("allowlist=%v want sorted", allowlist)
	}
}

func TestIsActionRestricted(t *testing.T) {
	engine := newTestEngine()

	if !engine.IsActionRestricted(ActionDelete, "") {
		t.Fatalf("delete should be globally restricted")
	}
	if engine.IsActionRestricted(ActionNavigate, "") {
		t.Fatalf("navigate should not be restricted")
	}
}

func TestIsActionRestricted_DomainOverride(t *testing.T) {
	engine := NewEngine(Options{
		AllowedDomains: []string{"shop.example"},
		DomainRules: []DomainRule{
			{Domain: "shop.example", BlockedActions: []ActionType{ActionPurchase}},
		},
	})

	if !engine.IsActionRestricted(ActionPurchase, "https://shop.example/cart") {
		t.Fatalf("purchase should be blocked on shop.example")
	}
	if engine.IsActionRestricted(ActionPurchase, "https://other.example") {
		t.Fatalf("purchase should not be blocked elsewhere")
	}
	if engine.IsActionRestricted(ActionPurchase, "") {
		t.Fatalf("purchase should not be blocked without a url")
	}
}

func TestRequiresConfirmation_Asymmetry(t *testing.T) {
	// PURCHASE must not be globally restricted here, so the rule table
	// gating is what decides.
	engine := NewEngine(Options{})

	if !engine.RequiresConfirmation(ActionPurchase, "", "") {
		t.Fatalf("absent text must always trigger")
	}
	if !engine.RequiresConfirmation(ActionPurchase, "", "buy now") {
		t.Fatalf("matching trigger phrase must trigger")
	}
	if engine.RequiresConfirmation(ActionPurchase, "", "just browsing") {
		t.Fatalf("non-matching text must never trigger")
	}
}

func TestRequiresConfirmation_CaseInsensitiveTrigger(t *testing.T) {
	engine := NewEngine(Options{})

	if !engine.RequiresConfirmation(ActionPurchase, "", "BUY the blue one") {
		t.Fatalf("trigger match must be case-insensitive")
	}
}

func TestRequiresConfirmation_RestrictedPrecedence(t *testing.T) {
	engine := NewEngine(Options{
		RestrictedActions: []ActionType{ActionPurchase},
	})

	// Global restriction wins regardless of trigger phrases.
	if !engine.RequiresConfirmation(ActionPurchase, "", "anything") {
		t.Fatalf("restricted action must always require confirmation")
	}
}

func TestRequiresConfirmation_NoRule(t *testing.T) {
	engine := NewEngine(Options{})

	if engine.RequiresConfirmation(ActionNavigate, "", "") {
		t.Fatalf("navigate has no rule and must not require confirmation")
	}
}

func TestSafetyLevelFor(t *testing.T) {
	engine := NewEngine(Options{
		RestrictedActions: []ActionType{ActionDelete},
	})

	cases := []struct {
		action ActionType
		text   string
		want   Level
	}{
		{ActionDelete, "", LevelBlocked}, // restricted beats the rule table
		{ActionPurchase, "", LevelDangerous},
		{ActionPurchase, "buy it", LevelDangerous},
		{ActionPurchase, "just browsing", LevelSafe},
		{ActionLogout, "", LevelWarning},
		{ActionNavigate, "", LevelSafe},
		{ActionDescribe, "", LevelSafe},
	}
	for _, tc := range cases {
		if got := engine.SafetyLevelFor(tc.action, "", tc.text); got != tc.want {
			t.Fatalf("SafetyLevelFor(%s, text=%q)=%s want %s", tc.action, tc.text, got, tc.want)
		}
	}
}

func TestLevelOrdering(t *testing.T) {
	ordered := []Level{LevelSafe, LevelWarning, LevelDangerous, LevelBlocked}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Severity() <= ordered[i-1].Severity() {
			t.Fatalf("%s should rank above %s", ordered[i], ordered[i-1])
		}
	}
	if !LevelBlocked.AtLeast(LevelDangerous) {
		t.Fatalf("blocked should be at least dangerous")
	}
	if LevelSafe.AtLeast(LevelWarning) {
		t.Fatalf("safe should not be at least warning")
	}
}

func TestConfirmationMessage(t *testing.T) {
	engine := NewEngine(Options{
		RestrictedActions: []ActionType{ActionDelete},
	})

	if msg := engine.ConfirmationMessage(ActionDelete, "", ""); !strings.Contains(msg, "blocked") {
		t.Fatalf("blocked message=%q", msg)
	}
	if msg := engine.ConfirmationMessage(ActionPurchase, "", ""); !strings.Contains(msg, "cannot be undone") {
		t.Fatalf("dangerous message=%q", msg)
	}
	if msg := engine.ConfirmationMessage(ActionLogout, "", ""); !strings.Contains(msg, "WARNING") {
		t.Fatalf("warning message=%q", msg)
	}
	if msg := engine.ConfirmationMessage(ActionNavigate, "", ""); !strings.Contains(msg, "Confirm") {
		t.Fatalf("default message=%q", msg)
	}
}

func TestValidateURL(t *testing.T) {
	engine := NewEngine(Options{
		AllowedDomains: []string{"example.com"},
		DomainRules: []DomainRule{
			{Domain: "example.com", RestrictedPaths: []string{"/admin"}},
		},
	})

	result := engine.ValidateURL("https://example.com/home")
	if !result.Valid || !result.Allowed {
		t.Fatalf("expected valid+allowed, got %+v", result)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}

	result = engine.ValidateURL("https://malicious-site.com")
	if result.Valid || result.Allowed {
		t.Fatalf("expected invalid+disallowed, got %+v", result)
	}
	if len(result.Errors) == 0 {
		t.Fatalf("expected an error entry")
	}

	result = engine.ValidateURL("javascript:alert('xss')")
	if result.Valid {
		t.Fatalf("expected invalid (not in allowlist), got %+v", result)
	}
	if len(result.Warnings) == 0 {
		t.Fatalf("expected suspicious scheme warning")
	}

	result = engine.ValidateURL("https://example.com/admin/settings")
	if !result.Allowed {
		t.Fatalf("expected allowed, got %+v", result)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "/admin") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected restricted path warning, got %v", result.Warnings)
	}
}

func TestSanitizeText(t *testing.T) {
	if got := SanitizeText("hello world"); got != "hello world" {
		t.Fatalf("got %q", got)
	}

	got := SanitizeText("hello<script>alert('xss')</script>world")
	if strings.ContainsAny(got, "<>\"'&") {
		t.Fatalf("dangerous chars survived: %q", got)
	}

	long := strings.Repeat("a", 2000)
	if got := SanitizeText(long); len(got) != MaxSanitizedLength {
		t.Fatalf("len=%d want %d", len(got), MaxSanitizedLength)
	}

	if got := SanitizeText("  padded  "); got != "padded" {
		t.Fatalf("got %q", got)
	}
	if got := SanitizeText(""); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeText_Idempotent(t *testing.T) {
	cases := []string{
		"hello world",
		"hello<script>world",
		"line\r\nbreaks & \"quotes\"",
		strings.Repeat("xy ", 700),
		"  spaced out  ",
	}
	for _, text := range cases {
		once := SanitizeText(text)
		twice := SanitizeText(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q != %q", text, once, twice)
		}
	}
}

func TestRestrictedActions_Sorted(t *testing.T) {
	engine := newTestEngine()

	actions := engine.RestrictedActions()
	if len(actions) != 2 {
		t.Fatalf("actions=%v want 2", actions)
	}
	if actions[0] != ActionDelete || actions[1] != ActionPayment {
		t.Fatalf("actions=%v want sorted [delete payment]", actions)
	}
}

func TestParseActionType(t *testing.T) {
	if _, err := ParseActionType("purchase"); err != nil {
		t.Fatalf("ParseActionType(purchase): %v", err)
	}
	if _, err := ParseActionType("explode"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestEngine_ConcurrentAccess(t *testing.T) {
	engine := newTestEngine()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				engine.AddAllowedDomain("concurrent.example")
				_ = engine.IsDomainAllowed("https://concurrent.example")
				_ = engine.SafetyLevelFor(ActionPurchase, "https://google.com", "buy")
				engine.RemoveAllowedDomain("concurrent.example")
			}
		}()
	}
	wg.Wait()
}
