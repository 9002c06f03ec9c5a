package nlu

import (
	"strings"
	"testing"
)

func TestClassify_NavigateIntent(t *testing.T) {
	engine := NewEngine()

	cases := []string{
		"go to google.com",
		"navigate to amazon.com",
		"visit github.com",
		"open wikipedia.org",
	}
	for _, text := range cases {
		result := engine.Classify(text)
		if result.Intent != IntentNavigate {
			t.Fatalf("Classify(%q) intent=%s want navigate", text, result.Intent)
		}
		if result.Confidence < DefaultConfidenceThreshold {
			t.Fatalf("Classify(%q) confidence=%v below threshold", text, result.Confidence)
		}
	}
}

func TestClassify_ClickIntent(t *testing.T) {
	engine := NewEngine()

	cases := []string{
		"click search button",
		"click the search button",
		"press submit",
		"tap the link",
		"select option 1",
	}
	for _, text := range cases {
		result := engine.Classify(text)
		if result.Intent != IntentClick {
			t.Fatalf("Classify(%q) intent=%s want click", text, result.Intent)
		}
	}
}

func TestClassify_TypeIntent(t *testing.T) {
	engine := NewEngine()

	cases := []string{
		"type hello world",
		"enter my email",
		"input password",
		"fill the form",
	}
	for _, text := range cases {
		result := engine.Classify(text)
		if result.Intent != IntentType {
			t.Fatalf("Classify(%q) intent=%s want type", text, result.Intent)
		}
	}
}

func TestClassify_DescribeIntent(t *testing.T) {
	engine := NewEngine()

	cases := []string{
		"describe this page",
		"what's on screen",
		"tell me about this page",
		"read the page",
	}
	for _, text := range cases {
		result := engine.Classify(text)
		if result.Intent != IntentDescribe {
			t.Fatalf("Classify(%q) intent=%s want describe", text, result.Intent)
		}
	}
}

func TestClassify_StopAndHelp(t *testing.T) {
	engine := NewEngine()

	for _, text := range []string{"stop", "cancel", "quit"} {
		if result := engine.Classify(text); result.Intent != IntentStop {
			t.Fatalf("Classify(%q) intent=%s want stop", text, result.Intent)
		}
	}
	for _, text := range []string{"help", "what can you do"} {
		if result := engine.Classify(text); result.Intent != IntentHelp {
			t.Fatalf("Classify(%q) intent=%s want help", text, result.Intent)
		}
	}
}

func TestClassify_UnknownFallback(t *testing.T) {
	engine := NewEngine()

	cases := []string{
		"",
		"asdfghjkl",
		"random text",
		"123456789",
	}
	for _, text := range cases {
		result := engine.Classify(text)
		if result.Intent != IntentUnknown {
			t.Fatalf("Classify(%q) intent=%s want unknown", text, result.Intent)
		}
		if result.Confidence != 0 {
			t.Fatalf("Classify(%q) confidence=%v want 0", text, result.Confidence)
		}
	}
}

func TestClassify_EmptyInput(t *testing.T) {
	result := NewEngine().Classify("")

	if result.Intent != IntentUnknown {
		t.Fatalf("intent=%s want unknown", result.Intent)
	}
	if result.Confidence != 0 {
		t.Fatalf("confidence=%v want 0", result.Confidence)
	}
	if len(result.Entities) != 0 {
		t.Fatalf("entities=%v want empty", result.Entities)
	}
}

func TestClassify_ConfidenceBounds(t *testing.T) {
	engine := NewEngine()

	cases := []string{
		"", "go to google.com", "click", "submit form please now",
		"aaaa bbbb cccc", "stop", "what's on screen", "go",
	}
	for _, text := range cases {
		result := engine.Classify(text)
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Fatalf("Classify(%q) confidence=%v out of [0,1]", text, result.Confidence)
		}
	}
}

func TestClassify_EntitiesNeverOverlap(t *testing.T) {
	engine := NewEngine()

	cases := []string{
		"go to google.com",
		"click the first button",
		"type 'hello' in the email field",
		"click item 3 then option 2",
		"visit www.example.com and click sign in",
	}
	for _, text := range cases {
		entities := engine.Classify(text).Entities
		for i := range entities {
			for j := i + 1; j < len(entities); j++ {
				a, b := entities[i], entities[j]
				if a.Start < b.End && a.End > b.Start {
					t.Fatalf("Classify(%q): overlapping entities %+v and %+v", text, a, b)
				}
			}
		}
	}
}

func TestClassify_URLEntity(t *testing.T) {
	result := NewEngine().Classify("go to google.com")

	url := EntityValue(result.Entities, EntityURL)
	if !strings.Contains(url, "google.com") {
		t.Fatalf("url entity=%q want to contain google.com", url)
	}
}

func TestClassify_EntityConfidence(t *testing.T) {
	result := NewEngine().Classify("go to google.com")

	for _, ent := range result.Entities {
		if ent.Confidence != 0.8 {
			t.Fatalf("entity %+v confidence want 0.8", ent)
		}
	}
}

func TestClassify_TieKeepsEarlierIntent(t *testing.T) {
	// "go" is an exact match for SUBMIT's word-boundary pattern (score 1.0)
	// and matches nothing earlier in enumeration order.
	result := NewEngine().Classify("go")
	if result.Intent != IntentSubmit {
		t.Fatalf("intent=%s want submit", result.Intent)
	}
	if result.Confidence != 1.0 {
		t.Fatalf("confidence=%v want 1.0", result.Confidence)
	}
}

func TestClassify_ThresholdForcesUnknown(t *testing.T) {
	engine := NewEngine(WithConfidenceThreshold(1.1))

	result := engine.Classify("go to google.com")
	if result.Intent != IntentUnknown || result.Confidence != 0 {
		t.Fatalf("got (%s, %v) want (unknown, 0)", result.Intent, result.Confidence)
	}

	// Entities are still extracted even when the intent is unknown.
	if EntityValue(result.Entities, EntityURL) == "" {
		t.Fatalf("expected url entity despite unknown intent")
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  Go   To  GOOGLE.com  ", "go to google.com"},
		{"Don't stop", "do not stop"},
		{"what's on screen", "what is on screen"},
		{"it's, what's, they're", "it is, what is, they are"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestMatchScore(t *testing.T) {
	// "go to" in "go to google.com": 5/16 base, +0.2 start, +0.1 whole word.
	got := matchScore("go to google.com", 0, 5)
	want := 5.0/16.0 + 0.2 + 0.1
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("matchScore=%v want %v", got, want)
	}

	// Exact match scores 1.0 even after bonuses (capped).
	if got := matchScore("stop", 0, 4); got != 1.0 {
		t.Fatalf("exact matchScore=%v want 1.0", got)
	}

	// Mid-string, non word-bounded match gets no bonus.
	// "oogle" inside "go to google.com".
	if got := matchScore("go to google.com", 7, 12); got != 5.0/16.0 {
		t.Fatalf("mid matchScore=%v want %v", got, 5.0/16.0)
	}
}

func TestResolveOverlaps_KeepsLongerValue(t *testing.T) {
	candidates := []Entity{
		{Type: EntityNumber, Value: "1", Start: 5, End: 6},
		{Type: EntityNumber, Value: "1st", Start: 5, End: 8},
		{Type: EntityButton, Value: "button", Start: 10, End: 16},
	}

	resolved := resolveOverlaps(candidates)
	if len(resolved) != 2 {
		t.Fatalf("resolved=%v want 2 entities", resolved)
	}

	var values []string
	for _, ent := range resolved {
		values = append(values, ent.Value)
	}
	joined := strings.Join(values, ",")
	if !strings.Contains(joined, "1st") || strings.Contains(joined, "1,") {
		t.Fatalf("resolved values=%v want 1st kept over 1", values)
	}
}

func TestEntityValues(t *testing.T) {
	entities := []Entity{
		{Type: EntityButton, Value: "search"},
		{Type: EntityURL, Value: "google.com"},
		{Type: EntityButton, Value: "login"},
	}

	if got := EntityValue(entities, EntityButton); got != "search" {
		t.Fatalf("EntityValue=%q want search", got)
	}
	if got := EntityValue(entities, EntityField); got != "" {
		t.Fatalf("EntityValue=%q want empty", got)
	}
	if got := EntityValues(entities, EntityButton); len(got) != 2 {
		t.Fatalf("EntityValues=%v want 2", got)
	}
}

func TestSupportedCommands(t *testing.T) {
	commands := SupportedCommands()
	if len(commands) != 8 {
		t.Fatalf("len=%d want 8", len(commands))
	}
}
