// Package nlu implements intent classification and entity extraction
// for spoken or typed browser commands.
package nlu

import (
	"fmt"
	"regexp"
)

// Intent is the discrete category of a user request.
type Intent string

const (
	IntentNavigate Intent = "navigate"
	IntentClick    Intent = "click"
	IntentType     Intent = "type"
	IntentSubmit   Intent = "submit"
	IntentDescribe Intent = "describe"
	IntentList     Intent = "list"
	IntentStop     Intent = "stop"
	IntentHelp     Intent = "help"
	IntentUnknown  Intent = "unknown"
)

// Entity types extracted from commands.
const (
	EntityURL    = "url"
	EntityNumber = "number"
	EntityText   = "text"
	EntityButton = "button"
	EntityField  = "field"
)

// IntentPatterns holds the ordered pattern list for one intent.
type IntentPatterns struct {
	// Intent is the intent these patterns recognize.
	Intent Intent
	// Patterns are tried in order; each is a compiled regex.
	Patterns []*Pattern
}

// EntityPatterns holds the ordered pattern list for one entity type.
type EntityPatterns struct {
	// Type is the entity type these patterns extract.
	Type string
	// Patterns are matched globally over the normalized text.
	Patterns []*Pattern
}

// Pattern is a single compiled recognition pattern.
type Pattern struct {
	// Raw is the regex source string.
	Raw string
	// Compiled is the compiled regex.
	Compiled *regexp.Regexp
}

// contraction is one literal substring replacement applied during
// normalization. Order matters; replacements are applied once each,
// in table order, over the whole string.
type contraction struct {
	from string
	to   string
}

// contractions is the fixed expansion table. Not word-boundary aware:
// a substring inside a longer token is still replaced. This mirrors the
// behavior downstream pattern tables were tuned against.
var contractions = []contraction{
	{"what's", "what is"},
	{"what're", "what are"},
	{"where's", "where is"},
	{"where're", "where are"},
	{"how's", "how is"},
	{"how're", "how are"},
	{"i'm", "i am"},
	{"you're", "you are"},
	{"he's", "he is"},
	{"she's", "she is"},
	{"it's", "it is"},
	{"we're", "we are"},
	{"they're", "they are"},
	{"don't", "do not"},
	{"doesn't", "does not"},
	{"didn't", "did not"},
	{"won't", "will not"},
	{"can't", "cannot"},
	{"couldn't", "could not"},
	{"shouldn't", "should not"},
	{"wouldn't", "would not"},
}

// intentOrder is the fixed enumeration order for intent scoring.
// Ties keep the earlier intent, so this order is part of the contract.
var intentOrder = []Intent{
	IntentNavigate,
	IntentClick,
	IntentType,
	IntentSubmit,
	IntentDescribe,
	IntentList,
	IntentStop,
	IntentHelp,
}

// buildIntentPatterns compiles the intent recognition table. The first
// pattern for each intent is anchored over the whole command so a pure
// single-intent utterance scores as an exact match; the word-boundary
// patterns handle verbs embedded mid-sentence.
func buildIntentPatterns() []IntentPatterns {
	table := []struct {
		intent   Intent
		patterns []string
	}{
		{IntentNavigate, []string{
			`^(?:go to|navigate to|visit|open|browse to)\s+.+$`,
			`\b(?:go to|navigate to|visit|open|browse to)\b`,
			`\b(?:take me to|show me|load)\b`,
			`^(?:go|navigate|visit|open|browse)\s+`,
		}},
		{IntentClick, []string{
			`^(?:click|press|tap)\s+.+$`,
			`\b(?:click|press|tap|select|choose)\b`,
			`\b(?:hit|push|activate)\b`,
			`^(?:click|press|tap|select|choose|hit|push|activate)\s+`,
		}},
		{IntentType, []string{
			`^(?:type|enter|input|fill)\s+.+$`,
			`\b(?:type|enter|input|write|fill)\b`,
			`\b(?:put|insert|add)\s+(?:in|into)\b`,
			`^(?:type|enter|input|write|fill|put|insert|add)\s+`,
		}},
		{IntentSubmit, []string{
			`^(?:submit|send|post)(?:\s+.+)?$`,
			`\b(?:submit|send|post|confirm)\b`,
			`\b(?:go|proceed|continue|finish)\b`,
			`^(?:submit|send|post|confirm|go|proceed|continue|finish)`,
		}},
		{IntentDescribe, []string{
			`^(?:describe|tell me about|read)\s+.+$`,
			`\b(?:describe|tell me about|what is|what's on)\b`,
			`\b(?:summarize|explain|read)\b`,
			`^(?:describe|tell|what|summarize|explain|read)\s+`,
		}},
		{IntentList, []string{
			`^(?:list|show)\s+.+$`,
			`\b(?:list|show|find|search for)\b`,
			`\b(?:what are|what's available)\b`,
			`^(?:list|show|find|search|what)\s+`,
		}},
		{IntentStop, []string{
			`^(?:stop|cancel|quit|exit|abort)(?:\s+.+)?$`,
			`\b(?:stop|cancel|quit|exit|abort)\b`,
			`\b(?:end|terminate|halt)\b`,
			`^(?:stop|cancel|quit|exit|abort|end|terminate|halt)`,
		}},
		{IntentHelp, []string{
			`^help(?:\s+.+)?$`,
			`\b(?:help|assist|guide|support)\b`,
			`\b(?:what can|how do|how to)\b`,
			`^(?:help|assist|guide|support|what|how)`,
		}},
	}

	result := make([]IntentPatterns, 0, len(table))
	for _, row := range table {
		result = append(result, IntentPatterns{
			Intent:   row.intent,
			Patterns: compilePatterns(row.patterns),
		})
	}
	return result
}

// buildEntityPatterns compiles the entity extraction table. The entry
// order fixes the candidate generation order fed into overlap resolution.
func buildEntityPatterns() []EntityPatterns {
	table := []struct {
		typ      string
		patterns []string
	}{
		{EntityURL, []string{
			`\b(?:https?://)?(?:www\.)?(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}\b`,
		}},
		{EntityNumber, []string{
			`\b(?:first|second|third|fourth|fifth|1st|2nd|3rd|4th|5th)\b`,
			`\b(?:one|two|three|four|five|1|2|3|4|5)\b`,
			`\b(?:number|item|option|choice)\s+\d+\b`,
		}},
		{EntityText, []string{
			`"(?:[^"\\]|\\.)*"`,
			`'(?:[^'\\]|\\.)*'`,
		}},
		{EntityButton, []string{
			`\b(?:button|link|option|choice|item)\b`,
			`\b(?:submit|search|login|sign in|sign up|register|buy|add to cart)\b`,
		}},
		{EntityField, []string{
			`\b(?:field|input|box|area)\b`,
			`\b(?:email|password|username|name|address|phone|message|comment)\b`,
		}},
	}

	result := make([]EntityPatterns, 0, len(table))
	for _, row := range table {
		result = append(result, EntityPatterns{
			Type:     row.typ,
			Patterns: compilePatterns(row.patterns),
		})
	}
	return result
}

func compilePatterns(patterns []string) []*Pattern {
	result := make([]*Pattern, 0, len(patterns))
	for _, p := range patterns {
		compiled, err := regexp.Compile("(?i)" + p)
		if err != nil {
			// Builtin patterns must always be valid.
			panic(fmt.Sprintf("invalid builtin pattern %q: %v", p, err))
		}
		result = append(result, &Pattern{Raw: p, Compiled: compiled})
	}
	return result
}

// SupportedCommands returns example phrasings for each supported intent,
// for help output and announcements.
func SupportedCommands() []string {
	return []string{
		"Navigate: 'go to google.com', 'visit amazon.com'",
		"Click: 'click search button', 'click the first link'",
		"Type: 'type hello world', 'enter my email'",
		"Submit: 'submit form', 'send message'",
		"Describe: 'describe this page', 'what's on screen'",
		"List: 'list all buttons', 'show me links'",
		"Stop: 'stop', 'cancel', 'quit'",
		"Help: 'help', 'what can you do'",
	}
}
