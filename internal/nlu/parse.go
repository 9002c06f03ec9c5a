package nlu

import (
	"regexp"
	"strings"
)

// Fallback parsers applied to the normalized text when entity extraction
// did not produce the field directly.
var (
	navTargetRe  = regexp.MustCompile(`(?:go to|navigate to|visit|open)\s+(\S+)`)
	clickAfterRe = regexp.MustCompile(`(?:click|press|tap)\s+(.+)`)
	typeCmdRe    = regexp.MustCompile(`(?:type|enter|input)\s+(.+?)(?:\s+in\s+(.+))?$`)
)

// NavigationCommand is the structured form of a navigation request.
type NavigationCommand struct {
	// URL is the navigation target with a scheme prefix.
	URL string `json:"url,omitempty"`
}

// ClickCommand is the structured form of a click request. Entity-derived
// and regex-derived fields may be populated simultaneously.
type ClickCommand struct {
	// Button is the first button entity, if any.
	Button string `json:"button,omitempty"`
	// Number is the first number entity, if any.
	Number string `json:"number,omitempty"`
	// Text is the free-text target captured after the click verb.
	Text string `json:"text,omitempty"`
}

// TypeCommand is the structured form of a type request.
type TypeCommand struct {
	// Text is the content to type, with surrounding quotes stripped.
	Text string `json:"text,omitempty"`
	// Field is the target field, if one was named.
	Field string `json:"field,omitempty"`
}

// ParseNavigation extracts the navigation target from a classification
// result. Targets without a scheme get an https:// prefix.
func ParseNavigation(result *Result) NavigationCommand {
	if url := EntityValue(result.Entities, EntityURL); url != "" {
		return NavigationCommand{URL: ensureScheme(url)}
	}

	if m := navTargetRe.FindStringSubmatch(result.NormalizedText); m != nil {
		return NavigationCommand{URL: ensureScheme(m[1])}
	}

	return NavigationCommand{}
}

// ParseClick extracts the click target. The regex-based free-text target
// is merged additively with entity-derived fields.
func ParseClick(result *Result) ClickCommand {
	cmd := ClickCommand{
		Button: EntityValue(result.Entities, EntityButton),
		Number: EntityValue(result.Entities, EntityNumber),
	}

	if m := clickAfterRe.FindStringSubmatch(result.NormalizedText); m != nil {
		cmd.Text = strings.TrimSpace(m[1])
	}

	return cmd
}

// ParseType extracts the text to type and the target field. Regex-derived
// values fill in only fields the entities did not already supply.
func ParseType(result *Result) TypeCommand {
	cmd := TypeCommand{
		Field: EntityValue(result.Entities, EntityField),
	}
	if text := EntityValue(result.Entities, EntityText); text != "" {
		cmd.Text = strings.Trim(text, `"'`)
	}

	if m := typeCmdRe.FindStringSubmatch(result.NormalizedText); m != nil {
		if cmd.Text == "" {
			cmd.Text = strings.Trim(m[1], `"'`)
		}
		if m[2] != "" && cmd.Field == "" {
			cmd.Field = strings.TrimSpace(m[2])
		}
	}

	return cmd
}

func ensureScheme(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}
