// Package safety implements the policy engine that decides whether a
// browser action is allowed, blocked, or requires confirmation.
package safety

import "fmt"

// ActionType identifies an action the dispatcher may perform.
type ActionType string

const (
	ActionNavigate      ActionType = "navigate"
	ActionClick         ActionType = "click"
	ActionTypeText      ActionType = "type"
	ActionSubmit        ActionType = "submit"
	ActionDelete        ActionType = "delete"
	ActionPurchase      ActionType = "purchase"
	ActionPayment       ActionType = "payment"
	ActionAccountChange ActionType = "account_change"
	ActionLogout        ActionType = "logout"
	ActionUnsubscribe   ActionType = "unsubscribe"
	ActionDescribe      ActionType = "describe"
	ActionList          ActionType = "list"
	ActionStop          ActionType = "stop"
	ActionHelp          ActionType = "help"
)

// actionTypes is every known action type, for parsing.
var actionTypes = map[ActionType]bool{
	ActionNavigate: true, ActionClick: true, ActionTypeText: true,
	ActionSubmit: true, ActionDelete: true, ActionPurchase: true,
	ActionPayment: true, ActionAccountChange: true, ActionLogout: true,
	ActionUnsubscribe: true, ActionDescribe: true, ActionList: true,
	ActionStop: true, ActionHelp: true,
}

// ParseActionType validates a string action name.
func ParseActionType(s string) (ActionType, error) {
	a := ActionType(s)
	if !actionTypes[a] {
		return "", fmt.Errorf("unknown action type %q", s)
	}
	return a, nil
}

// Level is the ordered risk classification of an action.
type Level string

const (
	LevelSafe      Level = "safe"
	LevelWarning   Level = "warning"
	LevelDangerous Level = "dangerous"
	LevelBlocked   Level = "blocked"
)

var levelRank = map[Level]int{
	LevelSafe:      0,
	LevelWarning:   1,
	LevelDangerous: 2,
	LevelBlocked:   3,
}

// Severity returns the level's position in the SAFE < WARNING <
// DANGEROUS < BLOCKED order. Unknown levels rank below SAFE.
func (l Level) Severity() int {
	if rank, ok := levelRank[l]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether l is at least as severe as other.
func (l Level) AtLeast(other Level) bool {
	return l.Severity() >= other.Severity()
}

// Rule gates one action type behind a risk level and optional
// confirmation requirement.
type Rule struct {
	// Action is the action type this rule applies to.
	Action ActionType `json:"action_type"`
	// Level is the risk level assigned when the rule triggers.
	Level Level `json:"safety_level"`
	// RequiresConfirmation marks the action as needing explicit approval.
	RequiresConfirmation bool `json:"requires_confirmation"`
	// Description explains the rule.
	Description string `json:"description,omitempty"`
	// TriggerPhrases gate the rule when command text is supplied: the
	// rule triggers only if one of these occurs as a case-insensitive
	// substring of the text. With no text supplied the rule always
	// triggers.
	TriggerPhrases []string `json:"trigger_phrases,omitempty"`
}

// DomainRule narrows default behavior for one domain.
type DomainRule struct {
	// Domain is the normalized domain (lowercase, no www prefix).
	Domain string `json:"domain" yaml:"domain"`
	// AllowedSubdomains lists subdomains permitted under this domain.
	AllowedSubdomains []string `json:"allowed_subdomains" yaml:"allowed_subdomains"`
	// RestrictedPaths are path prefixes that produce validation warnings.
	RestrictedPaths []string `json:"restricted_paths" yaml:"restricted_paths"`
	// BlockedActions are refused outright on this domain.
	BlockedActions []ActionType `json:"blocked_actions" yaml:"blocked_actions"`
}

// blocksAction reports whether the domain rule blocks the action.
func (r *DomainRule) blocksAction(action ActionType) bool {
	for _, blocked := range r.BlockedActions {
		if blocked == action {
			return true
		}
	}
	return false
}

// DefaultRules returns the builtin safety rule table. The table is
// ordered; lookups take the first entry matching the action type.
func DefaultRules() []Rule {
	return []Rule{
		{
			Action:               ActionDelete,
			Level:                LevelDangerous,
			RequiresConfirmation: true,
			Description:          "Delete action requires confirmation",
			TriggerPhrases:       []string{"delete", "remove", "destroy", "erase"},
		},
		{
			Action:               ActionPurchase,
			Level:                LevelDangerous,
			RequiresConfirmation: true,
			Description:          "Purchase action requires confirmation",
			TriggerPhrases:       []string{"buy", "purchase", "order", "checkout", "pay"},
		},
		{
			Action:               ActionPayment,
			Level:                LevelDangerous,
			RequiresConfirmation: true,
			Description:          "Payment action requires confirmation",
			TriggerPhrases:       []string{"payment", "billing", "credit card", "paypal"},
		},
		{
			Action:               ActionAccountChange,
			Level:                LevelWarning,
			RequiresConfirmation: true,
			Description:          "Account changes require confirmation",
			TriggerPhrases:       []string{"password", "email", "profile", "settings"},
		},
		{
			Action:               ActionLogout,
			Level:                LevelWarning,
			RequiresConfirmation: true,
			Description:          "Logout requires confirmation",
			TriggerPhrases:       []string{"logout", "sign out", "exit"},
		},
		{
			Action:               ActionUnsubscribe,
			Level:                LevelWarning,
			RequiresConfirmation: true,
			Description:          "Unsubscribe requires confirmation",
			TriggerPhrases:       []string{"unsubscribe", "opt out", "remove subscription"},
		},
	}
}
