// Package cli implements allowlist and rules inspection commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lighthouse-ai/lighthouse/internal/safety"
)

func init() {
	allowlistCmd.AddCommand(allowlistListCmd)
	allowlistCmd.AddCommand(allowlistCheckCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)

	rootCmd.AddCommand(allowlistCmd)
	rootCmd.AddCommand(rulesCmd)
}

var allowlistCmd = &cobra.Command{
	Use:   "allowlist",
	Short: "Inspect the domain allowlist",
}

var allowlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List allowed domains",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, policy, err := buildEngines(cfg)
		if err != nil {
			return err
		}

		domains := policy.Allowlist()
		payload := map[string]any{"allowed_domains": domains}

		var b strings.Builder
		b.WriteString(sectionStyle.Render("Allowed domains") + "\n")
		for _, domain := range domains {
			b.WriteString("  " + domain + "\n")
		}
		return newWriter().WriteText(strings.TrimRight(b.String(), "\n"), payload)
	},
}

var allowlistCheckCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Check whether a URL's domain is allowed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, policy, err := buildEngines(cfg)
		if err != nil {
			return err
		}

		allowed := policy.IsDomainAllowed(args[0])
		payload := map[string]any{"url": args[0], "allowed": allowed}

		text := "  " + blockedStyle.Render("✗ not allowed")
		if allowed {
			text = "  " + safeStyle.Render("✓ allowed")
		}
		return newWriter().WriteText(text, payload)
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the safety rule table and domain overrides",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List safety rules, restricted actions, and domain overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, policy, err := buildEngines(cfg)
		if err != nil {
			return err
		}

		payload := map[string]any{
			"rules":              policy.Rules(),
			"restricted_actions": policy.RestrictedActions(),
			"domain_rules":       policy.DomainRules(),
		}

		var b strings.Builder
		b.WriteString(sectionStyle.Render("Restricted actions") + "\n")
		for _, action := range policy.RestrictedActions() {
			b.WriteString("  " + blockedStyle.Render(string(action)) + "\n")
		}
		b.WriteString(sectionStyle.Render("Safety rules") + "\n")
		for _, rule := range policy.Rules() {
			b.WriteString(fmt.Sprintf("  %-15s %s", rule.Action,
				levelStyle(rule.Level).Render(strings.ToUpper(string(rule.Level)))))
			if len(rule.TriggerPhrases) > 0 {
				b.WriteString(mutedStyle.Render("  triggers: " + strings.Join(rule.TriggerPhrases, ", ")))
			}
			b.WriteString("\n")
		}
		if domainRules := policy.DomainRules(); len(domainRules) > 0 {
			b.WriteString(sectionStyle.Render("Domain overrides") + "\n")
			for _, rule := range domainRules {
				b.WriteString("  " + rule.Domain)
				if len(rule.BlockedActions) > 0 {
					parts := make([]string, len(rule.BlockedActions))
					for i, a := range rule.BlockedActions {
						parts[i] = string(a)
					}
					b.WriteString(mutedStyle.Render("  blocks: " + strings.Join(parts, ", ")))
				}
				b.WriteString("\n")
			}
		}
		return newWriter().WriteText(strings.TrimRight(b.String(), "\n"), payload)
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a domain-rule document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := safety.LoadDomainRules(args[0])
		if err != nil {
			return err
		}
		payload := map[string]any{"path": args[0], "domain_rules": rules}
		text := fmt.Sprintf("  %s (%d domain rules)", safeStyle.Render("✓ valid"), len(rules))
		return newWriter().WriteText(text, payload)
	},
}
