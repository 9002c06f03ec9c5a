// Package cli implements the check and check-url commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lighthouse-ai/lighthouse/internal/safety"
)

var (
	flagCheckURL  string
	flagCheckText string
)

func init() {
	checkCmd.Flags().StringVarP(&flagCheckURL, "url", "u", "", "target URL for domain-rule checks")
	checkCmd.Flags().StringVarP(&flagCheckText, "text", "t", "", "command text for trigger-phrase gating")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(checkURLCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <action>",
	Short: "Evaluate the safety policy for an action",
	Long: `Evaluate what the safety policy would decide for an action type.

Examples:
  lighthouse check navigate
  lighthouse check purchase --text "buy it now"
  lighthouse check delete --url https://example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := safety.ParseActionType(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, policy, err := buildEngines(cfg)
		if err != nil {
			return err
		}

		text := safety.SanitizeText(flagCheckText)
		level := policy.SafetyLevelFor(action, flagCheckURL, text)
		restricted := policy.IsActionRestricted(action, flagCheckURL)
		needsConfirm := policy.RequiresConfirmation(action, flagCheckURL, text)
		message := policy.ConfirmationMessage(action, flagCheckURL, text)

		payload := map[string]any{
			"action":                action,
			"safety_level":          level,
			"restricted":            restricted,
			"requires_confirmation": needsConfirm,
			"message":               message,
		}

		var b strings.Builder
		b.WriteString(sectionStyle.Render("Policy verdict") + "\n")
		b.WriteString(fmt.Sprintf("  action:       %s\n", action))
		b.WriteString(fmt.Sprintf("  level:        %s\n", levelStyle(level).Render(strings.ToUpper(string(level)))))
		b.WriteString(fmt.Sprintf("  restricted:   %v\n", restricted))
		b.WriteString(fmt.Sprintf("  confirmation: %v\n", needsConfirm))
		b.WriteString("  " + mutedStyle.Render(message))
		return newWriter().WriteText(b.String(), payload)
	},
}

var checkURLCmd = &cobra.Command{
	Use:   "check-url <url>",
	Short: "Validate a URL against the allowlist and domain rules",
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

		result := policy.ValidateURL(args[0])

		var b strings.Builder
		b.WriteString(sectionStyle.Render("URL validation") + "\n")
		b.WriteString(fmt.Sprintf("  url:     %s\n", args[0]))
		b.WriteString(fmt.Sprintf("  valid:   %v\n", result.Valid))
		b.WriteString(fmt.Sprintf("  allowed: %v\n", result.Allowed))
		for _, warning := range result.Warnings {
			b.WriteString("  " + warningStyle.Render("warning: "+warning) + "\n")
		}
		for _, errMsg := range result.Errors {
			b.WriteString("  " + blockedStyle.Render("error: "+errMsg) + "\n")
		}
		return newWriter().WriteText(strings.TrimRight(b.String(), "\n"), result)
	},
}
