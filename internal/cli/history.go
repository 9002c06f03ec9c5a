// Package cli implements the history and session commands.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lighthouse-ai/lighthouse/internal/db"
	"github.com/lighthouse-ai/lighthouse/internal/safety"
)

var (
	flagHistorySession string
	flagHistoryLimit   int
)

func init() {
	historyCmd.Flags().StringVar(&flagHistorySession, "session", "", "filter by session ID")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 50, "max results to return")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionCmd.AddCommand(sessionStatsCmd)
	sessionCmd.AddCommand(sessionPruneCmd)

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sessionCmd)
}

func openLedger() (*db.DB, error) {
	ledger, err := db.OpenAndMigrate(GetDB())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return ledger, nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse the audited action history",
	Long: `Browse the audit ledger of dispatched commands.

Examples:
  lighthouse history                     # recent actions across sessions
  lighthouse history --session <id>      # one session's actions
  lighthouse history --limit 10 -o json  # machine-readable`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := openLedger()
		if err != nil {
			return err
		}
		defer ledger.Close()

		var actions []*db.Action
		if flagHistorySession != "" {
			actions, err = ledger.ListActions(flagHistorySession, flagHistoryLimit)
		} else {
			actions, err = ledger.ListRecentActions(flagHistoryLimit)
		}
		if err != nil {
			return err
		}

		payload := map[string]any{"actions": actions}
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Action history") + "\n")
		if len(actions) == 0 {
			b.WriteString(mutedStyle.Render("  no recorded actions"))
			return newWriter().WriteText(b.String(), payload)
		}
		for _, action := range actions {
			status := blockedStyle.Render("✗")
			if action.Success {
				status = safeStyle.Render("✓")
			}
			b.WriteString(fmt.Sprintf("  %s %s  %-10s %s %s\n",
				action.CreatedAt.Format("2006-01-02 15:04:05"),
				status,
				action.ActionType,
				levelStyle(safety.Level(action.SafetyLevel)).Render(action.SafetyLevel),
				mutedStyle.Render(action.CommandText)))
		}
		return newWriter().WriteText(strings.TrimRight(b.String(), "\n"), payload)
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage recorded sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := openLedger()
		if err != nil {
			return err
		}
		defer ledger.Close()

		sessions, err := ledger.ListSessions(flagHistoryLimit)
		if err != nil {
			return err
		}

		payload := map[string]any{"sessions": sessions}
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Sessions") + "\n")
		for _, session := range sessions {
			state := safeStyle.Render("active")
			if !session.Active() {
				state = mutedStyle.Render("ended")
			}
			b.WriteString(fmt.Sprintf("  %s  %s  started %s\n",
				session.ID, state, session.StartedAt.Format(time.RFC3339)))
		}
		if len(sessions) == 0 {
			b.WriteString(mutedStyle.Render("  no sessions"))
		}
		return newWriter().WriteText(strings.TrimRight(b.String(), "\n"), payload)
	},
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := openLedger()
		if err != nil {
			return err
		}
		defer ledger.Close()

		session := &db.Session{}
		if err := ledger.CreateSession(session); err != nil {
			return err
		}
		return newWriter().WriteText("  started session "+session.ID, session)
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end <session-id>",
	Short: "End a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := openLedger()
		if err != nil {
			return err
		}
		defer ledger.Close()

		if err := ledger.EndSession(args[0]); err != nil {
			return err
		}
		newWriter().Success("session ended")
		return nil
	},
}

var sessionStatsCmd = &cobra.Command{
	Use:   "stats <session-id>",
	Short: "Show a session's action counters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := openLedger()
		if err != nil {
			return err
		}
		defer ledger.Close()

		stats, err := ledger.GetSessionStats(args[0])
		if err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString(sectionStyle.Render("Session stats") + "\n")
		b.WriteString(fmt.Sprintf("  total:     %d\n", stats.Total))
		b.WriteString(fmt.Sprintf("  succeeded: %d\n", stats.Succeeded))
		b.WriteString(fmt.Sprintf("  failed:    %d\n", stats.Failed))
		b.WriteString(fmt.Sprintf("  confirmed: %d\n", stats.Confirmed))
		b.WriteString(fmt.Sprintf("  blocked:   %d", stats.Blocked))
		return newWriter().WriteText(b.String(), stats)
	},
}

var sessionPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete ended sessions older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ledger, err := openLedger()
		if err != nil {
			return err
		}
		defer ledger.Close()

		cutoff := time.Now().UTC().AddDate(0, 0, -cfg.History.RetentionDays)
		pruned, err := ledger.PruneSessions(cutoff)
		if err != nil {
			return err
		}
		newWriter().Success(fmt.Sprintf("pruned %d sessions", pruned))
		return nil
	},
}
