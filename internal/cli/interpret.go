// Package cli implements the interpret and run commands.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lighthouse-ai/lighthouse/internal/db"
	"github.com/lighthouse-ai/lighthouse/internal/dispatch"
	"github.com/lighthouse-ai/lighthouse/internal/nlu"
	"github.com/lighthouse-ai/lighthouse/internal/safety"
)

var (
	flagRunYes       bool
	flagRunNoLedger  bool
	flagRunSessionID string
)

func init() {
	runCmd.Flags().BoolVarP(&flagRunYes, "yes", "y", false, "answer confirmation prompts with yes")
	runCmd.Flags().BoolVar(&flagRunNoLedger, "no-ledger", false, "skip the audit ledger")
	runCmd.Flags().StringVar(&flagRunSessionID, "session", "", "record under an existing session ID")

	rootCmd.AddCommand(interpretCmd)
	rootCmd.AddCommand(runCmd)
}

var interpretCmd = &cobra.Command{
	Use:   "interpret <text>",
	Short: "Classify a command and show the policy decision without executing",
	Long: `Run the full interpretation pipeline: classification, entity
extraction, target derivation, and the safety policy decision. Nothing
is executed and nothing is recorded.

Examples:
  lighthouse interpret "go to google.com"
  lighthouse interpret "click buy now"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, cleanup, err := buildDispatcher(false)
		if err != nil {
			return err
		}
		defer cleanup()

		interp := d.Interpret(strings.Join(args, " "))
		return newWriter().WriteText(renderInterpretation(interp), interp)
	},
}

var runCmd = &cobra.Command{
	Use:   "run <text>",
	Short: "Interpret, confirm, execute, and record a command",
	Long: `Run a command through the whole pipeline. Dangerous actions prompt
for confirmation unless --yes is given. Every dispatched command is
recorded in the audit ledger unless --no-ledger is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, sessionID, cleanup, err := buildDispatcher(!flagRunNoLedger)
		if err != nil {
			return err
		}
		defer cleanup()

		outcome, err := d.Dispatch(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		payload := map[string]any{
			"session_id": sessionID,
			"outcome":    outcome,
		}
		var b strings.Builder
		b.WriteString(renderInterpretation(outcome.Interpretation) + "\n")
		if outcome.Success {
			b.WriteString("  " + safeStyle.Render("✓ "+outcome.Message))
		} else {
			b.WriteString("  " + blockedStyle.Render("✗ "+outcome.Message))
		}
		return newWriter().WriteText(b.String(), payload)
	},
}

// buildDispatcher wires the pipeline from configuration. With the
// ledger enabled it opens the database and resolves or creates a
// session; cleanup closes whatever was opened.
func buildDispatcher(withLedger bool) (*dispatch.Dispatcher, string, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", nil, err
	}
	nluEngine, policy, err := buildEngines(cfg)
	if err != nil {
		return nil, "", nil, err
	}
	return buildDispatcherWith(nluEngine, policy, withLedger)
}

// buildDispatcherWith wires the pipeline around engines the caller has
// already built, so the caller can keep a handle on them (the repl
// attaches a rules watcher to the policy engine).
func buildDispatcherWith(nluEngine *nlu.Engine, policy *safety.Engine, withLedger bool) (*dispatch.Dispatcher, string, func(), error) {
	cleanup := func() {}
	sessionID := ""
	var ledger *db.DB
	if withLedger {
		opened, err := db.OpenAndMigrate(GetDB())
		if err != nil {
			return nil, "", nil, err
		}
		ledger = opened
		cleanup = func() { _ = ledger.Close() }

		sessionID = flagRunSessionID
		if sessionID == "" {
			sessionID = flagSessionID
		}
		if sessionID == "" {
			session := &db.Session{}
			if err := ledger.CreateSession(session); err != nil {
				cleanup()
				return nil, "", nil, err
			}
			sessionID = session.ID
		}
	}

	confirmer := dispatch.Confirmer(terminalConfirmer{})
	if flagRunYes {
		confirmer = dispatch.ConfirmFunc(func(string) bool { return true })
	}

	d, err := dispatch.New(dispatch.Options{
		NLU:       nluEngine,
		Policy:    policy,
		Ledger:    ledger,
		SessionID: sessionID,
		Confirmer: confirmer,
		Announcer: dispatch.AnnounceFunc(func(msg string) {
			fmt.Fprintln(os.Stderr, mutedStyle.Render(msg))
		}),
	})
	if err != nil {
		cleanup()
		return nil, "", nil, err
	}
	return d, sessionID, cleanup, nil
}

// terminalConfirmer prompts on stderr and reads y/yes from stdin.
type terminalConfirmer struct{}

func (terminalConfirmer) Confirm(message string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", message)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func renderInterpretation(interp *dispatch.Interpretation) string {
	var b strings.Builder
	b.WriteString(renderClassification(interp.Result) + "\n")
	b.WriteString(sectionStyle.Render("Decision") + "\n")
	if interp.Action != "" {
		b.WriteString(fmt.Sprintf("  action:   %s\n", interp.Action))
	}
	if interp.Target != "" {
		b.WriteString(fmt.Sprintf("  target:   %s\n", interp.Target))
	}
	b.WriteString(fmt.Sprintf("  level:    %s\n", levelStyle(interp.Level).Render(strings.ToUpper(string(interp.Level)))))
	b.WriteString(fmt.Sprintf("  decision: %s", interp.Decision))
	if interp.Message != "" {
		b.WriteString("\n  " + mutedStyle.Render(interp.Message))
	}
	return b.String()
}
