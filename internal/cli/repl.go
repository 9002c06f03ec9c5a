// Package cli implements the interactive repl command.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lighthouse-ai/lighthouse/internal/nlu"
	"github.com/lighthouse-ai/lighthouse/internal/safety"
)

func init() {
	rootCmd.AddCommand(replCmd)
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively dispatch commands read from stdin",
	Long: `Read commands line by line and run each through the full pipeline.
With safety.watch_domain_rules enabled, edits to the domain-rule
document take effect without restarting. A stop command or EOF ends
the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		nluEngine, policy, err := buildEngines(cfg)
		if err != nil {
			return err
		}

		if cfg.Safety.WatchDomainRules && cfg.Safety.DomainRulesPath != "" {
			watcher, err := safety.NewRulesWatcher(policy, cfg.Safety.DomainRulesPath)
			if err != nil {
				return err
			}
			if err := watcher.Start(cmd.Context()); err != nil {
				return err
			}
			defer watcher.Stop()
		}

		d, sessionID, cleanup, err := buildDispatcherWith(nluEngine, policy, true)
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Fprintln(os.Stderr, mutedStyle.Render("session "+sessionID+" - say 'stop' or press Ctrl-D to quit"))

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Fprint(os.Stderr, "> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			outcome, err := d.Dispatch(cmd.Context(), line)
			if err != nil {
				return err
			}
			fmt.Println(renderInterpretation(outcome.Interpretation))
			if outcome.Interpretation.Result.Intent == nlu.IntentStop && outcome.Success {
				break
			}
		}
		return scanner.Err()
	},
}
