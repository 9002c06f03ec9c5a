// Package cli implements the classify and commands commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lighthouse-ai/lighthouse/internal/nlu"
	"github.com/lighthouse-ai/lighthouse/internal/output"
)

func init() {
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(commandsCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Classify a command's intent and extract entities",
	Long: `Classify a natural-language command without running any policy check.

Examples:
  lighthouse classify "go to google.com"
  lighthouse classify "type 'hello' in the search field"
  lighthouse classify -o json "click the first link"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		engine := nlu.NewEngine(nlu.WithConfidenceThreshold(cfg.NLU.ConfidenceThreshold))
		result := engine.Classify(strings.Join(args, " "))

		return newWriter().WriteText(renderClassification(result), result)
	},
}

func renderClassification(result *nlu.Result) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Classification") + "\n")
	b.WriteString(fmt.Sprintf("  intent:     %s\n", commandStyle.Render(string(result.Intent))))
	b.WriteString(fmt.Sprintf("  confidence: %.2f\n", result.Confidence))
	b.WriteString(fmt.Sprintf("  normalized: %s\n", result.NormalizedText))
	if len(result.Entities) == 0 {
		b.WriteString(mutedStyle.Render("  no entities"))
		return b.String()
	}
	b.WriteString("  entities:\n")
	for _, ent := range result.Entities {
		b.WriteString(fmt.Sprintf("    %-7s %q [%d:%d]\n", ent.Type, ent.Value, ent.Start, ent.End))
	}
	return strings.TrimRight(b.String(), "\n")
}

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List supported command phrasings",
	RunE: func(cmd *cobra.Command, args []string) error {
		supported := nlu.SupportedCommands()
		if GetOutput() != "text" {
			return output.New(output.Format(GetOutput())).Write(map[string]any{
				"supported_commands": supported,
			})
		}
		fmt.Println(titleStyle.Render("Supported commands"))
		for _, line := range supported {
			fmt.Println("  " + line)
		}
		return nil
	},
}
