// Package cli implements the Cobra command-line interface for Lighthouse.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lighthouse-ai/lighthouse/internal/config"
	"github.com/lighthouse-ai/lighthouse/internal/output"
)

// Version information set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flag values
var (
	flagConfig    string
	flagOutput    string
	flagJSON      bool
	flagVerbose   bool
	flagDB        string
	flagSessionID string
	flagProject   string
)

var rootCmd = &cobra.Command{
	Use:   "lighthouse",
	Short: "Lighthouse - command interpretation and safety policy for voice-driven browsing",
	Long: `Lighthouse turns natural-language browsing commands into classified,
policy-checked actions.

Commands are classified into intents (navigate, click, type, submit,
describe, list, stop, help), entities are extracted, and every action
passes a safety policy before anything runs:
  BLOCKED    - Refused outright (restricted or domain-blocked actions)
  DANGEROUS  - Requires explicit confirmation (delete, purchase, payment)
  WARNING    - Requires confirmation (logout, account changes)
  SAFE       - Proceeds immediately`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagVerbose {
			log.SetLevel(log.DebugLevel)
		}
		if flagProject == "" {
			return nil
		}
		if err := os.Chdir(flagProject); err != nil {
			return fmt.Errorf("changing directory to %s: %w", flagProject, err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		showQuickReference()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		goVersion := runtime.Version()
		configPath := flagConfig
		if configPath == "" {
			home, _ := os.UserHomeDir()
			configPath = filepath.Join(home, ".lighthouse", "config.toml")
		}
		projectPath, _ := os.Getwd()

		payload := map[string]any{
			"version":      version,
			"commit":       commit,
			"build_date":   date,
			"go_version":   goVersion,
			"config_path":  configPath,
			"db_path":      GetDB(),
			"project_path": projectPath,
		}

		switch GetOutput() {
		case "json", "yaml":
			return output.New(output.Format(GetOutput())).Write(payload)
		case "text":
			fmt.Printf("lighthouse %s\n", version)
			fmt.Printf("  commit:  %s\n", commit)
			fmt.Printf("  built:   %s\n", date)
			fmt.Printf("  go:      %s\n", goVersion)
			fmt.Printf("  config:  %s\n", configPath)
			fmt.Printf("  db:      %s\n", GetDB())
			fmt.Printf("  project: %s\n", projectPath)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s", GetOutput())
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetOutput returns the configured output format.
// Precedence: CLI flags > LIGHTHOUSE_OUTPUT_FORMAT env > default.
func GetOutput() string {
	if flagJSON {
		return "json"
	}
	if flagOutput != "text" {
		return flagOutput
	}
	if envFormat := os.Getenv("LIGHTHOUSE_OUTPUT_FORMAT"); envFormat != "" {
		switch envFormat {
		case "json", "yaml", "text":
			return envFormat
		}
	}
	return flagOutput
}

// GetDB returns the database path: the --db flag, then the configured
// history path.
func GetDB() string {
	if flagDB != "" {
		return flagDB
	}
	cfg, err := loadConfig()
	if err == nil && cfg.History.DatabasePath != "" {
		return cfg.History.DatabasePath
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lighthouse", "history.db")
}

// loadConfig loads the layered configuration honoring global flags.
func loadConfig() (*config.Config, error) {
	return config.Load(config.LoadOptions{
		UserConfigPath: flagConfig,
	})
}

// newWriter builds an output writer for the selected format.
func newWriter() *output.Writer {
	return output.New(output.Format(GetOutput()))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "output format: text, json, yaml (env: LIGHTHOUSE_OUTPUT_FORMAT)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "shorthand for --output=json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path")
	rootCmd.PersistentFlags().StringVarP(&flagSessionID, "session-id", "s", "", "session ID")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "C", "", "project directory")

	rootCmd.AddCommand(versionCmd)
}
