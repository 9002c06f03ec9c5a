// Package cli implements the config command.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lighthouse-ai/lighthouse/internal/config"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get and set configuration values",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		value, ok := config.GetValue(cfg, args[0])
		if !ok {
			return fmt.Errorf("unknown config key %q", args[0])
		}
		return newWriter().WriteText(fmt.Sprintf("%v", value), map[string]any{
			"key":   args[0],
			"value": value,
		})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write one configuration value to the user config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := config.ParseValue(args[0], args[1])
		if err != nil {
			return err
		}

		path := flagConfig
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolving home directory: %w", err)
			}
			path = filepath.Join(home, ".lighthouse", "config.toml")
		}
		if err := config.WriteValue(path, args[0], value); err != nil {
			return err
		}

		// Reload to make sure the result still validates.
		if _, err := loadConfig(); err != nil {
			return fmt.Errorf("value written, but config no longer validates: %w", err)
		}
		newWriter().Success(fmt.Sprintf("%s = %v", args[0], value))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration keys and effective values",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		values := map[string]any{}
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Configuration") + "\n")
		for _, key := range config.Keys() {
			value, _ := config.GetValue(cfg, key)
			values[key] = value
			b.WriteString(fmt.Sprintf("  %-28s %v\n", key, value))
		}
		return newWriter().WriteText(strings.TrimRight(b.String(), "\n"), values)
	},
}
