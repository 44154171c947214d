package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/sjson"

	"github.com/alanmeadows/bugbot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bugbot configuration",
}

var configJSONFlag bool

func init() {
	configShowCmd.Flags().BoolVar(&configJSONFlag, "json", false, "Output raw JSON without formatting")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show merged configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Redact the token before display.
		redacted := *cfg
		if redacted.GitHub.Token != "" {
			redacted.GitHub.Token = "***"
		}

		var data []byte
		if configJSONFlag {
			data, err = json.Marshal(redacted)
		} else {
			data, err = json.MarshalIndent(redacted, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a config value by dotted key path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		result := gjson.GetBytes(data, args[0])
		if !result.Exists() {
			return fmt.Errorf("unknown config key %q", args[0])
		}
		if args[0] == "github.token" {
			fmt.Fprintln(cmd.OutOrStdout(), "***")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.String())
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a configuration value using a dotted key path.

The value is written to the user config file. The file is created if it does
not exist. JSONC comments are not preserved on write.

Examples:
  bugbot config set llm.model gpt-4o
  bugbot config set limits.max_comments_per_pass 5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		rawValue := args[1]

		// Determine value type: try bool, then number, then string.
		var value any
		if b, err := strconv.ParseBool(rawValue); err == nil {
			value = b
		} else if i, err := strconv.ParseInt(rawValue, 10, 64); err == nil {
			value = i
		} else if f, err := strconv.ParseFloat(rawValue, 64); err == nil {
			value = f
		} else {
			value = rawValue
		}

		path, err := config.UserConfigPath()
		if err != nil {
			return err
		}

		// Strip JSONC comments before passing to sjson (which
		// requires valid JSON).
		var existing []byte
		if data, err := os.ReadFile(path); err == nil {
			existing = jsonc.ToJSON(data)
		} else {
			existing = []byte("{}")
		}

		updated, err := sjson.SetBytes(existing, key, value)
		if err != nil {
			return fmt.Errorf("setting key %q: %w", key, err)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.WriteFile(path, updated, 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, value)
		return nil
	},
}
