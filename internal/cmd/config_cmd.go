package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/wardrobe/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get or set configuration values",
	Long: `Get or set wardrobe configuration values.

Configuration is stored in ~/.config/wardrobe/config.yaml (XDG compliant).
Environment variables (WARDROBE_DB, WARDROBE_WEATHER_API_KEY, WARDROBE_CITY,
WARDROBE_LOG_LEVEL) override values from the file.

Keys are in the format: section.key
Sections: store, engine, scoring, profile, weather, log

Examples:
  wardrobe config list
  wardrobe config get weather.city
  wardrobe config set weather.city Berlin
  wardrobe config set profile.rating_step 0.25`,
	GroupID: groupSetup,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration keys and values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return listConfig(cmd.OutOrStdout(), cfg, config.DefaultPaths())
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Show one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return getConfig(cmd.OutOrStdout(), cfg, args[0])
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change and save one configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return setConfig(cmd.OutOrStdout(), cfg, config.DefaultPaths(), args[0], args[1])
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// displayValue masks secrets and marks empty values.
func displayValue(key, value string) string {
	if value == "" {
		return colorDim + "(not set)" + colorReset
	}
	if strings.HasSuffix(key, "api_key") {
		if len(value) <= 4 {
			return "****"
		}
		return "****" + value[len(value)-4:]
	}
	return value
}

func listConfig(w io.Writer, cfg *config.Config, paths *config.Paths) error {
	fmt.Fprintf(w, "%sConfiguration Keys%s\n", colorBold, colorReset)
	fmt.Fprintln(w, strings.Repeat("-", 40))

	var failedKeys []string
	for _, key := range config.ListKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			failedKeys = append(failedKeys, key)
			continue
		}
		fmt.Fprintf(w, "  %s%s%s = %s\n", colorCyan, key, colorReset, displayValue(key, value))
	}

	if len(failedKeys) > 0 {
		fmt.Fprintf(w, "\n%sWarning:%s Failed to retrieve keys: %s\n", colorYellow, colorReset, strings.Join(failedKeys, ", "))
	}

	fmt.Fprintf(w, "\nConfig file: %s\n", paths.ConfigFile())
	return nil
}

func getConfig(w io.Writer, cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		fmt.Fprintf(w, "%s(not set)%s\n", colorDim, colorReset)
	} else {
		fmt.Fprintln(w, value)
	}
	return nil
}

func setConfig(w io.Writer, cfg *config.Config, paths *config.Paths, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := cfg.SaveToFile(paths.ConfigFile()); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s%s%s = %s\n", colorCyan, key, colorReset, displayValue(key, value))
	fmt.Fprintf(w, "Saved to: %s\n", paths.ConfigFile())
	return nil
}
