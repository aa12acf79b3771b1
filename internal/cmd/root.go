package cmd

import (
	"github.com/spf13/cobra"
)

// Command groups shown in help output.
const (
	groupWardrobe = "wardrobe"
	groupOutfits  = "outfits"
	groupSetup    = "setup"
)

var (
	flagDB    string
	flagDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "wardrobe",
	Short: "outfit suggestions from your own closet",
	Long: `wardrobe - outfit suggestions from your own closet
  - catalogue clothes once, mark them as in the laundry
  - get ranked outfits for today's weather and occasion
  - wear and rate outfits so suggestions learn your style`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyColorMode()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupWardrobe, Title: "Wardrobe:"},
		&cobra.Group{ID: groupOutfits, Title: "Outfits:"},
		&cobra.Group{ID: groupSetup, Title: "Setup:"},
	)
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "colorize output: auto, always or never")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database file (overrides store.path)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(versionCmd)
}
