package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var weatherJSON bool

var weatherCmd = &cobra.Command{
	Use:     "weather [city]",
	Short:   "Show the current weather used for suggestions",
	GroupID: groupSetup,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runWeather,
}

func init() {
	weatherCmd.Flags().BoolVar(&weatherJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(weatherCmd)
}

func runWeather(cmd *cobra.Command, args []string) error {
	var city string
	if len(args) == 1 {
		city = args[0]
	}
	return withApp(cmd.Context(), func(a *app) error {
		report, err := a.currentWeather(cmd.Context(), city)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%sWarning:%s %v; showing the default\n", colorYellow, colorReset, err)
		}
		if weatherJSON {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatWeather(report))
		if report.Humidity > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  feels like %.0f°C, humidity %d%%\n", report.FeelsLikeC, report.Humidity)
		}
		return nil
	})
}
