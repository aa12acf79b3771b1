package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/wardrobe/internal/outfits/feedback"
	"github.com/runger/wardrobe/internal/outfits/history"
	"github.com/runger/wardrobe/internal/outfits/inventory"
)

var (
	wearSel history.Selection

	rateTags string
	rateNote string

	historyLimit int
	historyJSON  bool
)

var wearCmd = &cobra.Command{
	Use:   "wear",
	Short: "Log an outfit you wore",
	Long: `Log an outfit you wore today. Give a top and a bottom, or a dress;
shoes and outerwear are optional. Worn items get their wear count bumped
and the style profile learns from the outfit.

Examples:
  wardrobe wear --top 3 --bottom 7 --shoes 12
  wardrobe wear --dress 5 --occasion date --temp 24`,
	GroupID: groupOutfits,
	Args:    cobra.NoArgs,
	RunE:    runWear,
}

var rateCmd = &cobra.Command{
	Use:   "rate OUTFIT_ID RATING",
	Short: "Rate a worn outfit from 1 to 5",
	Long: `Rate a worn outfit from 1 to 5. Ratings of 4 and 5 strengthen the
outfit's colors, patterns, formality and occasion in the style profile;
1 and 2 weaken them; 3 is neutral.

Quick tags (use --tags 1,3):
` + quickTagHelp(),
	GroupID: groupOutfits,
	Args:    cobra.ExactArgs(2),
	RunE:    runRate,
}

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Show recently worn outfits",
	GroupID: groupOutfits,
	Args:    cobra.NoArgs,
	RunE:    runHistory,
}

func init() {
	f := wearCmd.Flags()
	f.Int64Var(&wearSel.TopID, "top", 0, "top item id")
	f.Int64Var(&wearSel.BottomID, "bottom", 0, "bottom item id")
	f.Int64Var(&wearSel.DressID, "dress", 0, "dress item id")
	f.Int64Var(&wearSel.ShoesID, "shoes", 0, "shoes item id")
	f.Int64Var(&wearSel.OuterwearID, "outerwear", 0, "outerwear item id")
	f.StringVarP(&suggestOccasion, "occasion", "o", "casual", "casual, work, gym, date or home")
	f.Float64Var(&suggestTemp, "temp", 0, "temperature in °C (skips the weather lookup)")
	f.StringVar(&suggestCondition, "condition", "", "weather condition such as Clear, Rain, Snow")
	f.StringVar(&suggestCity, "city", "", "city for the weather lookup")

	rateCmd.Flags().StringVar(&rateTags, "tags", "", "comma separated quick tag numbers")
	rateCmd.Flags().StringVarP(&rateNote, "note", "m", "", "free text feedback")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of outfits to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print as JSON")

	rootCmd.AddCommand(wearCmd, rateCmd, historyCmd)
}

func quickTagHelp() string {
	var b strings.Builder
	for i, t := range feedback.QuickTags {
		fmt.Fprintf(&b, "  %2d  %s\n", i+1, t)
	}
	return b.String()
}

func runWear(cmd *cobra.Command, args []string) error {
	if err := wearSel.Validate(); err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		id, err := a.engine.LogWear(cmd.Context(), history.WearRequest{
			Weather:   requestWeather(cmd, a),
			Occasion:  inventory.Occasion(suggestOccasion),
			Selection: wearSel,
		})
		return reportWear(cmd, id, err)
	})
}

// composeFeedback joins the chosen quick tags and the note into the stored
// feedback text.
func composeFeedback(tags, note string) (string, error) {
	var parts []string
	for _, field := range strings.Split(tags, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(feedback.QuickTags) {
			return "", fmt.Errorf("unknown quick tag %q (1-%d)", field, len(feedback.QuickTags))
		}
		parts = append(parts, feedback.QuickTags[n-1])
	}
	if note = strings.TrimSpace(note); note != "" {
		parts = append(parts, note)
	}
	return strings.Join(parts, "; "), nil
}

func runRate(cmd *cobra.Command, args []string) error {
	outfitID, err := parseID(args[0])
	if err != nil {
		return err
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: %q", feedback.ErrInvalidRating, args[1])
	}
	text, err := composeFeedback(rateTags, rateNote)
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.engine.Rate(cmd.Context(), outfitID, rating, text); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rated outfit #%d %s\n", outfitID, stars(rating))
		return nil
	})
}

func stars(n int) string {
	n = max(0, min(n, 5))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		entries, err := a.history.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if historyJSON {
			if entries == nil {
				entries = []history.Entry{}
			}
			return writeJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No outfits logged yet.")
			return nil
		}
		now, width := time.Now(), termWidth()
		for _, e := range entries {
			renderHistoryEntry(out, e, now, width)
		}
		return nil
	})
}
