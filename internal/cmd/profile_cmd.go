package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/wardrobe/internal/outfits/feedback"
	"github.com/runger/wardrobe/internal/outfits/inventory"
	"github.com/runger/wardrobe/internal/outfits/profile"
)

var (
	profileJSON bool
	resetYes    bool
	statsJSON   bool
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Short:   "Show what the style profile has learned",
	GroupID: groupOutfits,
	Args:    cobra.NoArgs,
	RunE:    runProfile,
}

var profileResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every learned preference",
	Args:  cobra.NoArgs,
	RunE:  runProfileReset,
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show wardrobe and rating statistics",
	GroupID: groupWardrobe,
	Args:    cobra.NoArgs,
	RunE:    runStats,
}

func init() {
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "print as JSON")
	profileResetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print as JSON")

	profileCmd.AddCommand(profileResetCmd)
	rootCmd.AddCommand(profileCmd, statsCmd)
}

// profileView is the printable summary of the style profile.
type profileView struct {
	Top       map[profile.Type][]profile.Entry `json:"top"`
	Formality []profile.Entry                  `json:"formality_distribution"`
}

func runProfile(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		ctx := cmd.Context()
		view := profileView{Top: make(map[profile.Type][]profile.Entry)}
		for _, t := range profile.AllTypes {
			entries, err := a.profiles.Top(ctx, t, 5)
			if err != nil {
				return err
			}
			view.Top[t] = entries
		}
		dist, err := a.profiles.Distribution(ctx, profile.TypeFormality)
		if err != nil {
			return err
		}
		view.Formality = dist

		out := cmd.OutOrStdout()
		if profileJSON {
			return writeJSON(out, view)
		}
		renderProfile(out, view)
		return nil
	})
}

func renderProfile(w io.Writer, v profileView) {
	for _, t := range profile.AllTypes {
		fmt.Fprintf(w, "%s%s%s\n", colorBold, strings.ToUpper(string(t[:1]))+string(t[1:]), colorReset)
		entries := v.Top[t]
		if len(entries) == 0 {
			fmt.Fprintf(w, "  %snothing learned yet%s\n", colorDim, colorReset)
			continue
		}
		for _, e := range entries {
			label := e.Value
			if t == profile.TypeColor {
				label = swatch(e.Value) + " " + e.Value
			}
			fmt.Fprintf(w, "  %-20s %5.1f\n", label, e.Weight)
		}
	}
	fmt.Fprintf(w, "%sFormality mix%s\n", colorBold, colorReset)
	for _, e := range v.Formality {
		fmt.Fprintf(w, "  %-20s %3.0f%%\n", e.Value, e.Weight)
	}
}

func runProfileReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		fmt.Fprint(cmd.OutOrStdout(), "Forget all learned style preferences? [y/N] ")
		var answer string
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.profiles.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Style profile reset.")
		return nil
	})
}

type statsView struct {
	Wardrobe inventory.Stats `json:"wardrobe"`
	Ratings  feedback.Stats  `json:"ratings"`
}

func runStats(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		var (
			v   statsView
			err error
		)
		if v.Wardrobe, err = a.items.Stats(cmd.Context()); err != nil {
			return err
		}
		if v.Ratings, err = a.ratings.Stats(cmd.Context()); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if statsJSON {
			return writeJSON(out, v)
		}
		renderStats(out, v)
		return nil
	})
}

func renderStats(w io.Writer, v statsView) {
	s := v.Wardrobe
	fmt.Fprintf(w, "%sWardrobe%s\n", colorBold, colorReset)
	fmt.Fprintf(w, "  items        %d\n", s.Total)
	for _, t := range inventory.AllTypes {
		if n := s.ByType[t]; n > 0 {
			fmt.Fprintf(w, "    %-10s %d\n", t, n)
		}
	}
	fmt.Fprintf(w, "  in laundry   %d\n", s.InLaundry)
	fmt.Fprintf(w, "  favorites    %d\n", s.Favorites)
	fmt.Fprintf(w, "  never worn   %d\n", s.NeverWorn)
	fmt.Fprintf(w, "  outfits worn %d\n", s.TotalOutfits)

	r := v.Ratings
	fmt.Fprintf(w, "%sRatings%s\n", colorBold, colorReset)
	if r.Total == 0 {
		fmt.Fprintf(w, "  %sno ratings yet%s\n", colorDim, colorReset)
		return
	}
	fmt.Fprintf(w, "  total   %d\n", r.Total)
	fmt.Fprintf(w, "  average %.1f\n", r.Average)
	values := make([]int, 0, len(r.Distribution))
	for k := range r.Distribution {
		values = append(values, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))
	for _, k := range values {
		fmt.Fprintf(w, "  %s %d\n", stars(k), r.Distribution[k])
	}
}
