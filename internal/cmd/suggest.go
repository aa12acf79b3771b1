package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/runger/wardrobe/internal/outfits/engine"
	"github.com/runger/wardrobe/internal/outfits/inventory"
	"github.com/runger/wardrobe/internal/picker"
)

var (
	suggestOccasion  string
	suggestTemp      float64
	suggestCondition string
	suggestCity      string
	suggestCount     int
	suggestJSON      bool
	suggestWear      int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest outfits for today",
	Long: `Suggest ranked outfits from the clean clothes in the wardrobe.

Weather comes from the configured provider for --city (or weather.city).
Pass --temp and/or --condition to skip the lookup. When the provider is
unavailable the neutral default (20°C, Clear) is used.

Examples:
  wardrobe suggest
  wardrobe suggest --occasion work --count 3
  wardrobe suggest --temp 4 --condition Snow --json
  wardrobe suggest --wear 1`,
	GroupID: groupOutfits,
	Args:    cobra.NoArgs,
	RunE:    runSuggest,
}

var pickCmd = &cobra.Command{
	Use:     "pick",
	Short:   "Browse suggestions interactively and wear one",
	GroupID: groupOutfits,
	Args:    cobra.NoArgs,
	RunE:    runPick,
}

func init() {
	for _, c := range []*cobra.Command{suggestCmd, pickCmd} {
		f := c.Flags()
		f.StringVarP(&suggestOccasion, "occasion", "o", "casual", "casual, work, gym, date or home")
		f.Float64Var(&suggestTemp, "temp", 0, "temperature in °C (skips the weather lookup)")
		f.StringVar(&suggestCondition, "condition", "", "weather condition such as Clear, Rain, Snow")
		f.StringVar(&suggestCity, "city", "", "city for the weather lookup")
		f.IntVarP(&suggestCount, "count", "n", 0, "number of outfits (default engine.count)")
	}
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "print the response as JSON")
	suggestCmd.Flags().IntVar(&suggestWear, "wear", 0, "log the wear of suggestion N")

	rootCmd.AddCommand(suggestCmd, pickCmd)
}

// requestWeather resolves the weather of a suggest or wear request. Flags
// win; otherwise the provider is asked, falling back to the default.
func requestWeather(cmd *cobra.Command, a *app) inventory.Weather {
	f := cmd.Flags()
	if f.Changed("temp") || f.Changed("condition") {
		w := inventory.Weather{TempC: inventory.DefaultTempC, Condition: suggestCondition}
		if f.Changed("temp") {
			w.TempC = suggestTemp
		}
		return w.Normalize()
	}

	report, err := a.currentWeather(cmd.Context(), suggestCity)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%sWarning:%s weather unavailable (%v), assuming %s\n",
			colorYellow, colorReset, err, formatWeather(report))
	} else if !suggestJSON {
		fmt.Fprintln(cmd.OutOrStdout(), formatWeather(report))
	}
	return report.Context()
}

func (a *app) count(n int) int {
	if n > 0 {
		return n
	}
	return a.cfg.Engine.Count
}

func runSuggest(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		w := requestWeather(cmd, a)
		resp, err := a.engine.Suggest(ctx, engine.Request{
			Weather:  &w,
			Occasion: inventory.Occasion(suggestOccasion),
			Count:    a.count(suggestCount),
		})
		if err != nil {
			return err
		}

		if suggestJSON {
			return writeJSON(out, resp)
		}

		if resp.Shortfall != "" {
			fmt.Fprintln(out, shortfallMessage(resp.Shortfall))
			return nil
		}
		fmt.Fprintf(out, "%sOutfits for %s%s %s(%d combinations)%s\n", colorBold, resp.Occasion, colorReset,
			colorDim, resp.Candidates, colorReset)
		renderSuggestions(out, resp.Suggestions, termWidth())

		if suggestWear > 0 {
			return acceptSuggestion(cmd, a, resp, suggestWear-1)
		}
		return nil
	})
}

func acceptSuggestion(cmd *cobra.Command, a *app, resp *engine.Response, index int) error {
	id, err := a.engine.Accept(cmd.Context(), resp, index)
	return reportWear(cmd, id, err)
}

// reportWear prints the outcome of a wear.
func reportWear(cmd *cobra.Command, id int64, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%sLogged outfit #%d%s. Rate it later with: wardrobe rate %d <1-5>\n",
		colorGreen, id, colorReset, id)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// suggestionSource feeds the picker from the engine and remembers each
// tab's response so the chosen outfit can be logged.
type suggestionSource struct {
	engine  *engine.Service
	weather inventory.Weather

	mu        sync.Mutex
	responses map[string]*engine.Response
}

func newSuggestionSource(e *engine.Service, w inventory.Weather) *suggestionSource {
	return &suggestionSource{engine: e, weather: w, responses: make(map[string]*engine.Response)}
}

func (s *suggestionSource) Fetch(ctx context.Context, req picker.Request) (picker.Response, error) {
	w := s.weather
	resp, err := s.engine.Suggest(ctx, engine.Request{
		Weather:  &w,
		Occasion: inventory.Occasion(req.Tab),
		Count:    req.Limit,
	})
	if err != nil {
		return picker.Response{}, err
	}

	s.mu.Lock()
	s.responses[req.Tab] = resp
	s.mu.Unlock()

	out := picker.Response{RequestID: req.RequestID, Note: shortfallMessage(resp.Shortfall)}
	for _, sc := range resp.Suggestions {
		out.Items = append(out.Items, picker.Item{
			Title:  describeOutfit(sc.Candidate),
			Detail: formatBreakdown(sc.Scores),
			Score:  sc.Scores.Final,
		})
	}
	return out, nil
}

func (s *suggestionSource) response(tab string) *engine.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responses[tab]
}

func occasionTabs() []string {
	tabs := make([]string, len(inventory.AllOccasions))
	for i, o := range inventory.AllOccasions {
		tabs[i] = string(o)
	}
	return tabs
}

func runPick(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		src := newSuggestionSource(a.engine, requestWeather(cmd, a))
		model := picker.NewModel(occasionTabs(), src).
			WithTab(string(inventory.ParseOccasion(suggestOccasion))).
			WithLimit(a.count(suggestCount))

		choice, err := picker.Run(model)
		if errors.Is(err, picker.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		return acceptSuggestion(cmd, a, src.response(choice.Tab), choice.Index)
	})
}
