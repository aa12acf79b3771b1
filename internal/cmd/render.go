package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/runger/wardrobe/internal/outfits/candidate"
	"github.com/runger/wardrobe/internal/outfits/history"
	"github.com/runger/wardrobe/internal/outfits/inventory"
	"github.com/runger/wardrobe/internal/outfits/score"
	"github.com/runger/wardrobe/internal/weather"
)

var (
	scoreStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// swatch renders a colored dot for hex, or a blank when there is none.
func swatch(hex string) string {
	if hex == "" {
		return " "
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("●")
}

// describeItem is the one-line label of an item.
func describeItem(it inventory.ClothingItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", it.ID, it.Type)
	if it.ColorPrimary != "" {
		b.WriteString(" " + it.ColorPrimary)
	}
	if it.ColorSecondary != "" {
		b.WriteString("/" + it.ColorSecondary)
	}
	if it.Pattern != "" && it.Pattern != inventory.PatternSolid {
		b.WriteString(" " + string(it.Pattern))
	}
	if it.Formality != "" {
		b.WriteString(" " + string(it.Formality))
	}
	return b.String()
}

// describeOutfit joins the item labels of a candidate in slot order.
func describeOutfit(c candidate.Candidate) string {
	items := c.Items()
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = describeItem(it)
	}
	return strings.Join(parts, " + ")
}

// truncate shortens s to the display width, counting wide runes as two.
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func formatBreakdown(b score.Breakdown) string {
	return fmt.Sprintf("weather %s  color %s  pattern %s  variety %s  formality %s  bonus %+.1f",
		formatScore(b.Weather), formatScore(b.Color), formatScore(b.Pattern),
		formatScore(b.Variety), formatScore(b.Formality), b.Bonus)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// renderSuggestions prints ranked suggestions, numbered from 1.
func renderSuggestions(w io.Writer, suggestions []score.Scored, width int) {
	for i, s := range suggestions {
		fmt.Fprintf(w, "%2d. %s  %s\n", i+1, scoreStyle.Render(formatScore(s.Scores.Final)),
			truncate(describeOutfit(s.Candidate), width-12))
		var swatches []string
		for _, it := range s.Candidate.Items() {
			swatches = append(swatches, swatch(it.ColorPrimary))
		}
		fmt.Fprintf(w, "    %s %s\n", strings.Join(swatches, ""),
			labelStyle.Render(truncate(formatBreakdown(s.Scores), width-10)))
	}
}

// shortfallMessage explains why no outfit could be formed.
func shortfallMessage(s candidate.Shortfall) string {
	switch s {
	case candidate.ShortfallTooFewItems:
		return "Not enough clean clothes to suggest an outfit. Add items or take some out of the laundry."
	case candidate.ShortfallNoBaseOutfit:
		return "No complete outfit possible: add a top and a bottom, or a dress."
	default:
		return ""
	}
}

func formatWeather(r weather.Report) string {
	s := fmt.Sprintf("%s %s %.0f°C", weather.Emoji(r.Condition), r.Condition, r.TempC)
	if r.City != "" {
		s = r.City + ": " + s
	}
	if r.Description != "" && !strings.EqualFold(r.Description, r.Condition) {
		s += " (" + r.Description + ")"
	}
	if r.Stale {
		s += " [cached]"
	}
	return s
}

// relativeDay describes t relative to now in whole days.
func relativeDay(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

func renderHistoryEntry(w io.Writer, e history.Entry, now time.Time, width int) {
	fmt.Fprintf(w, "#%-4d %s  %s %s %.0f°C  %s\n", e.ID, e.WornAt.Local().Format("2006-01-02"),
		e.Occasion, weather.Emoji(e.Weather.Condition), e.Weather.TempC, colorDim+relativeDay(e.WornAt, now)+colorReset)
	labels := make([]string, len(e.Items))
	for i, it := range e.Items {
		labels[i] = describeItem(it)
	}
	if len(labels) == 0 {
		labels = append(labels, "(items removed)")
	}
	fmt.Fprintf(w, "      %s\n", truncate(strings.Join(labels, " + "), width-6))
}
