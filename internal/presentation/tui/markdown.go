package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// NodeMarkdown describes the session's current position: breadcrumb, question
// or recommendation, and numbered options.
func NodeMarkdown(snap domain.SessionSnapshot) string {
	var sb strings.Builder
	if len(snap.Path) > 1 {
		fmt.Fprintf(&sb, "_%s_\n\n", strings.Join(snap.Path, " › "))
	}
	if snap.Node == nil {
		sb.WriteString("_No question loaded._\n")
		return sb.String()
	}

	n := snap.Node
	title := n.Title
	if n.Icon != "" {
		title = n.Icon + " " + title
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if n.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", n.Description)
	}

	if n.Terminal() {
		sb.WriteString("**You will need:**\n\n")
		for _, ing := range n.Ingredients {
			fmt.Fprintf(&sb, "- %s\n", ing)
		}
		return sb.String()
	}
	for i, o := range n.Options {
		label := o.Title
		if o.Icon != "" {
			label = o.Icon + " " + label
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, label)
	}
	return sb.String()
}

// ErrorMarkdown explains a failed operation, mentioning a scheduled recovery.
func ErrorMarkdown(snap domain.SessionSnapshot) string {
	msg := fmt.Sprintf("> **Something went wrong** (%s)", snap.LastError)
	if snap.LastErrorText != "" {
		msg += ": " + snap.LastErrorText
	}
	msg += "\n"
	if snap.RecoveryPending {
		msg += ">\n> Returning to the first question shortly.\n"
	}
	return msg
}

// MatchMarkdown lists a search result by classification.
func MatchMarkdown(set domain.MatchSet) string {
	var sb strings.Builder
	section := func(title string, results []domain.MatchResult) {
		if len(results) == 0 {
			return
		}
		fmt.Fprintf(&sb, "## %s\n\n", title)
		for _, r := range results {
			fmt.Fprintf(&sb, "- **%s** %d%% (%d/%d)", r.Recipe.Name, r.Score, r.Available, r.Total)
			if len(r.Missing) > 0 {
				fmt.Fprintf(&sb, ", missing: %s", strings.Join(r.Missing, ", "))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	section("Ready to cook", set.Complete)
	section("Almost there", set.NearComplete)
	section("Needs shopping", set.Incomplete)
	if set.Len() == 0 {
		sb.WriteString("_No recipes found._\n")
	}
	return sb.String()
}

// DishesMarkdown renders the dish cross-check as a table.
func DishesMarkdown(dishes []domain.DishMatch) string {
	if len(dishes) == 0 {
		return "_No dish in the catalog uses these ingredients._\n"
	}
	var sb strings.Builder
	sb.WriteString("## Dishes from the catalog\n\n")
	sb.WriteString("| Dish | Match | Price | Rating |\n|---|---|---|---|\n")
	for _, d := range dishes {
		fmt.Fprintf(&sb, "| %s | %d%% | %.2f | %d |\n", d.Name, d.MatchPercent, d.Price, d.Rating)
	}
	return sb.String()
}
