package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the SmartMeal banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{`  ___                _   __  __          _ `, "#4ade80"},
		{` / __|_ __  __ _ _ _| |_|  \/  |___ __ _| |`, "#a3e635"},
		{` \__ \ '  \/ _' | '_|  _| |\/| / -_) _' | |`, "#facc15"},
		{` |___/_|_|_\__,_|_|  \__|_|  |_\___\__,_|_|`, "#fb923c"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
