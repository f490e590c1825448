package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/smartmeal/internal/cli"
	"github.com/aretw0/smartmeal/internal/presentation/tui"
)

var searchCmd = &cobra.Command{
	Use:   "search <ingredient> [ingredient...]",
	Short: "Classify the catalog against the ingredients you have",
	Example: `  smartmeal search tomato pasta basil
  smartmeal search "olive oil,garlic" --threshold 0.5 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		asJSON, _ := cmd.Flags().GetBool("json")

		eng, err := cli.NewEngine(cmd.Context(), cfg, logger, nil)
		if err != nil {
			return err
		}
		defer eng.Close(cmd.Context())

		set, err := eng.Search(cmd.Context(), splitIngredients(args), threshold)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(set)
		}

		render := tui.Plain
		if term.IsTerminal(int(os.Stdout.Fd())) {
			render = tui.NewRenderer()
		}
		out, err := render(tui.MatchMarkdown(set))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

// splitIngredients accepts both separate arguments and comma separated lists.
func splitIngredients(args []string) []string {
	var out []string
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Float64("threshold", 0, "Near-complete threshold in (0,1]; 0 uses match.threshold")
	searchCmd.Flags().Bool("json", false, "Print the classification as JSON")
}
