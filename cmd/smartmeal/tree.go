package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/aretw0/smartmeal/internal/presentation/graph"
	"github.com/aretw0/smartmeal/internal/seed"
	"github.com/aretw0/smartmeal/pkg/tree"
)

var treeCmd = &cobra.Command{
	Use:   "tree [file]",
	Short: "Inspect a decision tree definition",
	Long: `Loads a decision tree (YAML or JSON) and prints its structure as text, JSON
or a Mermaid flowchart. Without a file the built-in tree is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		validateOnly, _ := cmd.Flags().GetBool("validate")

		t, err := loadTree(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		s := t.Structure()

		if validateOnly {
			fmt.Fprintf(out, "✓ tree is valid: %d nodes, %d terminals, depth %d\n", s.TotalNodes, s.Terminals, s.Depth)
			return nil
		}

		switch format {
		case "mermaid":
			fmt.Fprintln(out, graph.GenerateMermaid(s, nil))
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		case "text", "":
			printStructure(out, s.Root, 0)
		default:
			return fmt.Errorf("unknown format %q (want text, json or mermaid)", format)
		}
		return nil
	},
}

func loadTree(args []string) (*tree.Tree, error) {
	if len(args) == 1 {
		return tree.LoadFile(args[0])
	}
	def, err := tree.Parse(seed.TreeYAML, "yaml")
	if err != nil {
		return nil, err
	}
	return tree.New(def)
}

func printStructure(w io.Writer, n tree.StructureNode, depth int) {
	indent := strings.Repeat("  ", depth)
	if len(n.Ingredients) > 0 {
		fmt.Fprintf(w, "%s- %s [%s] %v\n", indent, n.Title, n.ID, n.Ingredients)
	} else {
		fmt.Fprintf(w, "%s- %s [%s]\n", indent, n.Title, n.ID)
	}
	for _, c := range n.Children {
		printStructure(w, c, depth+1)
	}
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().String("format", "text", "Output format: text, json or mermaid")
	treeCmd.Flags().Bool("validate", false, "Only validate the definition")
}
