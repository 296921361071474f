package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ashureev/briefbot/internal/config"
	"github.com/ashureev/briefbot/internal/wizard"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Validate and print the wizard step table",
	Long: `Load the wizard (built-in, WIZARD_FILE or --file), validate it and
print every step with its successors. Exits non-zero on an invalid graph.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			path = cfg.WizardFile
		}
		g, err := loadGraph(path)
		if err != nil {
			return err
		}
		return printGraph(g)
	},
}

func init() {
	graphCmd.Flags().StringP("file", "f", "", "YAML wizard file to check")
}

func printGraph(g *wizard.Graph) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTEP\tKIND\tFIELD\tNEXT")
	for _, s := range g.Steps {
		pos, total := g.Position(s.ID)
		num := "-"
		if pos > 0 {
			num = fmt.Sprintf("%d/%d", pos, total)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", num, s.ID, s.Kind, s.Field, successors(s))
	}
	return w.Flush()
}

func successors(s *wizard.Step) string {
	if s.Terminal {
		return "(finish)"
	}
	parts := []string{s.Next}
	values := make([]string, 0, len(s.Routes))
	for v := range s.Routes {
		values = append(values, v)
	}
	sort.Strings(values)
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%q→%s", v, s.Routes[v]))
	}
	return strings.Join(parts, ", ")
}
