package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-finder/internal/model"
)

var (
	searchDomain  string
	searchLimit   int
	searchFilters model.Filters
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Find leads for a query or a company domain",
	Long: "Runs the fallback chain: stored leads, then web scraping, then the generative model, " +
		"then synthetic data. The first source with results wins and new leads are saved.",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := buildQuery(args)
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context(), "search")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Finder.Search(cmd.Context(), q)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		fmt.Fprintf(os.Stderr, "%d leads from %s (%d sources tried)\n", len(res.Leads), res.Source, len(res.Attempts))
		if res.SaveErr != "" {
			fmt.Fprintf(os.Stderr, "warning: leads were not saved: %s\n", res.SaveErr)
		}
		return render(cmd.OutOrStdout(), res, func() *table.Table { return leadTable(res.Leads) })
	},
}

// buildQuery assembles the query from args and flags.
func buildQuery(args []string) (model.Query, error) {
	q := model.Query{
		Text:    strings.TrimSpace(strings.Join(args, " ")),
		Domain:  strings.TrimSpace(searchDomain),
		Filters: searchFilters,
		Limit:   searchLimit,
	}
	if q.Text == "" && q.Domain == "" {
		return q, eris.New("a query or --domain is required")
	}
	return q, checkLimit(q.Limit)
}

// checkLimit rejects a --limit that is negative or above finder.max_limit.
func checkLimit(n int) error {
	if n < 0 {
		return eris.New("--limit must not be negative")
	}
	if cfg != nil && cfg.Finder.MaxLimit > 0 && n > cfg.Finder.MaxLimit {
		return eris.Errorf("--limit must be at most %d (finder.max_limit)", cfg.Finder.MaxLimit)
	}
	return nil
}

func addFilterFlags(cmd *cobra.Command, f *model.Filters) {
	cmd.Flags().StringVar(&f.Industry, "industry", "", "keep leads in this industry")
	cmd.Flags().StringVar(&f.JobTitle, "title", "", "keep leads whose title contains this")
	cmd.Flags().StringVar(&f.Location, "location", "", "keep leads in this location")
	cmd.Flags().StringVar(&f.CompanySize, "size", "", "keep leads at companies of this size")
}

func init() {
	searchCmd.Flags().StringVar(&searchDomain, "domain", "", "search one company website instead of free text")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum leads (default from config)")
	addFilterFlags(searchCmd, &searchFilters)
	rootCmd.AddCommand(searchCmd)
}
