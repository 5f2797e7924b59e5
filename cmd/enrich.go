package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-finder/internal/enrich"
)

var (
	enrichSel       leadSelector
	enrichThreshold string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [lead-id...]",
	Short: "Fill secondary attributes of stored leads",
	Long:  "Enriches the selected leads with one generative call, falling back to local data, and saves them back.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sel := enrichSel
		sel.IDs = append(sel.IDs, args...)
		if sel.empty() {
			return eris.New("give lead ids or --query")
		}

		th := enrichThreshold
		if th == "" {
			th = cfg.Enrich.DefaultThreshold
		}
		threshold, err := enrich.ParseThreshold(th)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		leads, err := sel.load(ctx, env.Gateway)
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			return eris.New("no matching leads")
		}

		res, err := env.Enricher.Enrich(ctx, leads, threshold)
		if err != nil {
			return eris.Wrap(err, "enrich")
		}
		saved, err := env.Gateway.Save(ctx, res.Leads)
		if err != nil {
			return eris.Wrap(err, "save enriched leads")
		}
		res.Leads = saved.Saved

		fmt.Fprintf(os.Stderr, "enriched %d leads (%d by model, %d locally) at %s confidence\n",
			len(res.Leads), res.AI, res.Local, res.Threshold)
		return render(cmd.OutOrStdout(), res, func() *table.Table { return leadTable(res.Leads) })
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichSel.Query, "query", "", "enrich stored leads matching this text")
	enrichCmd.Flags().IntVar(&enrichSel.Limit, "limit", 25, "maximum leads selected by --query")
	enrichCmd.Flags().BoolVar(&enrichSel.Synthetic, "include-synthetic", false, "include synthetic leads in --query")
	enrichCmd.Flags().StringVar(&enrichThreshold, "threshold", "", "confidence tier: high, medium or low (default from config)")
	rootCmd.AddCommand(enrichCmd)
}
