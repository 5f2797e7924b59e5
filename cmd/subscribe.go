package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/store"
)

var (
	subscribeSel  leadSelector
	subscribeTags []string

	subscribersTag    string
	subscribersStatus string
	subscribersLimit  int
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe [lead-id...]",
	Short: "Add stored leads to the subscriber list",
	RunE: func(cmd *cobra.Command, args []string) error {
		sel := subscribeSel
		sel.IDs = append(sel.IDs, args...)
		if sel.empty() {
			return eris.New("give lead ids or --query")
		}
		if err := cfg.Validate("import"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		gw := store.NewGateway(st)

		leads, err := sel.load(ctx, gw)
		if err != nil {
			return err
		}
		subs := make([]model.Subscriber, len(leads))
		for i, l := range leads {
			subs[i] = model.SubscriberFromLead(l, subscribeTags)
		}

		saved, rejected, err := gw.SaveSubscribers(ctx, subs)
		if err != nil {
			return eris.Wrap(err, "save subscribers")
		}
		return render(cmd.OutOrStdout(), map[string]any{"saved": saved, "rejected": rejected}, nil)
	},
}

var subscribersCmd = &cobra.Command{
	Use:   "subscribers",
	Short: "List subscribers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("import"); err != nil {
			return err
		}
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		subs, err := store.NewGateway(st).Subscribers(ctx, store.SubscriberFilter{
			Tag:    subscribersTag,
			Status: subscribersStatus,
			Limit:  subscribersLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list subscribers")
		}
		return render(cmd.OutOrStdout(), subs, func() *table.Table { return subscriberTable(subs) })
	},
}

func subscriberTable(subs []model.Subscriber) *table.Table {
	t := newTable("EMAIL", "FIRST", "LAST", "STATUS", "TAGS")
	for _, s := range subs {
		t.Row(s.Email, s.FirstName, s.LastName, s.Status, strings.Join(s.Tags, ", "))
	}
	return t
}

func init() {
	subscribeCmd.Flags().StringVar(&subscribeSel.Query, "query", "", "subscribe stored leads matching this text")
	subscribeCmd.Flags().IntVar(&subscribeSel.Limit, "limit", 50, "maximum leads selected by --query")
	subscribeCmd.Flags().StringSliceVar(&subscribeTags, "tags", nil, "tags for the new subscribers")
	rootCmd.AddCommand(subscribeCmd)

	subscribersCmd.Flags().StringVar(&subscribersTag, "tag", "", "only subscribers with this tag")
	subscribersCmd.Flags().StringVar(&subscribersStatus, "status", "", "only subscribers with this status")
	subscribersCmd.Flags().IntVar(&subscribersLimit, "limit", 100, "maximum subscribers listed")
	rootCmd.AddCommand(subscribersCmd)
}
