package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-finder/internal/export"
	"github.com/sells-group/lead-finder/internal/store"
	"github.com/sells-group/lead-finder/pkg/notion"
	"github.com/sells-group/lead-finder/pkg/salesforce"
)

var (
	exportTo   string
	exportSel  leadSelector
	exportTags []string
)

var exportCmd = &cobra.Command{
	Use:   "export [lead-id...]",
	Short: "Push stored leads to Notion or Salesforce",
	RunE: func(cmd *cobra.Command, args []string) error {
		sel := exportSel
		sel.IDs = append(sel.IDs, args...)
		if sel.empty() {
			return eris.New("give lead ids or --query")
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}
		sink, err := newSink(exportTo)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		leads, err := sel.load(ctx, store.NewGateway(st))
		if err != nil {
			return err
		}

		n, err := sink.Export(ctx, leads)
		fmt.Fprintf(os.Stderr, "exported %d of %d leads to %s\n", n, len(leads), sink.Name())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), map[string]any{"sink": sink.Name(), "exported": n, "selected": len(leads)}, nil)
	},
}

// newSink builds the named export target from config.
func newSink(name string) (export.Sink, error) {
	switch name {
	case "notion":
		if cfg.Notion.Token == "" {
			return nil, eris.New("notion.token is required")
		}
		if cfg.Notion.SubscriberDB == "" {
			return nil, eris.New("notion.subscriber_db is required")
		}
		return export.NewNotionSink(notion.NewClient(cfg.Notion.Token), cfg.Notion.SubscriberDB, exportTags), nil
	case "salesforce":
		if cfg.Salesforce.KeyPath == "" {
			return nil, eris.New("salesforce.key_path is required")
		}
		pem, err := os.ReadFile(cfg.Salesforce.KeyPath)
		if err != nil {
			return nil, eris.Wrap(err, "read salesforce private key")
		}
		client, err := salesforce.DialJWT(salesforce.JWTCreds{
			LoginURL:   cfg.Salesforce.LoginURL,
			Username:   cfg.Salesforce.Username,
			ClientID:   cfg.Salesforce.ClientID,
			PrivateKey: string(pem),
		}, salesforce.WithRateLimit(10))
		if err != nil {
			return nil, err
		}
		return export.NewSalesforceSink(client), nil
	default:
		return nil, eris.Errorf("unknown export target %q (want notion or salesforce)", name)
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportTo, "to", "notion", "export target: notion or salesforce")
	exportCmd.Flags().StringVar(&exportSel.Query, "query", "", "export stored leads matching this text")
	exportCmd.Flags().IntVar(&exportSel.Limit, "limit", 100, "maximum leads selected by --query")
	exportCmd.Flags().BoolVar(&exportSel.Synthetic, "include-synthetic", false, "include synthetic leads in --query")
	exportCmd.Flags().StringSliceVar(&exportTags, "tags", nil, "Notion tags for exported pages")
	rootCmd.AddCommand(exportCmd)
}
