package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/importer"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/store"
)

var (
	importTags   []string
	importStatus string
	importDryRun bool
)

type importReport struct {
	Summary  *importer.Summary `json:"summary"`
	Saved    int               `json:"saved"`
	Rejected []store.Rejection `json:"rejected,omitempty"`
	DryRun   bool              `json:"dryRun,omitempty"`
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv|file.xlsx>",
	Short: "Import a subscriber list",
	Long:  "Reads a CSV (comma, tab or semicolon separated) or XLSX subscriber list with a header row and upserts the subscribers by email.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		f, err := os.Open(path)
		if err != nil {
			return eris.Wrap(err, "open import file")
		}
		defer f.Close() //nolint:errcheck

		opts := importer.Options{Tags: importTags, Status: importStatus}
		var (
			summary *importer.Summary
			subs    []model.Subscriber
		)
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			summary, subs, err = importer.ImportXLSX(ctx, f, opts)
		} else {
			summary, subs, err = importer.ImportCSV(ctx, f, opts)
		}
		if err != nil {
			return err
		}

		report := importReport{Summary: summary, DryRun: importDryRun}
		if !importDryRun {
			if err := cfg.Validate("import"); err != nil {
				return err
			}
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			report.Saved, report.Rejected, err = store.NewGateway(st).SaveSubscribers(ctx, subs)
			if err != nil {
				return eris.Wrap(err, "save subscribers")
			}
		}

		fmt.Fprintf(os.Stderr, "%d rows: %d valid, %d failed, %d saved\n",
			summary.Total, summary.Success, summary.Failed, report.Saved)
		zap.L().Info("import complete",
			zap.String("file", path),
			zap.Int("success", summary.Success),
			zap.Int("failed", summary.Failed),
			zap.Int("saved", report.Saved),
		)
		return render(cmd.OutOrStdout(), report, func() *table.Table { return rowErrorTable(summary) })
	},
}

func rowErrorTable(s *importer.Summary) *table.Table {
	t := newTable("ROW", "EMAIL", "REASON")
	for _, e := range s.Errors {
		t.Row(strconv.Itoa(e.Row), e.Email, e.Reason)
	}
	return t
}

func init() {
	importCmd.Flags().StringSliceVar(&importTags, "tags", nil, "tags added to every subscriber")
	importCmd.Flags().StringVar(&importStatus, "status", "", "status for rows without one (default active)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse and report without saving")
	rootCmd.AddCommand(importCmd)
}
