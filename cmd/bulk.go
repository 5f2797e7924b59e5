package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-finder/internal/finder"
	"github.com/sells-group/lead-finder/internal/model"
)

var (
	bulkFile      string
	bulkBatchSize int
	bulkPause     time.Duration
	bulkLimit     int
	bulkFilters   model.Filters
)

var bulkCmd = &cobra.Command{
	Use:   "bulk [domain...]",
	Short: "Find leads for many company domains",
	Long:  "Searches each domain in concurrent batches with a pause between batches. Domains come from args or --file (- for stdin).",
	RunE: func(cmd *cobra.Command, args []string) error {
		domains := args
		if bulkFile != "" {
			var r io.Reader = cmd.InOrStdin()
			if bulkFile != "-" {
				f, err := os.Open(bulkFile)
				if err != nil {
					return eris.Wrap(err, "open domains file")
				}
				defer f.Close() //nolint:errcheck
				r = f
			}
			fromFile, err := readDomains(r)
			if err != nil {
				return err
			}
			domains = append(domains, fromFile...)
		}
		if len(domains) == 0 {
			return eris.New("no domains given")
		}
		if err := checkLimit(bulkLimit); err != nil {
			return err
		}

		env, err := initEnv(cmd.Context(), "search")
		if err != nil {
			return err
		}
		defer env.Close()

		opts := finder.BulkOptions{
			BatchSize: cfg.Finder.BulkBatchSize,
			Pause:     cfg.Finder.BulkPause,
			Filters:   bulkFilters,
			Limit:     bulkLimit,
			Progress: func(done, total int, percent float64) {
				fmt.Fprintf(os.Stderr, "\r%d/%d domains (%.0f%%)", done, total, percent)
				if done == total {
					fmt.Fprintln(os.Stderr)
				}
			},
		}
		if bulkBatchSize > 0 {
			opts.BatchSize = bulkBatchSize
		}
		if cmd.Flags().Changed("pause") {
			opts.Pause = bulkPause
		}

		res, err := env.Finder.SearchDomains(cmd.Context(), domains, opts)
		if res != nil {
			if rerr := render(cmd.OutOrStdout(), res, func() *table.Table { return bulkTable(res) }); rerr != nil {
				return rerr
			}
		}
		if err != nil {
			return eris.Wrap(err, "bulk search")
		}
		return nil
	},
}

// readDomains reads one domain per line, skipping blanks and # comments.
func readDomains(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "read domains")
	}
	return out, nil
}

func bulkTable(res *finder.BulkResult) *table.Table {
	t := newTable("DOMAIN", "LEADS", "SOURCE", "ERROR")
	for _, d := range res.Domains {
		n, src := 0, ""
		if d.Result != nil {
			n, src = len(d.Result.Leads), d.Result.Source
		}
		t.Row(d.Domain, strconv.Itoa(n), src, d.Error)
	}
	return t
}

func init() {
	bulkCmd.Flags().StringVar(&bulkFile, "file", "", "file with one domain per line (- for stdin)")
	bulkCmd.Flags().IntVar(&bulkBatchSize, "batch-size", 0, "domains searched concurrently (default from config)")
	bulkCmd.Flags().DurationVar(&bulkPause, "pause", 0, "pause between batches (default from config)")
	bulkCmd.Flags().IntVar(&bulkLimit, "limit", 0, "maximum leads per domain")
	addFilterFlags(bulkCmd, &bulkFilters)
	rootCmd.AddCommand(bulkCmd)
}
