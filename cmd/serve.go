package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-finder/internal/enrich"
	"github.com/sells-group/lead-finder/internal/finder"
	"github.com/sells-group/lead-finder/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lead API over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		th, err := enrich.ParseThreshold(cfg.Enrich.DefaultThreshold)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv := server.New(server.Deps{
			Finder:   env.Finder,
			Enricher: env.Enricher,
			Gateway:  env.Gateway,
			Health:   env.Store,
		}, server.Options{
			Token:            cfg.Server.APIToken,
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			RatePerSecond:    cfg.Server.RatePerSecond,
			RateBurst:        cfg.Server.RateBurst,
			DefaultThreshold: th,
			MaxLimit:         cfg.Finder.MaxLimit,
			Bulk: finder.BulkOptions{
				BatchSize: cfg.Finder.BulkBatchSize,
				Pause:     cfg.Finder.BulkPause,
			},
		})
		return srv.ListenAndServe(ctx, cfg.Server.Port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
