package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/dealprep/pkg/observability"
	"github.com/matzehuels/dealprep/pkg/server"
)

// serveCommand creates the serve command that exposes the service over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the aggregation API for the browser UI",
		Long: `Serve the aggregation API over HTTP until interrupted.

Routes:
  GET /healthz
  GET /api/v1/{provider}?q=...        openai, builtwith, news, scrape
  GET /api/v1/brief?company=...&domain=...
  GET /api/v1/environment             PUT to switch: {"name": "production"}
  GET /api/v1/stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			counters := observability.NewCounters()
			svc, cfg, err := c.newService(ctx, counters)
			if err != nil {
				return err
			}
			defer svc.Close()

			if addr == "" {
				addr = cfg.Server.Addr
			}
			srv := server.New(svc, server.Options{Counters: counters, Logger: logger})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}
