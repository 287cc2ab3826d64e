package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewire/internal/server"
	"github.com/matzehuels/nodewire/pkg/observability"
	"github.com/matzehuels/nodewire/pkg/observability/prom"
)

// serveCommand creates the "serve" command, which exposes one editing
// session over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		open      string
		noMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an editing session over HTTP",
		Long: `Serve an editing session over HTTP.

The session starts empty, or from --open. Prometheus metrics are served at
/metrics unless --no-metrics is set. Stop the server with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			var opts server.Options
			opts.Logger = loggerFromContext(ctx)
			if !noMetrics {
				collector := prom.NewCollector(appName)
				collector.Install()
				defer observability.Reset()
				opts.Metrics = collector
			}

			s, err := c.openSession(ctx, open, sessionOptions{create: open == ""})
			if err != nil {
				return err
			}
			defer s.Close()

			printInfo("Session %s", StyleHighlight.Render(s.ed.ID()))
			printKeyValue("Address", addr)
			if opts.Metrics != nil {
				printKeyValue("Metrics", addr+"/metrics")
			}
			return server.New(s.ed, opts).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&open, "open", "", "start from this document")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint and hooks")
	return cmd
}
