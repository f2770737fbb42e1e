package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wavepeak-cli/internal/logging"
	"github.com/KaramelBytes/wavepeak-cli/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve extremum lookups over HTTP",
	Long: `Starts an HTTP API:
  GET /health
  GET /v1/extremum?country=<name>|province=<name>[&mode=highest|lowest][&url=<dataset>][&format=json|text|markdown|raw]
  GET /v1/units[?kind=country|province][&url=<dataset>]`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		addr := c.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		svc, closeFn, err := newService(c)
		if err != nil {
			return err
		}
		defer closeFn()

		logger := logging.Global().With("component", "server")
		app := server.NewApp(server.New(svc, logger, c.DatasetURL, renderOptions(c)))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(os.Stderr, "✓ Listening on %s\n", addr)
		logger.Info("server starting", "addr", addr, "cache_backend", c.CacheBackend)
		return server.Run(ctx, app, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: config server_addr)")
}
