package cli

import (
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tabletodo/internal/config"
	"github.com/Makepad-fr/tabletodo/internal/devserver"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		backing string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a local table over the PostgREST API for development",
		Long: `Serve a local table at /rest/v1/<table> speaking the subset of PostgREST the
client uses, so "todo ls" can run without a hosted project:

  todo serve --store json &
  TADA_URL=http://localhost:54321 todo ls

The apikey is checked only when serve.key (TADA_SERVE_KEY) is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if backing == config.BackendREST {
				return usage("serve: --store must be a local backend (json, sqlite or memory)")
			}
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.ServeAddr
			}
			table, err := a.openTable(cmd.Context(), backing)
			if err != nil {
				return failure("open table: %w", err)
			}
			srv := devserver.New(table, devserver.Config{
				Table:  a.cfg.Table,
				APIKey: a.cfg.ServeKey,
				Logger: a.logger(true),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()
			err = srv.ListenAndServe(ctx, addr, func(bound net.Addr) {
				fmt.Fprintf(out, "Table %q served on http://%s%s\n", a.cfg.Table, bound, "/rest/v1/"+a.cfg.Table)
				fmt.Fprintln(out, "Press Ctrl+C to stop...")
			})
			if err != nil {
				return failure("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":54321", "listen address")
	cmd.Flags().StringVar(&backing, "store", config.BackendMemory, "backing table: json, sqlite or memory")
	return cmd
}
