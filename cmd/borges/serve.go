package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/borges/server"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		addr    string
		noStore bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the codec over Connect",
		Long: `Serve starts the CodecService. Requests are CBOR-encoded Connect
unary calls under /borges.v1.CodecService/. Save and Load use the
snapshot store unless --no-store is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			var opts []server.ServerOption
			if !noStore {
				st, err := c.openStore(cmd)
				if err != nil {
					return err
				}
				defer st.Close()
				opts = append(opts, server.WithStore(st))
			}

			srv := server.New(opts...)
			defer srv.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr, 5*time.Second)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: [server] addr from config)")
	cmd.Flags().String("db", "", "snapshot database (default: [store] path from config)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "serve without a snapshot store")
	return cmd
}
