package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-fragments/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured blocks over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, c, err := root.load()
			if err != nil {
				return err
			}
			blocks, err := cfg.NewBlocks(c, root.logger)
			if err != nil {
				return err
			}

			srv, err := server.New(blocks,
				server.WithLogger(root.logger),
				server.WithTheme(cfg.Theme.RendererConfig()),
			)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = cfg.Server.Addr
			}
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr, then "+server.DefaultAddr+")")
	return cmd
}
