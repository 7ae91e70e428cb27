// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/tensorchat/internal/devserver"
)

func (a *App) devserverCommand() *cobra.Command {
	var (
		addr    string
		origins []string
		window  int
	)
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run the reference chat backend locally",
		Long: `Run a small in-memory backend that implements the chat, upload,
remove and status endpoints. Replies echo the message together with the
attached document, which is enough to exercise the client end to end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := devserver.DefaultConfig()
			cfg.AllowedOrigins = a.Config.DevServer.AllowedOrigins
			if len(origins) > 0 {
				cfg.AllowedOrigins = origins
			}
			if window > 0 {
				cfg.HistoryWindow = window
			}
			maxSize, err := a.Config.Attachment.MaxSizeBytes()
			if err != nil {
				return &ConfigError{Err: err}
			}
			if maxSize > 0 {
				cfg.MaxUploadSize = maxSize
			}

			if addr == "" {
				addr = a.Config.DevServer.Addr
			}
			srv, err := devserver.New(cfg, a.Logger)
			if err != nil {
				return err
			}
			a.Logger.Info("reference backend starting",
				zap.String("addr", addr),
				zap.Strings("origins", cfg.AllowedOrigins))
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, e.g. 127.0.0.1:5001)")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "allowed CORS origin, repeatable")
	cmd.Flags().IntVar(&window, "history", 0, "exchanges remembered per session")
	return cmd
}
