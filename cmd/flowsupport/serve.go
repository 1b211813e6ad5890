package main

import (
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/flowsupport/internal/adapters/tui"
	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
	httpserver "github.com/0xcro3dile/flowsupport/internal/infrastructure/http"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser chat UI and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ag, store, closeFn, err := a.agent(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := httpserver.NewServer(ag, store, addr)
			srv.SetQueryLimit(a.cfg.Server.QueryRate, a.cfg.Server.QueryBurst)
			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ag, _, closeFn, err := a.agent(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			model := tui.New(ctx, ag, entities.NewSession(uuid.NewString()))
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}
