package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"stagegate/internal/bootstrap"
	"stagegate/internal/bootstrap/logging"
	"stagegate/internal/errs"
	"stagegate/internal/transport/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.Server.Addr
		}

		if app.Config.Metrics.Watch {
			watchCtx, cancelWatch := context.WithCancel(ctx)
			defer cancelWatch()
			go func() {
				if err := svcs.Resolver.Watch(watchCtx); err != nil {
					logging.Warn(ctx, "metric source watch unavailable", slog.Any("err", errs.Loggable(err)))
				}
			}()
		}

		server := &http.Server{
			Addr:    addr,
			Handler: httpapi.NewRouter(svcs.Gate, svcs.Signoff),
		}

		logging.Info(ctx, "http server started", slog.String("addr", addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx, "http server failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "serve http api")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: server.addr from config)")
}
