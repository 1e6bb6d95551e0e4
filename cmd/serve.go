package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/api"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/auth"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (overrides TAT_PORT)")
}

// @title        tat API
// @version      1.0
// @description  Daily check-in/check-out tracking of children with period recaps.
// @BasePath     /api
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx, false)
	if err != nil {
		return err
	}
	defer e.Close()

	port := e.cfg.Server.Port
	if servePort != "" {
		port = servePort
	}

	app := api.NewApp(e.svc, e.logger, api.Options{
		AllowedOrigins: e.cfg.Server.AllowedOrigins,
		Policy:         auth.FromKey(e.cfg.Server.APIKey, e.logger),
		AccessLog:      true,
	})

	errc := make(chan error, 1)
	go func() {
		e.logger.Info("listening",
			slog.String("port", port),
			slog.String("store", e.cfg.Store.Driver),
			slog.Bool("redis_cache", e.cfg.Cache.RedisAddr != ""))
		errc <- app.Listen(":" + port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	e.logger.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
