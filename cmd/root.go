package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/config"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/storage"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

var rootCmd = &cobra.Command{
	Use:   "tat",
	Short: "Trivial Attendance Tracker – daily check-in/check-out of children",
	Long: `tat records when children are checked in and out of care and prints
period recaps. Run "tat serve" for the HTTP API; every other command works
directly on the configured store (~/.tat by default).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(childrenCmd)
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(recapCmd)
	rootCmd.AddCommand(exportCmd)
}

// exitCode is 1 for errors the user can fix and 2 for storage failures.
func exitCode(err error) int {
	switch {
	case model.IsValidation(err),
		errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrOpenIntervalConflict):
		return 1
	case errors.Is(err, model.ErrStoreUnavailable):
		return 2
	default:
		return 1
	}
}

// env is what a command needs to talk to the store.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	store  storage.Store
	svc    *tracker.Service
}

// openEnv loads the configuration and opens the store. Callers must Close.
// Quiet turns the default info level into warn so one-shot commands only
// print their own output; an explicit debug level is kept.
func openEnv(ctx context.Context, quiet bool) (*env, error) {
	base, err := storage.BaseDir()
	if err != nil {
		return nil, model.Unavailable("resolving data directory", err)
	}
	cfg, err := config.Load(base)
	if err != nil {
		return nil, err
	}
	if quiet && parseLevel(cfg.Log.Level) == slog.LevelInfo {
		cfg.Log.Level = "warn"
	}
	logger := newLogger(cfg.Log, os.Stderr)
	st, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		store:  st,
		svc:    tracker.New(st, logger, time.Now),
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("closing store", slog.Any("error", err))
	}
}

// withService runs fn against a freshly opened store.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *tracker.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx, true)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(ctx, e.svc)
}

// newLogger builds the slog logger described by cfg.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
