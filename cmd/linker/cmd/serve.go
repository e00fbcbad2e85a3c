package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"trade-journal-linker/internal/handler"
	"trade-journal-linker/internal/sweep"
	apperrors "trade-journal-linker/pkg/errors"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled auto-link sweep",
		Long: `Serve exposes link suggestions, manual linking and bulk linking over HTTP.
When sweep.enabled is set, unlinked entries are also auto-linked on the
configured schedule. The server stops cleanly on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handler.NewRouter(a.log,
		&handler.HealthHandler{Store: a.store},
		&handler.LinkHandler{Linker: a.linker},
		&handler.TickerHandler{},
	)

	runner := sweep.NewRunner(a.log, ctx)
	sweeper := sweep.New(a.store, a.linker, a.cfg.Sweep, a.log)
	if err := sweeper.Register(runner); err != nil {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "sweep.schedule", a.cfg.Sweep.Schedule, err)
	}
	runner.Start()
	defer runner.Stop()

	srv := &http.Server{
		Addr:              a.cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return apperrors.NetworkError(apperrors.CodeServerFailed, srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return apperrors.NetworkError(apperrors.CodeTimeout, srv.Addr, err)
	}
	return nil
}
