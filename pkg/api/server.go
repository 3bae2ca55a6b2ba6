package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Serve runs handler on cfg.Addr until ctx is done, then shuts down
// gracefully within cfg.ShutdownTimeout.
func Serve(ctx context.Context, cfg Config, handler http.Handler, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.LogAttrs(ctx, slog.LevelInfo, "http server started",
		logger.Component("api"),
		slog.String("addr", cfg.Addr),
	)

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		timeout := cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return errors.Join(ErrShutdown, err)
		}
		runErr = <-errCh
		log.LogAttrs(ctx, slog.LevelInfo, "http server stopped", logger.Component("api"))
	}

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		return errors.Join(ErrStart, runErr)
	}
	return nil
}
