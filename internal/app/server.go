package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start binds the HTTP listener and serves in the background. The returned
// channel is closed once a termination signal arrives.
func (a *App) Start() <-chan struct{} {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		slog.Error("failed to bind http listener", "address", a.httpServer.Addr, "error", err)
		os.Exit(1)
	}

	go func() {
		slog.Info("http server listening", "address", ln.Addr().String())

		if err := a.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	done := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		s := <-sig
		slog.Info("termination signal received", "signal", s.String())
		close(done)
	}()

	return done
}

// Stop drains the service. Background jobs are cancelled first so the
// maintenance watch cannot reopen the router, then new requests get 503
// while in-flight ones finish, and resources close last.
func (a *App) Stop(ctx context.Context) {
	started := time.Now()

	if a.cancel != nil {
		a.cancel()
	}

	a.router.SetMaintenance(true)

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to drain http server", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background job finished with error", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", closer.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application stopped", "took", time.Since(started).String())
}
