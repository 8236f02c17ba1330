package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fixme-backend/internal/shared/config"
	"fixme-backend/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

// Run serves the API on cfg.Addr() until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, cfg config.Config) error {
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(cfg, nil),
		ReadHeaderTimeout: 15 * time.Second,
		// Uploads and the remote call both fit inside the write window.
		WriteTimeout: cfg.AnalysisTimeout + 60*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{
			"addr":              httpServer.Addr,
			"env":               cfg.Env,
			"openai_configured": cfg.OpenAIConfigured(),
		})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	telemetry.Info("server.shutdown", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	telemetry.Info("server.stopped", nil)
	return nil
}
