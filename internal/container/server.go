package container

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gocausal/internal"
	"gocausal/internal/config"
)

// Serve wires the application and serves HTTP on cfg.Server.Port until ctx is done
func Serve(ctx context.Context, cfg *config.Config, logger *internal.Logger) error {
	logger = internal.OrDefault(logger)

	c, err := New(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Open(ctx); err != nil {
		return err
	}
	defer c.Shutdown(context.Background())

	handler, err := c.Handler()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving on :%s (runs at /, API at /api)", cfg.Server.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
