package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Serve exposes the registry on addr at path until ctx is cancelled.
func Serve(ctx context.Context, reg *Registry, addr, path string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newHandler(reg, path, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr), zap.String("path", path))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// newHandler serves the registry at path behind the request metrics and
// request logging middleware. Any other path is a counted 404.
func newHandler(reg *Registry, path string, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, reg.Handler())

	var handler http.Handler = mux
	handler = HTTPMiddleware(reg)(handler)
	handler = LoggingMiddleware(logger)(handler)
	return handler
}
