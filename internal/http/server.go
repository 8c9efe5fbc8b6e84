package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/garminbridge/internal/observability/logger"
)

// ServerOptions configura el http.Server.
type ServerOptions struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Start levanta el servidor y bloquea hasta que ctx se cancele o el
// listener falle. El shutdown es graceful con un límite de 10s.
func Start(ctx context.Context, opts ServerOptions, handler http.Handler) error {
	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("servidor HTTP escuchando", logger.String("addr", opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.L().Info("apagando servidor HTTP")
		return srv.Shutdown(shutdownCtx)
	}
}
