package handlers

import (
	stdhttp "net/http"
	"os"

	httpx "github.com/dropDatabas3/garminbridge/internal/http"
	"github.com/dropDatabas3/garminbridge/internal/observability/logger"
)

// Readyz verifica que el backend de snapshots responde antes de declarar
// el servicio listo para tráfico.
func (h *Handlers) Readyz(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if v := os.Getenv("SERVICE_VERSION"); v != "" {
		w.Header().Set("X-Service-Version", v)
	}
	if git := os.Getenv("SERVICE_COMMIT"); git != "" {
		w.Header().Set("X-Service-Commit", git)
	}

	if err := h.cache.Ping(r.Context()); err != nil {
		logger.From(r.Context()).Error("cache no disponible",
			logger.Layer("handler"), logger.Op("Readyz"), logger.Err(err))
		httpx.WriteError(w, stdhttp.StatusServiceUnavailable, "cache_unavailable",
			"snapshot backend unavailable", httpx.CodeUnexpected)
		return
	}

	w.WriteHeader(stdhttp.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
