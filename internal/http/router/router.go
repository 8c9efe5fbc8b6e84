// Package router arma el chi.Router del servicio: cadena de middlewares,
// endpoints operativos y rutas de negocio.
package router

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	httpx "github.com/dropDatabas3/garminbridge/internal/http"
	"github.com/dropDatabas3/garminbridge/internal/http/handlers"
	"github.com/dropDatabas3/garminbridge/internal/observability/logger"
)

// Deps son las dependencias del router.
type Deps struct {
	Handlers *handlers.Handlers
	// Secreto HS256 para el bearer de servicio. Vacío = sin auth.
	ServiceTokenSecret string
	CORSAllowedOrigins []string
}

// New construye el router completo.
func New(deps Deps) (chi.Router, error) {
	metricsHandler, err := httpx.RegisterMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// cadena global: el request_id primero para que todo lo demás loguee con él
	r.Use(httpx.WithRequestID)
	r.Use(httpx.WithRecover)
	r.Use(httpx.WithLogging)
	r.Use(httpx.WithMetrics)
	r.Use(func(next stdhttp.Handler) stdhttp.Handler {
		return httpx.WithCORS(next, deps.CORSAllowedOrigins)
	})

	// operativos, sin auth
	r.Get("/", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		httpx.WriteJSON(w, stdhttp.StatusOK, map[string]any{
			"message": "Garmin bridge service is running",
		})
	})
	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", deps.Handlers.Readyz)
	r.Method(stdhttp.MethodGet, "/metrics", metricsHandler)

	// negocio, detrás del bearer de servicio
	r.Group(func(r chi.Router) {
		r.Use(func(next stdhttp.Handler) stdhttp.Handler {
			return httpx.WithServiceAuth(next, deps.ServiceTokenSecret)
		})
		deps.Handlers.Register(r)
	})

	if deps.ServiceTokenSecret == "" {
		logger.L().Warn("SERVICE_TOKEN_SECRET vacío: endpoints de negocio sin auth")
	}
	return r, nil
}
