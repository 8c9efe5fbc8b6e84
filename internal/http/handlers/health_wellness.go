package handlers

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"

	"github.com/dropDatabas3/garminbridge/internal/cache"
	"github.com/dropDatabas3/garminbridge/internal/garmin"
	httpx "github.com/dropDatabas3/garminbridge/internal/http"
	"github.com/dropDatabas3/garminbridge/internal/observability/logger"
	"github.com/dropDatabas3/garminbridge/internal/wellness"
)

type healthWellnessRequest struct {
	UserID      string   `json:"user_id"`
	Tokens      string   `json:"tokens"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	MetricTypes []string `json:"metric_types"`
}

const healthSnapshotKind = "health_and_wellness_data"

// HealthAndWellness maneja POST /data/health_and_wellness.
func (h *Handlers) HealthAndWellness(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("handler"), logger.Op("HealthAndWellness"))

	var req healthWellnessRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.StartDate == "" || req.EndDate == "" {
		httpx.WriteError(w, stdhttp.StatusBadRequest, "missing_field",
			"faltan user_id, start_date o end_date", httpx.CodeMissingField)
		return
	}

	// modo local: solo snapshots, nunca el vendor
	if h.opts.DataSource == "local_json" {
		h.serveSnapshot(w, r, req.UserID, healthSnapshotKind)
		return
	}

	if req.Tokens == "" {
		httpx.WriteError(w, stdhttp.StatusBadRequest, "missing_field",
			"falta tokens", httpx.CodeMissingField)
		return
	}

	client, err := h.newClient(req.Tokens, h.opts.IsCN)
	if err != nil {
		log.Warn("sesión del vendor inválida", logger.UserID(req.UserID), logger.Err(err))
		httpx.WriteError(w, stdhttp.StatusUnauthorized, "vendor_auth",
			"no se pudo restaurar la sesión de Garmin", httpx.CodeVendorAuth)
		return
	}

	data, err := h.agg.Fetch(ctx, client, req.StartDate, req.EndDate, req.MetricTypes)
	if err != nil {
		var ire *wellness.InvalidRangeError
		if errors.As(err, &ire) {
			httpx.WriteError(w, stdhttp.StatusBadRequest, "invalid_range", ire.Error(), httpx.CodeInvalidRange)
			return
		}
		log.Error("fallo inesperado agregando métricas", logger.UserID(req.UserID), logger.Err(err))
		httpx.WriteError(w, stdhttp.StatusInternalServerError, "unexpected",
			"error inesperado agregando métricas", httpx.CodeUnexpected)
		return
	}

	resp := map[string]any{
		"user_id":    req.UserID,
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"data":       data,
	}
	h.saveSnapshot(r, req.UserID, healthSnapshotKind, resp)

	log.Info("datos de salud servidos",
		logger.UserID(req.UserID),
		logger.Date(req.StartDate),
		logger.Count(len(data)),
	)
	httpx.WriteJSON(w, stdhttp.StatusOK, resp)
}

// serveSnapshot responde con el snapshot local tal cual fue guardado.
func (h *Handlers) serveSnapshot(w stdhttp.ResponseWriter, r *stdhttp.Request, userID, kind string) {
	log := logger.From(r.Context())
	raw, err := h.cache.Get(r.Context(), snapshotKey(userID, kind))
	if err != nil {
		if cache.IsNotFound(err) {
			httpx.WriteError(w, stdhttp.StatusNotFound, "local_data_missing",
				"no hay datos locales guardados para este usuario", httpx.CodeLocalDataMissed)
			return
		}
		log.Error("fallo leyendo el snapshot local", logger.UserID(userID), logger.Err(err))
		httpx.WriteError(w, stdhttp.StatusInternalServerError, "unexpected",
			"error leyendo datos locales", httpx.CodeUnexpected)
		return
	}
	log.Info("snapshot local servido", logger.UserID(userID), logger.Source("local_json"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = w.Write([]byte(raw))
}

// saveSnapshot persiste la respuesta para servirla después en modo local.
// Un fallo acá no afecta el request.
func (h *Handlers) saveSnapshot(r *stdhttp.Request, userID, kind string, resp map[string]any) {
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := h.cache.Set(r.Context(), snapshotKey(userID, kind), string(b), h.opts.SnapshotTTL); err != nil {
		logger.From(r.Context()).Warn("no se pudo guardar el snapshot",
			logger.UserID(userID), logger.Err(err))
	}
}

func snapshotKey(userID, kind string) string {
	return userID + ":" + kind
}

// mapVendorError traduce errores del vendor a la respuesta HTTP.
func mapVendorError(w stdhttp.ResponseWriter, err error) {
	if garmin.IsAuthError(err) {
		httpx.WriteError(w, stdhttp.StatusUnauthorized, "vendor_auth", err.Error(), httpx.CodeVendorAuth)
		return
	}
	httpx.WriteError(w, stdhttp.StatusInternalServerError, "unexpected",
		"error consultando el vendor", httpx.CodeUnexpected)
}
