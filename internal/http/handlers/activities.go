package handlers

import (
	stdhttp "net/http"

	"github.com/dropDatabas3/garminbridge/internal/activities"
	httpx "github.com/dropDatabas3/garminbridge/internal/http"
	"github.com/dropDatabas3/garminbridge/internal/observability/logger"
)

type activitiesRequest struct {
	UserID       string `json:"user_id"`
	Tokens       string `json:"tokens"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	ActivityType string `json:"activity_type"`
}

const activitiesSnapshotKind = "activities_and_workouts_data"

// ActivitiesAndWorkouts maneja POST /data/activities_and_workouts.
func (h *Handlers) ActivitiesAndWorkouts(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("handler"), logger.Op("ActivitiesAndWorkouts"))

	var req activitiesRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.StartDate == "" || req.EndDate == "" {
		httpx.WriteError(w, stdhttp.StatusBadRequest, "missing_field",
			"faltan user_id, start_date o end_date", httpx.CodeMissingField)
		return
	}

	if h.opts.DataSource == "local_json" {
		h.serveSnapshot(w, r, req.UserID, activitiesSnapshotKind)
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

	acts, err := activities.FetchActivities(ctx, client, req.StartDate, req.EndDate, req.ActivityType)
	if err != nil {
		log.Error("fallo listando actividades", logger.UserID(req.UserID), logger.Err(err))
		mapVendorError(w, err)
		return
	}
	workouts, err := activities.FetchWorkouts(ctx, client)
	if err != nil {
		log.Error("fallo listando workouts", logger.UserID(req.UserID), logger.Err(err))
		mapVendorError(w, err)
		return
	}

	resp := map[string]any{
		"user_id":    req.UserID,
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"activities": acts,
		"workouts":   workouts,
	}
	h.saveSnapshot(r, req.UserID, activitiesSnapshotKind, resp)

	log.Info("actividades servidas",
		logger.UserID(req.UserID),
		logger.Date(req.StartDate),
		logger.Count(len(acts)),
	)
	httpx.WriteJSON(w, stdhttp.StatusOK, resp)
}
