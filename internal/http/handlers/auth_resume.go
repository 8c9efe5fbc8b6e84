package handlers

import (
	"errors"
	stdhttp "net/http"

	"github.com/dropDatabas3/garminbridge/internal/auth/mfa"
	"github.com/dropDatabas3/garminbridge/internal/garmin"
	httpx "github.com/dropDatabas3/garminbridge/internal/http"
	"github.com/dropDatabas3/garminbridge/internal/observability/logger"
	"github.com/dropDatabas3/garminbridge/internal/util"
)

type resumeRequest struct {
	ClientState string `json:"client_state"`
	MFACode     string `json:"mfa_code"`
	UserID      string `json:"user_id"`
}

// GarminResumeLogin maneja POST /auth/garmin/resume_login: segunda fase del
// handshake MFA. El client_state es de un solo uso.
func (h *Handlers) GarminResumeLogin(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("handler"), logger.Op("GarminResumeLogin"))

	var req resumeRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if req.ClientState == "" || req.MFACode == "" || req.UserID == "" {
		httpx.WriteError(w, stdhttp.StatusBadRequest, "missing_field",
			"faltan client_state, mfa_code o user_id", httpx.CodeMissingField)
		return
	}

	state, err := h.mfa.Consume(req.ClientState)
	if err != nil {
		if errors.Is(err, mfa.ErrInvalidOrExpired) {
			log.Warn("client_state inválido o expirado",
				logger.UserID(req.UserID),
				logger.String("client_state", util.MaskToken(req.ClientState)),
			)
			httpx.WriteError(w, stdhttp.StatusBadRequest, "mfa_invalid_or_expired",
				"client_state inválido o expirado", httpx.CodeMFAInvalid)
			return
		}
		log.Error("fallo al consumir client_state", logger.Err(err))
		httpx.WriteError(w, stdhttp.StatusInternalServerError, "unexpected",
			"error durante el resume", httpx.CodeUnexpected)
		return
	}

	tokens, err := h.resume(ctx, state, req.MFACode)
	switch {
	case garmin.IsAuthError(err):
		log.Warn("codigo MFA rechazado por el vendor", logger.UserID(req.UserID))
		httpx.WriteError(w, stdhttp.StatusUnauthorized, "vendor_auth",
			"codigo MFA rechazado", httpx.CodeVendorAuth)
	case err != nil:
		log.Error("fallo el resume contra el vendor", logger.UserID(req.UserID), logger.Err(err))
		httpx.WriteError(w, stdhttp.StatusInternalServerError, "unexpected",
			"error durante el resume", httpx.CodeUnexpected)
	default:
		log.Info("resume exitoso", logger.UserID(req.UserID))
		httpx.WriteJSON(w, stdhttp.StatusOK, map[string]any{
			"status": "success",
			"tokens": tokens,
		})
	}
}
