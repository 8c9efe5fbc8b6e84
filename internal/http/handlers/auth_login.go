package handlers

import (
	"errors"
	stdhttp "net/http"

	"github.com/dropDatabas3/garminbridge/internal/garmin"
	httpx "github.com/dropDatabas3/garminbridge/internal/http"
	"github.com/dropDatabas3/garminbridge/internal/observability/logger"
	"github.com/dropDatabas3/garminbridge/internal/util"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserID   string `json:"user_id"`
}

// GarminLogin maneja POST /auth/garmin/login: primera fase del handshake.
// Responde tokens directos, o un challenge MFA con su client_state.
func (h *Handlers) GarminLogin(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("handler"), logger.Op("GarminLogin"))

	var req loginRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" || req.UserID == "" {
		httpx.WriteError(w, stdhttp.StatusBadRequest, "missing_field",
			"faltan email, password o user_id", httpx.CodeMissingField)
		return
	}

	// el email solo se loguea enmascarado
	log = log.With(logger.String("email", util.MaskEmail(req.Email)))

	result, err := h.login(ctx, req.Email, req.Password, h.opts.IsCN)
	switch {
	case errors.Is(err, garmin.ErrMFARequired):
		token := h.mfa.Put(result.MFAState)
		log.Info("login requiere MFA", logger.UserID(req.UserID))
		httpx.WriteJSON(w, stdhttp.StatusOK, map[string]any{
			"status":       "needs_mfa",
			"client_state": token,
		})
	case garmin.IsAuthError(err):
		log.Warn("credenciales rechazadas por el vendor", logger.UserID(req.UserID))
		httpx.WriteError(w, stdhttp.StatusUnauthorized, "vendor_auth",
			"credenciales inválidas", httpx.CodeVendorAuth)
	case err != nil:
		log.Error("fallo el login contra el vendor", logger.UserID(req.UserID), logger.Err(err))
		httpx.WriteError(w, stdhttp.StatusInternalServerError, "unexpected",
			"error durante el login", httpx.CodeUnexpected)
	default:
		log.Info("login exitoso", logger.UserID(req.UserID))
		httpx.WriteJSON(w, stdhttp.StatusOK, map[string]any{
			"status": "success",
			"tokens": result.Tokens,
		})
	}
}
