package handlers

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dropDatabas3/garminbridge/internal/auth/mfa"
	"github.com/dropDatabas3/garminbridge/internal/cache"
	"github.com/dropDatabas3/garminbridge/internal/garmin"
	"github.com/dropDatabas3/garminbridge/internal/wellness"
)

// stubVendor implementa vendorClient con solo los métodos que cada test
// necesita. Los embeds nil cubren el resto de la interfaz.
type stubVendor struct {
	vendorClient

	respiration      func(ctx context.Context, day string) (map[string]any, error)
	activitiesByDate func(ctx context.Context, start, end, activityType string) ([]map[string]any, error)
	workouts         func(ctx context.Context) ([]map[string]any, error)
}

func (s *stubVendor) RespirationData(ctx context.Context, day string) (map[string]any, error) {
	return s.respiration(ctx, day)
}

func (s *stubVendor) ActivitiesByDate(ctx context.Context, start, end, activityType string) ([]map[string]any, error) {
	return s.activitiesByDate(ctx, start, end, activityType)
}

func (s *stubVendor) Workouts(ctx context.Context) ([]map[string]any, error) {
	return s.workouts(ctx)
}

func newTestHandlers(opts Options, v vendorClient) (*Handlers, cache.Client) {
	mem := cache.NewMemory("test")
	h := &Handlers{
		opts:  opts,
		agg:   wellness.New(2),
		mfa:   mfa.New(5 * time.Minute),
		cache: mem,
		newClient: func(tokens string, isCN bool) (vendorClient, error) {
			if tokens == "expired" {
				return nil, &garmin.AuthError{Msg: "sesión expirada"}
			}
			return v, nil
		},
	}
	return h, mem
}

func postJSON(t *testing.T, handler stdhttp.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(stdhttp.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("respuesta no es JSON: %v\n%s", err, rec.Body.String())
	}
	return out
}

func TestHealthAndWellnessHappyPathAndSnapshot(t *testing.T) {
	v := &stubVendor{
		respiration: func(_ context.Context, day string) (map[string]any, error) {
			return map[string]any{"avgRespiration": 15.2}, nil
		},
	}
	h, mem := newTestHandlers(Options{DataSource: "garmin"}, v)

	rec := postJSON(t, h.HealthAndWellness, `{
		"user_id":"u1","tokens":"tok","start_date":"2024-03-01","end_date":"2024-03-01",
		"metric_types":["respiration"]
	}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, esperaba 200: %s", rec.Code, rec.Body.String())
	}

	out := decodeBody(t, rec)
	if out["user_id"] != "u1" || out["start_date"] != "2024-03-01" {
		t.Fatalf("envelope inesperado: %v", out)
	}
	data, _ := out["data"].(map[string]any)
	entries, _ := data["respiration"].([]any)
	if len(entries) != 1 {
		t.Fatalf("respiration = %v, esperaba 1 entrada", data["respiration"])
	}
	entry := entries[0].(map[string]any)
	if entry["average_respiration_rate"] != 15.2 {
		t.Fatalf("average_respiration_rate = %v", entry["average_respiration_rate"])
	}

	// el snapshot queda persistido para el modo local
	raw, err := mem.Get(context.Background(), "u1:health_and_wellness_data")
	if err != nil {
		t.Fatalf("snapshot no guardado: %v", err)
	}
	if !strings.Contains(raw, `"respiration"`) {
		t.Fatalf("snapshot sin datos: %s", raw)
	}
}

func TestHealthAndWellnessMissingFields(t *testing.T) {
	h, _ := newTestHandlers(Options{DataSource: "garmin"}, &stubVendor{})

	rec := postJSON(t, h.HealthAndWellness, `{"user_id":"u1","start_date":"2024-03-01"}`)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, esperaba 400", rec.Code)
	}
	out := decodeBody(t, rec)
	if out["error_code"] != float64(2103) {
		t.Fatalf("error_code = %v, esperaba 2103", out["error_code"])
	}
}

func TestHealthAndWellnessInvalidRange(t *testing.T) {
	h, _ := newTestHandlers(Options{DataSource: "garmin"}, &stubVendor{})

	rec := postJSON(t, h.HealthAndWellness, `{
		"user_id":"u1","tokens":"tok","start_date":"2024-03-05","end_date":"2024-03-01"
	}`)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, esperaba 400", rec.Code)
	}
	if out := decodeBody(t, rec); out["error_code"] != float64(2104) {
		t.Fatalf("error_code = %v, esperaba 2104", out["error_code"])
	}
}

func TestHealthAndWellnessSessionRestoreFails(t *testing.T) {
	h, _ := newTestHandlers(Options{DataSource: "garmin"}, &stubVendor{})

	rec := postJSON(t, h.HealthAndWellness, `{
		"user_id":"u1","tokens":"expired","start_date":"2024-03-01","end_date":"2024-03-01"
	}`)
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("status = %d, esperaba 401", rec.Code)
	}
	if out := decodeBody(t, rec); out["error_code"] != float64(2201) {
		t.Fatalf("error_code = %v, esperaba 2201", out["error_code"])
	}
}

func TestHealthAndWellnessLocalJSON(t *testing.T) {
	h, mem := newTestHandlers(Options{DataSource: "local_json"}, &stubVendor{})

	// miss: nunca se guardó nada para este usuario
	rec := postJSON(t, h.HealthAndWellness, `{
		"user_id":"ghost","start_date":"2024-03-01","end_date":"2024-03-01"
	}`)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, esperaba 404", rec.Code)
	}
	if out := decodeBody(t, rec); out["error_code"] != float64(2301) {
		t.Fatalf("error_code = %v, esperaba 2301", out["error_code"])
	}

	// hit: sirve el snapshot tal cual, sin tocar el vendor
	snapshot := `{"user_id":"u1","data":{"sleep":[]}}`
	if err := mem.Set(context.Background(), "u1:health_and_wellness_data", snapshot, 0); err != nil {
		t.Fatalf("seed del snapshot: %v", err)
	}
	rec = postJSON(t, h.HealthAndWellness, `{
		"user_id":"u1","start_date":"2024-03-01","end_date":"2024-03-01"
	}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, esperaba 200: %s", rec.Code, rec.Body.String())
	}
	if strings.TrimSpace(rec.Body.String()) != snapshot {
		t.Fatalf("snapshot alterado: %s", rec.Body.String())
	}
}

func TestActivitiesAndWorkouts(t *testing.T) {
	v := &stubVendor{
		activitiesByDate: func(_ context.Context, start, end, activityType string) ([]map[string]any, error) {
			if activityType != "running" {
				return nil, errors.New("activity_type no propagado")
			}
			// sin activityId numérico: entra sin secciones de detalle
			return []map[string]any{{
				"activityName": "Vuelta al lago",
				"distance":     5000.0,
				"duration":     1800.0,
			}}, nil
		},
		workouts: func(_ context.Context) ([]map[string]any, error) {
			return []map[string]any{{"workoutName": "Series cortas"}}, nil
		},
	}
	h, _ := newTestHandlers(Options{DataSource: "garmin"}, v)

	rec := postJSON(t, h.ActivitiesAndWorkouts, `{
		"user_id":"u1","tokens":"tok","start_date":"2024-03-01","end_date":"2024-03-02",
		"activity_type":"running"
	}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, esperaba 200: %s", rec.Code, rec.Body.String())
	}

	out := decodeBody(t, rec)
	acts, _ := out["activities"].([]any)
	if len(acts) != 1 {
		t.Fatalf("activities = %v", out["activities"])
	}
	activity := acts[0].(map[string]any)["activity"].(map[string]any)
	if activity["distance"] != 5.0 {
		t.Fatalf("distance = %v, esperaba 5 km", activity["distance"])
	}
	workouts, _ := out["workouts"].([]any)
	if len(workouts) != 1 {
		t.Fatalf("workouts = %v", out["workouts"])
	}
}

func TestActivitiesAndWorkoutsVendorAuthError(t *testing.T) {
	v := &stubVendor{
		activitiesByDate: func(_ context.Context, _, _, _ string) ([]map[string]any, error) {
			return nil, &garmin.AuthError{Msg: "token vencido"}
		},
	}
	h, _ := newTestHandlers(Options{DataSource: "garmin"}, v)

	rec := postJSON(t, h.ActivitiesAndWorkouts, `{
		"user_id":"u1","tokens":"tok","start_date":"2024-03-01","end_date":"2024-03-02"
	}`)
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("status = %d, esperaba 401", rec.Code)
	}
	if out := decodeBody(t, rec); out["error_code"] != float64(2201) {
		t.Fatalf("error_code = %v, esperaba 2201", out["error_code"])
	}
}

func TestGarminLogin(t *testing.T) {
	h, _ := newTestHandlers(Options{}, &stubVendor{})

	t.Run("success", func(t *testing.T) {
		h.login = func(_ context.Context, email, password string, _ bool) (garmin.LoginResult, error) {
			return garmin.LoginResult{Tokens: "blob"}, nil
		}
		rec := postJSON(t, h.GarminLogin, `{"email":"a@b.c","password":"x","user_id":"u1"}`)
		if rec.Code != stdhttp.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		out := decodeBody(t, rec)
		if out["status"] != "success" || out["tokens"] != "blob" {
			t.Fatalf("respuesta inesperada: %v", out)
		}
	})

	t.Run("needs mfa", func(t *testing.T) {
		h.login = func(_ context.Context, _, _ string, _ bool) (garmin.LoginResult, error) {
			return garmin.LoginResult{MFAState: []byte("estado")}, garmin.ErrMFARequired
		}
		rec := postJSON(t, h.GarminLogin, `{"email":"a@b.c","password":"x","user_id":"u1"}`)
		if rec.Code != stdhttp.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		out := decodeBody(t, rec)
		if out["status"] != "needs_mfa" {
			t.Fatalf("status = %v", out["status"])
		}
		token, _ := out["client_state"].(string)
		if token == "" {
			t.Fatal("client_state vacío")
		}
		// el token referencia el estado guardado
		state, err := h.mfa.Consume(token)
		if err != nil || string(state) != "estado" {
			t.Fatalf("Consume(%q) = %q, %v", token, state, err)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		h.login = func(_ context.Context, _, _ string, _ bool) (garmin.LoginResult, error) {
			return garmin.LoginResult{}, &garmin.AuthError{Msg: "credenciales rechazadas"}
		}
		rec := postJSON(t, h.GarminLogin, `{"email":"a@b.c","password":"x","user_id":"u1"}`)
		if rec.Code != stdhttp.StatusUnauthorized {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if out := decodeBody(t, rec); out["error_code"] != float64(2201) {
			t.Fatalf("error_code = %v, esperaba 2201", out["error_code"])
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := postJSON(t, h.GarminLogin, `{"email":"a@b.c"}`)
		if rec.Code != stdhttp.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestGarminResumeLogin(t *testing.T) {
	h, _ := newTestHandlers(Options{}, &stubVendor{})
	h.resume = func(_ context.Context, state []byte, code string) (string, error) {
		if string(state) != "estado" || code != "123456" {
			return "", &garmin.AuthError{Msg: "código MFA rechazado"}
		}
		return "blob", nil
	}

	t.Run("success consumes the state", func(t *testing.T) {
		token := h.mfa.Put([]byte("estado"))
		body := `{"client_state":"` + token + `","mfa_code":"123456","user_id":"u1"}`
		rec := postJSON(t, h.GarminResumeLogin, body)
		if rec.Code != stdhttp.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		out := decodeBody(t, rec)
		if out["status"] != "success" || out["tokens"] != "blob" {
			t.Fatalf("respuesta inesperada: %v", out)
		}

		// segundo uso del mismo client_state: ya fue consumido
		rec = postJSON(t, h.GarminResumeLogin, body)
		if rec.Code != stdhttp.StatusBadRequest {
			t.Fatalf("reuso status = %d, esperaba 400", rec.Code)
		}
		if out := decodeBody(t, rec); out["error_code"] != float64(2202) {
			t.Fatalf("error_code = %v, esperaba 2202", out["error_code"])
		}
	})

	t.Run("unknown state", func(t *testing.T) {
		rec := postJSON(t, h.GarminResumeLogin, `{"client_state":"nope","mfa_code":"123456","user_id":"u1"}`)
		if rec.Code != stdhttp.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if out := decodeBody(t, rec); out["error_code"] != float64(2202) {
			t.Fatalf("error_code = %v, esperaba 2202", out["error_code"])
		}
	})

	t.Run("vendor rejects the code", func(t *testing.T) {
		token := h.mfa.Put([]byte("estado"))
		rec := postJSON(t, h.GarminResumeLogin,
			`{"client_state":"`+token+`","mfa_code":"000000","user_id":"u1"}`)
		if rec.Code != stdhttp.StatusUnauthorized {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if out := decodeBody(t, rec); out["error_code"] != float64(2201) {
			t.Fatalf("error_code = %v, esperaba 2201", out["error_code"])
		}
	})
}
