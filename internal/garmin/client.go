package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/garminbridge/internal/util"
)

// APIClient habla con la Connect API usando el access token de la sesión.
// Todos los getters devuelven el JSON decodificado sin tipar; 404 / body
// vacío se traducen a nil (sin datos), que el aggregator trata como ausencia.
type APIClient struct {
	http  *http.Client
	base  string
	token string

	// displayName del perfil, resuelto lazy (algunos endpoints lo requieren
	// en el path).
	displayName string
}

// NewAPIClient restaura una sesión desde el blob de tokens.
func NewAPIClient(tokenBlob string, isCN bool) (*APIClient, error) {
	ts, err := DecodeTokens(tokenBlob)
	if err != nil {
		return nil, err
	}
	if ts.OAuth2.Expired() {
		return nil, &AuthError{Msg: "sesión expirada, re-login requerido"}
	}
	base := apiBase
	if isCN {
		base = apiBaseCN
	}
	return &APIClient{
		http:  &http.Client{Timeout: 30 * time.Second},
		base:  base,
		token: ts.OAuth2.AccessToken,
	}, nil
}

// getJSON hace el GET autenticado y decodifica la respuesta.
// (nil, nil) significa "sin datos para esta consulta".
func (c *APIClient) getJSON(ctx context.Context, path string, q url.Values) (any, error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("garmin: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &AuthError{Msg: strings.TrimSpace(string(b))}
	case resp.StatusCode/100 != 2:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("garmin: GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("garmin: GET %s: leyendo body: %w", path, err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("garmin: GET %s: json inválido: %w", path, err)
	}
	return v, nil
}

// getMap es getJSON para endpoints que responden un objeto.
func (c *APIClient) getMap(ctx context.Context, path string, q url.Values) (map[string]any, error) {
	v, err := c.getJSON(ctx, path, q)
	if err != nil || v == nil {
		return nil, err
	}
	return util.AsMap(v), nil
}

// profileDisplayName resuelve (y cachea) el displayName del perfil social.
func (c *APIClient) profileDisplayName(ctx context.Context) (string, error) {
	if c.displayName != "" {
		return c.displayName, nil
	}
	m, err := c.getMap(ctx, "/userprofile-service/socialProfile", nil)
	if err != nil {
		return "", err
	}
	dn := util.Str(m["displayName"])
	if dn == "" {
		return "", &AuthError{Msg: "perfil sin displayName"}
	}
	c.displayName = dn
	return dn, nil
}

// ───────────── wellness diario ─────────────

func (c *APIClient) UserSummary(ctx context.Context, day string) (map[string]any, error) {
	dn, err := c.profileDisplayName(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{"calendarDate": {day}}
	return c.getMap(ctx, "/usersummary-service/usersummary/daily/"+url.PathEscape(dn), q)
}

func (c *APIClient) HydrationData(ctx context.Context, day string) (map[string]any, error) {
	return c.getMap(ctx, "/usersummary-service/usersummary/hydration/daily/"+day, nil)
}

func (c *APIClient) Floors(ctx context.Context, day string) (map[string]any, error) {
	return c.getMap(ctx, "/wellness-service/wellness/floorsChartData/daily/"+day, nil)
}

func (c *APIClient) FitnessAge(ctx context.Context, day string) (map[string]any, error) {
	return c.getMap(ctx, "/fitnessage-service/fitnessage/"+day, nil)
}

func (c *APIClient) HeartRates(ctx context.Context, day string) (map[string]any, error) {
	dn, err := c.profileDisplayName(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{"date": {day}}
	return c.getMap(ctx, "/wellness-service/wellness/dailyHeartRate/"+url.PathEscape(dn), q)
}

func (c *APIClient) SleepData(ctx context.Context, day string) (map[string]any, error) {
	dn, err := c.profileDisplayName(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{"date": {day}, "nonSleepBufferMinutes": {"60"}}
	return c.getMap(ctx, "/wellness-service/wellness/dailySleepData/"+url.PathEscape(dn), q)
}

func (c *APIClient) StressData(ctx context.Context, day string) (map[string]any, error) {
	return c.getMap(ctx, "/wellness-service/wellness/dailyStress/"+day, nil)
}

func (c *APIClient) RespirationData(ctx context.Context, day string) (map[string]any, error) {
	return c.getMap(ctx, "/wellness-service/wellness/daily/respiration/"+day, nil)
}

func (c *APIClient) SpO2Data(ctx context.Context, day string) (map[string]any, error) {
	return c.getMap(ctx, "/wellness-service/wellness/daily/spo2/"+day, nil)
}

func (c *APIClient) IntensityMinutes(ctx context.Context, day string) (map[string]any, error) {
	return c.getMap(ctx, "/wellness-service/wellness/daily/im/"+day, nil)
}

// ───────────── metrics / entrenamiento ─────────────

func (c *APIClient) TrainingReadiness(ctx context.Context, day string) (any, error) {
	return c.getJSON(ctx, "/metrics-service/metrics/trainingreadiness/"+day, nil)
}

func (c *APIClient) TrainingStatus(ctx context.Context, day string) (map[string]any, error) {
	return c.getMap(ctx, "/metrics-service/metrics/trainingstatus/aggregated/"+day, nil)
}

func (c *APIClient) MaxMetrics(ctx context.Context, day string) (map[string]any, error) {
	return c.getMap(ctx, "/metrics-service/metrics/maxmet/daily/"+day+"/"+day, nil)
}

func (c *APIClient) HRVData(ctx context.Context, day string) (map[string]any, error) {
	return c.getMap(ctx, "/hrv-service/hrv/"+day, nil)
}

func (c *APIClient) EnduranceScore(ctx context.Context, start, end string) (map[string]any, error) {
	q := url.Values{"calendarDate": {start}, "startDate": {start}, "endDate": {end}}
	return c.getMap(ctx, "/metrics-service/metrics/endurancescore", q)
}

func (c *APIClient) HillScore(ctx context.Context, start, end string) (map[string]any, error) {
	q := url.Values{"calendarDate": {start}, "startDate": {start}, "endDate": {end}}
	return c.getMap(ctx, "/metrics-service/metrics/hillscore", q)
}

func (c *APIClient) LactateThreshold(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, "/biometric-service/biometric/latest", nil)
}

func (c *APIClient) RacePredictions(ctx context.Context) (map[string]any, error) {
	dn, err := c.profileDisplayName(ctx)
	if err != nil {
		return nil, err
	}
	return c.getMap(ctx, "/metrics-service/metrics/racepredictions/latest/"+url.PathEscape(dn), nil)
}

// ───────────── salud periódica / composición ─────────────

func (c *APIClient) BloodPressure(ctx context.Context, start, end string) (map[string]any, error) {
	q := url.Values{"includeAll": {"true"}}
	return c.getMap(ctx, "/bloodpressure-service/bloodpressure/range/"+start+"/"+end, q)
}

func (c *APIClient) BodyBattery(ctx context.Context, start, end string) (any, error) {
	q := url.Values{"startDate": {start}, "endDate": {end}}
	return c.getJSON(ctx, "/wellness-service/wellness/bodyBattery/reports/daily", q)
}

func (c *APIClient) MenstrualData(ctx context.Context, day string) (map[string]any, error) {
	return c.getMap(ctx, "/periodichealth-service/menstrualcycle/dayview/"+day, nil)
}

func (c *APIClient) MenstrualCalendar(ctx context.Context, start, end string) (map[string]any, error) {
	return c.getMap(ctx, "/periodichealth-service/menstrualcycle/calendar/"+start+"/"+end, nil)
}

func (c *APIClient) PregnancySummary(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, "/periodichealth-service/menstrualcycle/pregnancysnapshot", nil)
}

func (c *APIClient) BodyComposition(ctx context.Context, start, end string) (map[string]any, error) {
	q := url.Values{"startDate": {start}, "endDate": {end}}
	return c.getMap(ctx, "/weight-service/weight/dateRange", q)
}

// ───────────── actividades y workouts ─────────────

func (c *APIClient) ActivitiesByDate(ctx context.Context, start, end, activityType string) ([]map[string]any, error) {
	q := url.Values{
		"startDate": {start},
		"endDate":   {end},
		"start":     {"0"},
		"limit":     {"100"},
	}
	if activityType != "" {
		q.Set("activityType", activityType)
	}
	v, err := c.getJSON(ctx, "/activitylist-service/activities/search/activities", q)
	if err != nil {
		return nil, err
	}
	return mapList(v), nil
}

func (c *APIClient) ActivityDetails(ctx context.Context, activityID int64) (map[string]any, error) {
	return c.getMap(ctx, fmt.Sprintf("/activity-service/activity/%d/details", activityID), nil)
}

func (c *APIClient) ActivitySplits(ctx context.Context, activityID int64) (map[string]any, error) {
	return c.getMap(ctx, fmt.Sprintf("/activity-service/activity/%d/splits", activityID), nil)
}

func (c *APIClient) ActivityWeather(ctx context.Context, activityID int64) (map[string]any, error) {
	return c.getMap(ctx, fmt.Sprintf("/activity-service/activity/%d/weather", activityID), nil)
}

func (c *APIClient) ActivityHRInTimezones(ctx context.Context, activityID int64) (any, error) {
	return c.getJSON(ctx, fmt.Sprintf("/activity-service/activity/%d/hrTimeZones", activityID), nil)
}

func (c *APIClient) ActivityExerciseSets(ctx context.Context, activityID int64) (map[string]any, error) {
	return c.getMap(ctx, fmt.Sprintf("/activity-service/activity/%d/exerciseSets", activityID), nil)
}

func (c *APIClient) ActivityGear(ctx context.Context, activityID int64) (any, error) {
	q := url.Values{"activityId": {fmt.Sprintf("%d", activityID)}}
	return c.getJSON(ctx, "/gear-service/gear/filterGear", q)
}

func (c *APIClient) Workouts(ctx context.Context) ([]map[string]any, error) {
	q := url.Values{"start": {"0"}, "limit": {"100"}}
	v, err := c.getJSON(ctx, "/workout-service/workouts", q)
	if err != nil {
		return nil, err
	}
	return mapList(v), nil
}

func (c *APIClient) WorkoutByID(ctx context.Context, workoutID int64) (map[string]any, error) {
	return c.getMap(ctx, fmt.Sprintf("/workout-service/workout/%d", workoutID), nil)
}

func mapList(v any) []map[string]any {
	items := util.AsSlice(v)
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m := util.AsMap(it); m != nil {
			out = append(out, m)
		}
	}
	return out
}
