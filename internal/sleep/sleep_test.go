package sleep_test

import (
	"testing"
	"time"

	"github.com/dropDatabas3/garminbridge/internal/sleep"
)

// fixture: bedtime 2024-01-01T23:00:00Z, wake 2024-01-02T07:00:00Z,
// light(2h) + deep(3h) + rem(3h) sin huecos.
func fullNight() map[string]any {
	start := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	return map[string]any{
		"dailySleepDTO": map[string]any{
			"sleepStartTimestampGMT": float64(start.UnixMilli()),
			"sleepEndTimestampGMT":   float64(start.Add(8 * time.Hour).UnixMilli()),
			"sleepTimeSeconds":       float64(28800),
			"sleepScores": map[string]any{
				"overall": map[string]any{"value": float64(82)},
			},
		},
		"sleepLevels": []any{
			map[string]any{"activityLevel": float64(2), "startGMT": "2024-01-01T23:00:00.0", "endGMT": "2024-01-02T01:00:00.0"},
			map[string]any{"activityLevel": float64(3), "startGMT": "2024-01-02T01:00:00.0", "endGMT": "2024-01-02T04:00:00.0"},
			map[string]any{"activityLevel": float64(1), "startGMT": "2024-01-02T04:00:00.0", "endGMT": "2024-01-02T07:00:00.0"},
		},
	}
}

func TestReconstruct_FullNight(t *testing.T) {
	s, ok := sleep.Reconstruct("2024-01-02", fullNight())
	if !ok {
		t.Fatal("esperaba sesión")
	}

	if s.DurationInSeconds != 28800 {
		t.Fatalf("duration = %d, want 28800", s.DurationInSeconds)
	}
	if s.TimeAsleepInSecs == nil || *s.TimeAsleepInSecs != 28800 {
		t.Fatalf("time asleep = %v, want 28800", s.TimeAsleepInSecs)
	}
	if s.LightSleepSeconds != 7200 {
		t.Fatalf("light = %d, want 7200", s.LightSleepSeconds)
	}
	if s.DeepSleepSeconds != 10800 {
		t.Fatalf("deep = %d, want 10800", s.DeepSleepSeconds)
	}
	if s.RemSleepSeconds != 10800 {
		t.Fatalf("rem = %d, want 10800", s.RemSleepSeconds)
	}
	if s.AwakeSleepSeconds != 0 {
		t.Fatalf("awake = %d, want 0", s.AwakeSleepSeconds)
	}
	if len(s.StageEvents) != 3 {
		t.Fatalf("stage events = %d, want 3", len(s.StageEvents))
	}
	if !s.Bedtime.Before(s.WakeTime) {
		t.Fatal("bedtime debe ser anterior a wake time")
	}
	if s.SleepScore == nil || *s.SleepScore != 82 {
		t.Fatalf("sleep score = %v, want 82", s.SleepScore)
	}
}

func TestReconstruct_FallbackToIntervals(t *testing.T) {
	raw := fullNight()
	// sin timestamps explícitos ni duración en el resumen
	raw["dailySleepDTO"] = map[string]any{}

	s, ok := sleep.Reconstruct("2024-01-02", raw)
	if !ok {
		t.Fatal("esperaba sesión desde intervalos")
	}
	wantBed := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	wantWake := time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC)
	if !s.Bedtime.Equal(wantBed) {
		t.Fatalf("bedtime = %v, want %v", s.Bedtime, wantBed)
	}
	if !s.WakeTime.Equal(wantWake) {
		t.Fatalf("wake = %v, want %v", s.WakeTime, wantWake)
	}
	// duración calculada como wake - bedtime
	if s.DurationInSeconds != 28800 {
		t.Fatalf("duration = %d, want 28800", s.DurationInSeconds)
	}
}

func TestReconstruct_IntervalsOutOfOrder(t *testing.T) {
	raw := fullNight()
	levels := raw["sleepLevels"].([]any)
	levels[0], levels[2] = levels[2], levels[0]

	s, ok := sleep.Reconstruct("2024-01-02", raw)
	if !ok {
		t.Fatal("esperaba sesión")
	}
	if s.StageEvents[0].StageType != sleep.StageLight {
		t.Fatalf("primer evento = %s, want light", s.StageEvents[0].StageType)
	}
}

func TestReconstruct_DiscardsWithoutAnySource(t *testing.T) {
	// ni resumen ni intervalos: dato parcial normal, sin sesión y sin error
	if _, ok := sleep.Reconstruct("2024-01-02", map[string]any{}); ok {
		t.Fatal("no debería emitir sesión")
	}
	if _, ok := sleep.Reconstruct("2024-01-02", nil); ok {
		t.Fatal("no debería emitir sesión para raw nil")
	}
}

func TestReconstruct_SummaryOnlySession(t *testing.T) {
	raw := fullNight()
	delete(raw, "sleepLevels")

	s, ok := sleep.Reconstruct("2024-01-02", raw)
	if !ok {
		t.Fatal("esperaba sesión solo-resumen")
	}
	if len(s.StageEvents) != 0 {
		t.Fatalf("stage events = %d, want 0", len(s.StageEvents))
	}
	if s.TimeAsleepInSecs != nil {
		t.Fatal("sin intervalos no hay time_asleep calculado")
	}
}

func TestReconstruct_DiscardsNonPositiveDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	raw := map[string]any{
		"dailySleepDTO": map[string]any{
			"sleepStartTimestampGMT": float64(start.UnixMilli()),
			"sleepEndTimestampGMT":   float64(start.UnixMilli()), // misma hora
		},
	}
	if _, ok := sleep.Reconstruct("2024-01-02", raw); ok {
		t.Fatal("duración 0 debe descartarse")
	}
}

func TestReconstruct_UnknownStageCode(t *testing.T) {
	raw := fullNight()
	raw["sleepLevels"] = []any{
		map[string]any{"activityLevel": float64(9), "startGMT": "2024-01-01T23:00:00.0", "endGMT": "2024-01-02T07:00:00.0"},
	}
	s, ok := sleep.Reconstruct("2024-01-02", raw)
	if !ok {
		t.Fatal("esperaba sesión")
	}
	if s.StageEvents[0].StageType != sleep.StageUnknown {
		t.Fatalf("stage = %s, want unknown", s.StageEvents[0].StageType)
	}
	// unknown no suma a ningún total
	if got := *s.TimeAsleepInSecs; got != 0 {
		t.Fatalf("time asleep = %d, want 0", got)
	}
}
