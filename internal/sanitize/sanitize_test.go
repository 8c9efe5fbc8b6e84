package sanitize_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/dropDatabas3/garminbridge/internal/sanitize"
)

func mustTree(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("fixture inválida: %v", err)
	}
	return v
}

func TestClean_DropsNullZeroAndInternalIDs(t *testing.T) {
	in := mustTree(t, `{
		"totalSteps": 8211,
		"ownerId": 12345,
		"userProfilePk": 99,
		"permissionId": 1,
		"userRoles": ["ROLE_CONNECT"],
		"equipmentTypeId": 3,
		"endConditionCompareValue": 7,
		"restingHeartRate": 0,
		"sleepScore": null,
		"calendarDate": "2024-01-01"
	}`)

	got := sanitize.Clean(in)
	want := map[string]any{
		"totalSteps":   float64(8211),
		"calendarDate": "2024-01-01",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestClean_NestedEmptyCollapses(t *testing.T) {
	in := mustTree(t, `{
		"summary": {"ownerId": 1, "value": 0},
		"list": [null, 0, {}, []],
		"keep": {"hr": 62}
	}`)

	got := sanitize.Clean(in)
	want := map[string]any{
		"keep": map[string]any{"hr": float64(62)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestClean_AllEmptyReturnsNil(t *testing.T) {
	if got := sanitize.Clean(mustTree(t, `{"a": null, "b": 0}`)); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
	if got := sanitize.Clean(mustTree(t, `[0, null]`)); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestClean_ListPreservesOrder(t *testing.T) {
	in := mustTree(t, `[3, 0, 1, null, 2]`)
	got := sanitize.Clean(in)
	want := []any{float64(3), float64(1), float64(2)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestClean_EmbeddedJSONString(t *testing.T) {
	in := mustTree(t, `{"details": "{\"avgPower\": 180, \"ownerId\": 5}"}`)
	got := sanitize.Clean(in)
	want := map[string]any{
		"details": map[string]any{"avgPower": float64(180)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestClean_DoubledQuoteArtifact(t *testing.T) {
	// Garmin a veces escapa JSON embebido doblando comillas
	in := map[string]any{"weather": `{""temp"": 21}`}
	got := sanitize.Clean(in)
	want := map[string]any{
		"weather": map[string]any{"temp": float64(21)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestClean_NonJSONStringUnchanged(t *testing.T) {
	in := map[string]any{"note": "not json at all"}
	got := sanitize.Clean(in)
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("got %#v, want %#v", got, in)
	}
}

func TestClean_Idempotent(t *testing.T) {
	fixtures := []string{
		`{"a": 1, "b": {"ownerId": 2, "c": [0, 3]}, "d": "{\"x\": 1}"}`,
		`[{"v": 0}, {"v": 1}, "plain", 2.5]`,
		`{"sleepLevels": [{"activityLevel": 2, "startGMT": "2024-01-01T23:00:00.0"}]}`,
	}
	for _, f := range fixtures {
		once := sanitize.Clean(mustTree(t, f))
		twice := sanitize.Clean(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("no idempotente para %s:\n1: %#v\n2: %#v", f, once, twice)
		}
	}
}

func TestClean_DeepNestingBounded(t *testing.T) {
	// construir un árbol más profundo que el límite de recursión
	var v any = "leaf"
	for i := 0; i < 200; i++ {
		v = map[string]any{"nested": v}
	}
	// no debe entrar en pánico ni colgarse
	_ = sanitize.Clean(v)
}
