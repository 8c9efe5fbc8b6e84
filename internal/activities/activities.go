// Package activities resuelve el detalle de actividades y workouts de
// Garmin: lista base, enriquecimiento por actividad (splits, clima, zonas de
// FC, sets, equipamiento) y normalización de unidades.
package activities

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dropDatabas3/garminbridge/internal/observability/logger"
	"github.com/dropDatabas3/garminbridge/internal/sanitize"
	"github.com/dropDatabas3/garminbridge/internal/units"
	"github.com/dropDatabas3/garminbridge/internal/util"
)

// Client es la porción del vendor que consume este paquete.
type Client interface {
	ActivitiesByDate(ctx context.Context, start, end, activityType string) ([]map[string]any, error)
	ActivityDetails(ctx context.Context, activityID int64) (map[string]any, error)
	ActivitySplits(ctx context.Context, activityID int64) (map[string]any, error)
	ActivityWeather(ctx context.Context, activityID int64) (map[string]any, error)
	ActivityHRInTimezones(ctx context.Context, activityID int64) (any, error)
	ActivityExerciseSets(ctx context.Context, activityID int64) (map[string]any, error)
	ActivityGear(ctx context.Context, activityID int64) (any, error)
	Workouts(ctx context.Context) ([]map[string]any, error)
	WorkoutByID(ctx context.Context, workoutID int64) (map[string]any, error)
}

// FetchActivities lista las actividades del rango y las enriquece una por
// una. Si el detalle de una actividad falla, la actividad entra igual sin
// sus secciones extra; el error de la lista base sí es fatal.
func FetchActivities(ctx context.Context, c Client, start, end, activityType string) ([]any, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("activities.FetchActivities"))

	base, err := c.ActivitiesByDate(ctx, start, end, activityType)
	if err != nil {
		return nil, err
	}

	detailed := make([]any, 0, len(base))
	for _, activity := range base {
		normalizeActivity(activity)

		id, ok := util.Float(activity["activityId"])
		if !ok {
			// sin ID no hay detalle posible, entra pelada
			detailed = append(detailed, map[string]any{"activity": activity})
			continue
		}
		activityID := int64(id)

		sections, err := fetchDetailSections(ctx, c, activityID)
		if err != nil {
			log.Warn("fallo el detalle de la actividad, entra sin secciones",
				logger.ActivityID(strconv.FormatInt(activityID, 10)),
				logger.Err(err),
			)
			detailed = append(detailed, map[string]any{"activity": activity})
			continue
		}

		cadence, power := extractCadencePower(sections.details)
		activity["cadence"] = cadence
		activity["power"] = power

		detailed = append(detailed, map[string]any{
			"activity":        activity,
			"details":         encodeSection(sections.details),
			"splits":          encodeSection(sections.splits),
			"weather":         encodeSection(sections.weather),
			"hr_in_timezones": encodeSection(sections.hrInTimezones),
			"exercise_sets":   encodeSection(sections.exerciseSets),
			"gear":            encodeSection(sections.gear),
		})
	}

	if cleaned := util.AsSlice(sanitize.Clean(detailed)); cleaned != nil {
		return cleaned, nil
	}
	return []any{}, nil
}

// FetchWorkouts trae la lista de workouts y expande cada uno a su definición
// completa. Si el detalle de un workout falla se conserva la versión resumida.
func FetchWorkouts(ctx context.Context, c Client) ([]any, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("activities.FetchWorkouts"))

	base, err := c.Workouts(ctx)
	if err != nil {
		return nil, err
	}

	detailed := make([]any, 0, len(base))
	for _, workout := range base {
		id, ok := util.Float(workout["workoutId"])
		if !ok {
			detailed = append(detailed, workout)
			continue
		}
		full, err := c.WorkoutByID(ctx, int64(id))
		if err != nil || full == nil {
			if err != nil {
				log.Warn("fallo el detalle del workout, se conserva el resumen", logger.Err(err))
			}
			detailed = append(detailed, workout)
			continue
		}
		detailed = append(detailed, full)
	}

	if cleaned := util.AsSlice(sanitize.Clean(detailed)); cleaned != nil {
		return cleaned, nil
	}
	return []any{}, nil
}

// normalizeActivity completa activityName desde el typeKey cuando falta y
// convierte distancias a km y duraciones a minutos.
func normalizeActivity(activity map[string]any) {
	if util.Str(activity["activityName"]) == "" {
		if key := util.Str(util.Dig(activity, "activityType", "typeKey")); key != "" {
			activity["activityName"] = titleCase(strings.ReplaceAll(key, "_", " "))
		}
	}
	units.ConvertActivity(activity)
}

// detailSections agrupa las seis consultas de detalle de una actividad.
type detailSections struct {
	details       map[string]any
	splits        map[string]any
	weather       map[string]any
	hrInTimezones any
	exerciseSets  map[string]any
	gear          any
}

// fetchDetailSections falla entera ante el primer error: la actividad se
// publica sin secciones en vez de con secciones a medias.
func fetchDetailSections(ctx context.Context, c Client, activityID int64) (*detailSections, error) {
	var s detailSections
	var err error

	if s.details, err = c.ActivityDetails(ctx, activityID); err != nil {
		return nil, err
	}
	if s.splits, err = c.ActivitySplits(ctx, activityID); err != nil {
		return nil, err
	}
	if s.weather, err = c.ActivityWeather(ctx, activityID); err != nil {
		return nil, err
	}
	if s.hrInTimezones, err = c.ActivityHRInTimezones(ctx, activityID); err != nil {
		return nil, err
	}
	if s.exerciseSets, err = c.ActivityExerciseSets(ctx, activityID); err != nil {
		return nil, err
	}
	if s.gear, err = c.ActivityGear(ctx, activityID); err != nil {
		return nil, err
	}
	return &s, nil
}

// extractCadencePower busca cadencia y potencia primero en el array metrics
// del detalle y después en los alias clásicos del top-level.
func extractCadencePower(details map[string]any) (cadence, power any) {
	if details == nil {
		return nil, nil
	}
	for _, item := range util.AsSlice(details["metrics"]) {
		m := util.AsMap(item)
		if m == nil {
			continue
		}
		switch util.Str(m["metricName"]) {
		case "cadence":
			cadence = m["value"]
		case "power":
			power = m["value"]
		}
	}
	if cadence == nil {
		if cadence = details["avgCadence"]; cadence == nil {
			cadence = details["averageCadence"]
		}
	}
	if power == nil {
		if power = details["avgPower"]; power == nil {
			power = details["averagePower"]
		}
	}
	return cadence, power
}

// encodeSection sanitiza una sección de detalle y la serializa como string
// JSON compacto. nil queda nil (la sanitación final lo elimina).
func encodeSection(v any) any {
	if v == nil {
		return nil
	}
	cleaned := sanitize.Clean(v)
	if cleaned == nil {
		return nil
	}
	b, err := json.Marshal(cleaned)
	if err != nil {
		return nil
	}
	return string(b)
}

// titleCase capitaliza cada palabra ("trail running" → "Trail Running").
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
