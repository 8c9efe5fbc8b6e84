package wellness

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/garminbridge/internal/mood"
	"github.com/dropDatabas3/garminbridge/internal/sleep"
	"github.com/dropDatabas3/garminbridge/internal/units"
	"github.com/dropDatabas3/garminbridge/internal/util"
)

// Identificadores de métrica del contrato público. AllMetrics define además
// el orden de salida determinístico del aggregator.
const (
	MetricHeartRates        = "heart_rates"
	MetricSleep             = "sleep"
	MetricStress            = "stress"
	MetricRespiration       = "respiration"
	MetricSpO2              = "spo2"
	MetricIntensityMinutes  = "intensity_minutes"
	MetricTrainingReadiness = "training_readiness"
	MetricTrainingStatus    = "training_status"
	MetricMaxMetrics        = "max_metrics"
	MetricHRV               = "hrv"
	MetricLactateThreshold  = "lactate_threshold"
	MetricEnduranceScore    = "endurance_score"
	MetricHillScore         = "hill_score"
	MetricRacePredictions   = "race_predictions"
	MetricBloodPressure     = "blood_pressure"
	MetricBodyBattery       = "body_battery"
	MetricMenstrualData     = "menstrual_data"
	MetricFloors            = "floors"
	MetricFitnessAge        = "fitness_age"
	MetricBodyComposition   = "body_composition"
	MetricHydration         = "hydration"
	MetricRecoveryTime      = "recovery_time"
	MetricTrainingLoad      = "training_load"
	MetricAcuteLoad         = "acute_load"

	// Métricas que solo se consultan a pedido explícito (no entran en el
	// default "todas").
	MetricPregnancySummary  = "pregnancy_summary"
	MetricMenstrualCalendar = "menstrual_calendar_data"
	MetricSteps             = "steps"
	MetricTotalDistance     = "total_distance"
	MetricHighlyActiveSecs  = "highly_active_seconds"
	MetricActiveSecs        = "active_seconds"
	MetricSedentarySecs     = "sedentary_seconds"
)

// AllMetrics es el set fijo que se consulta cuando el request no pide
// métricas puntuales.
var AllMetrics = []string{
	MetricHeartRates, MetricSleep, MetricStress, MetricRespiration, MetricSpO2,
	MetricIntensityMinutes, MetricTrainingReadiness, MetricTrainingStatus, MetricMaxMetrics,
	MetricHRV, MetricLactateThreshold, MetricEnduranceScore, MetricHillScore, MetricRacePredictions,
	MetricBloodPressure, MetricBodyBattery, MetricMenstrualData, MetricFloors, MetricFitnessAge,
	MetricBodyComposition, MetricHydration, MetricRecoveryTime, MetricTrainingLoad, MetricAcuteLoad,
}

// Client es la superficie del vendor que consume el aggregator: un getter
// por métrica. Respuestas nil significan "sin datos" (no error).
type Client interface {
	UserSummary(ctx context.Context, day string) (map[string]any, error)
	HydrationData(ctx context.Context, day string) (map[string]any, error)
	Floors(ctx context.Context, day string) (map[string]any, error)
	FitnessAge(ctx context.Context, day string) (map[string]any, error)
	HeartRates(ctx context.Context, day string) (map[string]any, error)
	SleepData(ctx context.Context, day string) (map[string]any, error)
	StressData(ctx context.Context, day string) (map[string]any, error)
	RespirationData(ctx context.Context, day string) (map[string]any, error)
	SpO2Data(ctx context.Context, day string) (map[string]any, error)
	IntensityMinutes(ctx context.Context, day string) (map[string]any, error)
	TrainingReadiness(ctx context.Context, day string) (any, error)
	TrainingStatus(ctx context.Context, day string) (map[string]any, error)
	MaxMetrics(ctx context.Context, day string) (map[string]any, error)
	HRVData(ctx context.Context, day string) (map[string]any, error)
	EnduranceScore(ctx context.Context, start, end string) (map[string]any, error)
	HillScore(ctx context.Context, start, end string) (map[string]any, error)
	BloodPressure(ctx context.Context, start, end string) (map[string]any, error)
	BodyBattery(ctx context.Context, start, end string) (any, error)
	MenstrualData(ctx context.Context, day string) (map[string]any, error)
	MenstrualCalendar(ctx context.Context, start, end string) (map[string]any, error)
	BodyComposition(ctx context.Context, start, end string) (map[string]any, error)
	LactateThreshold(ctx context.Context) (map[string]any, error)
	RacePredictions(ctx context.Context) (map[string]any, error)
	PregnancySummary(ctx context.Context) (map[string]any, error)
}

// fetchFunc trae y denormaliza las entradas de una métrica para un día.
type fetchFunc func(ctx context.Context, c Client, day string) ([]any, error)

// metricSpec describe cómo se obtiene una métrica.
type metricSpec struct {
	// fetch por día; nil para métricas independientes de fecha.
	fetch fetchFunc
	// fetchOnce para métricas independientes de fecha (baseline, predicciones);
	// el resultado se asocia al inicio del rango.
	fetchOnce func(ctx context.Context, c Client, startDate string) ([]any, error)
}

// registry localiza las particularidades de cada métrica y deja cada handler
// testeable por separado, en lugar de una cadena larga de condicionales.
var registry = map[string]metricSpec{
	MetricHeartRates:        {fetch: fetchHeartRates},
	MetricSleep:             {fetch: fetchSleep},
	MetricStress:            {fetch: fetchStress},
	MetricRespiration:       {fetch: fetchRespiration},
	MetricSpO2:              {fetch: fetchSpO2},
	MetricIntensityMinutes:  {fetch: fetchIntensityMinutes},
	MetricTrainingReadiness: {fetch: fetchTrainingReadiness},
	MetricTrainingStatus:    {fetch: fetchTrainingStatus},
	MetricMaxMetrics:        {fetch: fetchMaxMetrics},
	MetricHRV:               {fetch: fetchHRV},
	MetricEnduranceScore:    {fetch: fetchEnduranceScore},
	MetricHillScore:         {fetch: fetchHillScore},
	MetricBloodPressure:     {fetch: fetchBloodPressure},
	MetricBodyBattery:       {fetch: fetchBodyBattery},
	MetricMenstrualData:     {fetch: fetchMenstrualData},
	MetricFloors:            {fetch: fetchFloors},
	MetricFitnessAge:        {fetch: fetchFitnessAge},
	MetricBodyComposition:   {fetch: fetchBodyComposition},
	MetricHydration:         {fetch: fetchHydration},
	MetricRecoveryTime:      {fetch: fetchRecoveryTime},
	MetricTrainingLoad:      {fetch: fetchTrainingLoad},
	MetricAcuteLoad:         {fetch: fetchAcuteLoad},

	MetricLactateThreshold: {fetchOnce: fetchLactateThreshold},
	MetricRacePredictions:  {fetchOnce: fetchRacePredictions},
	MetricPregnancySummary: {fetchOnce: fetchPregnancySummary},

	MetricMenstrualCalendar: {fetch: fetchMenstrualCalendar},
	MetricSteps:             {fetch: summaryField("totalSteps", nil)},
	MetricTotalDistance:     {fetch: summaryField("totalDistance", units.MetersToKm)},
	MetricHighlyActiveSecs:  {fetch: summaryField("highlyActiveSeconds", units.SecondsToMinutes)},
	MetricActiveSecs:        {fetch: summaryField("activeSeconds", units.SecondsToMinutes)},
	MetricSedentarySecs:     {fetch: summaryField("sedentarySeconds", units.SecondsToMinutes)},
}

// ───────────── handlers por métrica ─────────────

// fetchHeartRates explota heartRateValues ([ts_ms, bpm]) en muestras con
// timestamp UTC. Muestras sin valor se omiten.
func fetchHeartRates(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.HeartRates(ctx, day)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	entry := map[string]any{"date": day}
	samples := []any{}
	for _, item := range util.AsSlice(raw["heartRateValues"]) {
		pair := util.AsSlice(item)
		if len(pair) < 2 {
			continue
		}
		ts, tsOK := util.Float(pair[0])
		bpm, bpmOK := util.Float(pair[1])
		if !tsOK || !bpmOK || bpm == 0 {
			continue
		}
		samples = append(samples, map[string]any{
			"time": util.FromMillis(ts).Format(time.RFC3339),
			"data": bpm,
		})
	}
	entry["HeartRate"] = samples
	return []any{entry}, nil
}

func fetchSleep(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.SleepData(ctx, day)
	if err != nil {
		return nil, err
	}
	session, ok := sleep.Reconstruct(day, raw)
	if !ok {
		return nil, nil
	}
	return []any{session.Map()}, nil
}

// fetchStress arma el resumen de stress del día: muestras válidas (0-100),
// body battery del mismo payload, promedio y mood derivado.
func fetchStress(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.StressData(ctx, day)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	stressSamples := []any{}
	var validValues []float64
	for _, item := range util.AsSlice(raw["stressValuesArray"]) {
		pair := util.AsSlice(item)
		if len(pair) < 2 {
			continue
		}
		ts, tsOK := util.Float(pair[0])
		level, levelOK := util.Float(pair[1])
		// Garmin usa -1/-2 como "sin medición"; fuera de [0,100] se excluye
		if !tsOK || !levelOK || level < 0 || level > 100 {
			continue
		}
		stressSamples = append(stressSamples, map[string]any{
			"time":         util.FromMillis(ts).Format(time.RFC3339),
			"stress_level": level,
		})
		validValues = append(validValues, level)
	}

	bbSamples := []any{}
	for _, item := range util.AsSlice(raw["bodyBatteryValuesArray"]) {
		tuple := util.AsSlice(item)
		if len(tuple) < 3 {
			continue
		}
		ts, tsOK := util.Float(tuple[0])
		level, levelOK := util.Float(tuple[2])
		if !tsOK || !levelOK || level < 0 {
			continue
		}
		bbSamples = append(bbSamples, map[string]any{
			"time":         util.FromMillis(ts).Format(time.RFC3339),
			"stress_level": level,
		})
	}

	entry := map[string]any{
		"date":             day,
		"stressLevel":      stressSamples,
		"BodyBatteryLevel": bbSamples,
		"raw_stress_data":  stressSamples,
	}

	var moodValue *int
	if len(validValues) > 0 {
		var sum float64
		for _, v := range validValues {
			sum += v
		}
		avg := sum / float64(len(validValues))
		var label *string
		moodValue, label = mood.Derive(&avg)
		if moodValue != nil {
			entry["derived_mood_value"] = float64(*moodValue)
			entry["derived_mood_notes"] = fmt.Sprintf("Derived from Garmin Stress: Average %.0f (%s)", avg, *label)
		}
	}

	// sin muestras válidas ni mood derivado no hay entrada para el día
	if len(stressSamples) == 0 && moodValue == nil {
		return nil, nil
	}
	return []any{entry}, nil
}

func fetchRespiration(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.RespirationData(ctx, day)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{
		"date":                     day,
		"average_respiration_rate": raw["avgRespiration"],
	}}, nil
}

func fetchSpO2(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.SpO2Data(ctx, day)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{
		"date":         day,
		"average_spo2": raw["avgSpO2"],
	}}, nil
}

func fetchIntensityMinutes(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.IntensityMinutes(ctx, day)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{
		"date":                    day,
		"total_intensity_minutes": raw["total"],
	}}, nil
}

// trainingReadinessFirst tolera las dos formas en que responde el endpoint
// (objeto suelto o lista de dispositivos).
func trainingReadinessFirst(v any) map[string]any {
	if m := util.AsMap(v); m != nil {
		return m
	}
	if items := util.AsSlice(v); len(items) > 0 {
		return util.AsMap(items[0])
	}
	return nil
}

func fetchTrainingReadiness(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.TrainingReadiness(ctx, day)
	if err != nil {
		return nil, err
	}
	first := trainingReadinessFirst(raw)
	if first == nil {
		return nil, nil
	}
	return []any{map[string]any{
		"date":                     day,
		"training_readiness_score": first["score"],
	}}, nil
}

func fetchTrainingStatus(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.TrainingStatus(ctx, day)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{
		"date":   day,
		"status": raw["status"],
	}}, nil
}

func fetchMaxMetrics(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.MaxMetrics(ctx, day)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{
		"date":    day,
		"vo2_max": raw["vo2Max"],
	}}, nil
}

func fetchHRV(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.HRVData(ctx, day)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	entry := map[string]any{"date": day}
	samples := []any{}
	for _, item := range util.AsSlice(raw["hrvReadings"]) {
		m := util.AsMap(item)
		if m == nil {
			continue
		}
		hrv, ok := util.Float(m["hrvValue"])
		if !ok || hrv == 0 {
			continue
		}
		t, err := util.ParseGMT(util.Str(m["readingTimeGMT"]))
		if err != nil {
			continue
		}
		samples = append(samples, map[string]any{
			"time": t.Format(time.RFC3339),
			"data": hrv,
		})
	}
	entry["hrvValue"] = samples
	return []any{entry}, nil
}

func fetchEnduranceScore(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.EnduranceScore(ctx, day, day)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{
		"date":  day,
		"score": raw["score"],
	}}, nil
}

func fetchHillScore(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.HillScore(ctx, day, day)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{
		"date":    day,
		"overall": raw["overall"],
	}}, nil
}

// fetchBloodPressure aplana measurementSummaries[].measurements[] en entradas
// "sistólica/diastólica, pulso bpm". Mediciones incompletas se omiten.
func fetchBloodPressure(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.BloodPressure(ctx, day, day)
	if err != nil || raw == nil {
		return nil, err
	}
	var out []any
	for _, s := range util.AsSlice(raw["measurementSummaries"]) {
		summary := util.AsMap(s)
		if summary == nil {
			continue
		}
		for _, m := range util.AsSlice(summary["measurements"]) {
			bp := util.AsMap(m)
			if bp == nil {
				continue
			}
			systolic, sOK := util.Float(bp["systolic"])
			diastolic, dOK := util.Float(bp["diastolic"])
			if !sOK || !dOK {
				continue
			}
			value := fmt.Sprintf("%.0f/%.0f", systolic, diastolic)
			if pulse, ok := util.Float(bp["pulse"]); ok {
				value += fmt.Sprintf(", %.0f bpm", pulse)
			}
			out = append(out, map[string]any{"date": day, "value": value})
		}
	}
	return out, nil
}

func fetchBodyBattery(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.BodyBattery(ctx, day, day)
	if err != nil {
		return nil, err
	}
	var out []any
	for _, item := range util.AsSlice(raw) {
		bb := util.AsMap(item)
		if bb == nil {
			continue
		}
		out = append(out, map[string]any{
			"date":    day,
			"highest": bb["highest"],
			"lowest":  bb["lowest"],
			"atWake":  bb["atWake"],
			"charged": bb["charged"],
			"drained": bb["drained"],
		})
	}
	return out, nil
}

func fetchMenstrualData(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.MenstrualData(ctx, day)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{"date": day, "data": raw}}, nil
}

func fetchMenstrualCalendar(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.MenstrualCalendar(ctx, day, day)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{"date": day, "data": raw}}, nil
}

func fetchFloors(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.Floors(ctx, day)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{
		"date":             day,
		"floors_ascended":  raw["totalFloorsAscended"],
		"floors_descended": raw["totalFloorsDescended"],
	}}, nil
}

func fetchFitnessAge(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.FitnessAge(ctx, day)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{
		"date":                   day,
		"fitness_age":            raw["fitnessAge"],
		"chronological_age":      raw["chronologicalAge"],
		"achievable_fitness_age": raw["achievableFitnessAge"],
	}}, nil
}

// fetchBodyComposition usa la fecha de cada pesada (no la del loop) y
// convierte el peso de gramos a kg.
func fetchBodyComposition(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.BodyComposition(ctx, day, day)
	if err != nil || raw == nil {
		return nil, err
	}
	var out []any
	for _, item := range util.AsSlice(raw["dateWeightList"]) {
		w := util.AsMap(item)
		if w == nil {
			continue
		}
		var weightKg any
		if g := util.FloatPtr(w["weight"]); g != nil {
			weightKg = units.GramsToKg(*g)
		}
		out = append(out, map[string]any{
			"date":                  w["date"],
			"weight":                weightKg,
			"body_fat_percentage":   w["bodyFat"],
			"bmi":                   w["bmi"],
			"body_water_percentage": w["bodyWater"],
			"bone_mass":             w["boneMass"],
			"muscle_mass":           w["muscleMass"],
		})
	}
	return out, nil
}

func fetchHydration(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.HydrationData(ctx, day)
	if err != nil || raw == nil {
		return nil, err
	}
	ml := util.FloatPtr(raw["valueInML"])
	if ml == nil {
		return nil, nil
	}
	return []any{map[string]any{"date": day, "value": *ml}}, nil
}

func fetchRecoveryTime(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.TrainingReadiness(ctx, day)
	if err != nil {
		return nil, err
	}
	first := trainingReadinessFirst(raw)
	if first == nil {
		return nil, nil
	}
	rt := util.FloatPtr(first["recoveryTime"])
	if rt == nil {
		return nil, nil
	}
	return []any{map[string]any{"date": day, "value": *rt}}, nil
}

// fetchTrainingLoad lee el primer dispositivo de latestTrainingStatusData.
func fetchTrainingLoad(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.TrainingStatus(ctx, day)
	if err != nil || raw == nil {
		return nil, err
	}
	latest := util.AsMap(util.Dig(raw, "mostRecentTrainingStatus", "latestTrainingStatusData"))
	var ts map[string]any
	for _, v := range latest {
		ts = util.AsMap(v)
		break
	}
	if ts == nil {
		return nil, nil
	}
	weekly := ts["weeklyTrainingLoad"]
	acute := util.Dig(ts, "acuteTrainingLoadDTO", "dailyTrainingLoadAcute")
	chronic := util.Dig(ts, "acuteTrainingLoadDTO", "dailyTrainingLoadChronic")
	if weekly == nil && acute == nil && chronic == nil {
		return nil, nil
	}
	return []any{map[string]any{
		"date":                        day,
		"weekly_training_load":        weekly,
		"daily_acute_training_load":   acute,
		"daily_chronic_training_load": chronic,
	}}, nil
}

func fetchAcuteLoad(ctx context.Context, c Client, day string) ([]any, error) {
	raw, err := c.TrainingReadiness(ctx, day)
	if err != nil {
		return nil, err
	}
	first := trainingReadinessFirst(raw)
	if first == nil {
		return nil, nil
	}
	al := util.FloatPtr(first["acuteLoad"])
	if al == nil {
		return nil, nil
	}
	return []any{map[string]any{"date": day, "value": *al}}, nil
}

// ───────────── independientes de fecha ─────────────

func fetchLactateThreshold(ctx context.Context, c Client, startDate string) ([]any, error) {
	raw, err := c.LactateThreshold(ctx)
	if err != nil || raw == nil {
		return nil, err
	}
	hr := util.Dig(raw, "speed_and_heart_rate", "heartRate")
	return []any{map[string]any{
		"date":                 startDate,
		"lactate_threshold_hr": hr,
	}}, nil
}

func fetchRacePredictions(ctx context.Context, c Client, startDate string) ([]any, error) {
	raw, err := c.RacePredictions(ctx)
	if err != nil || raw == nil {
		return nil, err
	}
	var out []any
	for _, item := range util.AsSlice(raw["racePredictionList"]) {
		p := util.AsMap(item)
		if p == nil || util.Str(p["raceType"]) != "FIVE_K" {
			continue
		}
		out = append(out, map[string]any{
			"date":               startDate,
			"race_prediction_5k": p["predictedTime"],
		})
	}
	return out, nil
}

func fetchPregnancySummary(ctx context.Context, c Client, startDate string) ([]any, error) {
	raw, err := c.PregnancySummary(ctx)
	if err != nil || raw == nil {
		return nil, err
	}
	return []any{map[string]any{"date": startDate, "data": raw}}, nil
}

// summaryField genera el handler de los campos derivados del resumen diario
// (steps, distancias, tiempos de actividad), con conversión opcional.
func summaryField(field string, conv func(float64) float64) fetchFunc {
	return func(ctx context.Context, c Client, day string) ([]any, error) {
		raw, err := c.UserSummary(ctx, day)
		if err != nil || raw == nil {
			return nil, err
		}
		v := raw[field]
		if conv != nil {
			if f := util.FloatPtr(v); f != nil {
				v = conv(*f)
			} else {
				v = nil
			}
		}
		return []any{map[string]any{"date": day, "value": v}}, nil
	}
}
