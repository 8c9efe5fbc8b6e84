// Package sleep reconstruye una sesión de sueño canónica a partir de la
// respuesta parcial/heterogénea de Garmin para una fecha (dailySleepDTO +
// sleepLevels).
package sleep

import (
	"sort"
	"time"

	"github.com/dropDatabas3/garminbridge/internal/util"
)

// Stage es el tipo canónico de una etapa de sueño.
type Stage string

const (
	StageAwake   Stage = "awake"
	StageRem     Stage = "rem"
	StageLight   Stage = "light"
	StageDeep    Stage = "deep"
	StageUnknown Stage = "unknown"
)

// stageByLevel mapea el activityLevel de Garmin al tipo canónico.
var stageByLevel = map[int]Stage{
	0: StageAwake,
	1: StageRem,
	2: StageLight,
	3: StageDeep,
}

// StageEvent es un intervalo de una etapa de sueño.
type StageEvent struct {
	StageType         Stage     `json:"stage_type"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	DurationInSeconds int       `json:"duration_in_seconds"`
}

// Session es la sesión reconstruida para una fecha. Los nombres de campo del
// JSON replican el shape denormalizado que consume el backend principal.
type Session struct {
	EntryDate          string       `json:"entry_date"`
	Bedtime            time.Time    `json:"bedtime"`
	WakeTime           time.Time    `json:"wake_time"`
	DurationInSeconds  int          `json:"duration_in_seconds"`
	TimeAsleepInSecs   *int         `json:"time_asleep_in_seconds"`
	Source             string       `json:"source"`
	SleepScore         *float64     `json:"sleep_score"`
	DeepSleepSeconds   int          `json:"deepSleepSeconds"`
	LightSleepSeconds  int          `json:"lightSleepSeconds"`
	RemSleepSeconds    int          `json:"remSleepSeconds"`
	AwakeSleepSeconds  int          `json:"awakeSleepSeconds"`
	AvgSpO2            *float64     `json:"averageSpO2Value"`
	LowestSpO2         *float64     `json:"lowestSpO2Value"`
	HighestSpO2        *float64     `json:"highestSpO2Value"`
	AvgRespiration     *float64     `json:"averageRespirationValue"`
	LowestRespiration  *float64     `json:"lowestRespirationValue"`
	HighestRespiration *float64     `json:"highestRespirationValue"`
	AwakeCount         *float64     `json:"awakeCount"`
	AvgSleepStress     *float64     `json:"avgSleepStress"`
	RestlessMoments    *float64     `json:"restlessMomentsCount"`
	AvgOvernightHrv    *float64     `json:"avgOvernightHrv"`
	BodyBatteryChange  *float64     `json:"bodyBatteryChange"`
	RestingHeartRate   *float64     `json:"restingHeartRate"`
	StageEvents        []StageEvent `json:"stage_events"`
}

// interval es un sleepLevel crudo ya parseado.
type interval struct {
	level    int
	hasLevel bool
	start    time.Time
	end      time.Time
}

// Reconstruct arma cero o una sesión desde la respuesta cruda de
// get_sleep_data para la fecha dada.
//
// Bedtime/wake: primero los timestamps explícitos del dailySleepDTO; si
// faltan, el primer start y último end de los sleepLevels ordenados. Sin
// ninguna de las dos fuentes no se emite sesión (dato parcial normal, no un
// error). Sesiones con duración final <= 0 también se descartan.
func Reconstruct(entryDate string, raw map[string]any) (*Session, bool) {
	if raw == nil {
		return nil, false
	}
	summary := util.AsMap(raw["dailySleepDTO"])
	intervals := parseIntervals(util.AsSlice(raw["sleepLevels"]))

	bedtime, wakeTime, ok := resolveWindow(summary, intervals)
	if !ok {
		return nil, false
	}

	duration := 0
	if d := util.FloatPtr(summary["sleepTimeSeconds"]); d != nil {
		duration = int(*d)
	} else {
		duration = int(wakeTime.Sub(bedtime).Seconds())
	}
	if duration <= 0 {
		return nil, false
	}

	s := &Session{
		EntryDate:          entryDate,
		Bedtime:            bedtime,
		WakeTime:           wakeTime,
		DurationInSeconds:  duration,
		Source:             "garmin",
		SleepScore:         util.FloatPtr(util.Dig(summary, "sleepScores", "overall", "value")),
		AvgSpO2:            util.FloatPtr(summary["averageSpO2Value"]),
		LowestSpO2:         util.FloatPtr(summary["lowestSpO2Value"]),
		HighestSpO2:        util.FloatPtr(summary["highestSpO2Value"]),
		AvgRespiration:     util.FloatPtr(summary["averageRespirationValue"]),
		LowestRespiration:  util.FloatPtr(summary["lowestRespirationValue"]),
		HighestRespiration: util.FloatPtr(summary["highestRespirationValue"]),
		AwakeCount:         util.FloatPtr(summary["awakeCount"]),
		AvgSleepStress:     util.FloatPtr(summary["avgSleepStress"]),
		RestlessMoments:    util.FloatPtr(raw["restlessMomentsCount"]),
		AvgOvernightHrv:    util.FloatPtr(raw["avgOvernightHrv"]),
		BodyBatteryChange:  util.FloatPtr(raw["bodyBatteryChange"]),
		RestingHeartRate:   util.FloatPtr(raw["restingHeartRate"]),
		StageEvents:        []StageEvent{},
	}

	if len(intervals) > 0 {
		for _, iv := range intervals {
			if !iv.hasLevel {
				continue
			}
			stage, found := stageByLevel[iv.level]
			if !found {
				stage = StageUnknown
			}
			dur := int(iv.end.Sub(iv.start).Seconds())
			s.StageEvents = append(s.StageEvents, StageEvent{
				StageType:         stage,
				StartTime:         iv.start,
				EndTime:           iv.end,
				DurationInSeconds: dur,
			})
			switch stage {
			case StageDeep:
				s.DeepSleepSeconds += dur
			case StageLight:
				s.LightSleepSeconds += dur
			case StageRem:
				s.RemSleepSeconds += dur
			case StageAwake:
				s.AwakeSleepSeconds += dur
			}
		}
		// tiempo dormido = deep + light + rem; awake queda afuera por definición
		asleep := s.DeepSleepSeconds + s.LightSleepSeconds + s.RemSleepSeconds
		s.TimeAsleepInSecs = &asleep
	}

	return s, true
}

// resolveWindow determina bedtime/wake con el fallback a los intervalos.
func resolveWindow(summary map[string]any, intervals []interval) (time.Time, time.Time, bool) {
	startMs := util.FloatPtr(summary["sleepStartTimestampGMT"])
	endMs := util.FloatPtr(summary["sleepEndTimestampGMT"])
	if startMs != nil && endMs != nil {
		return util.FromMillis(*startMs), util.FromMillis(*endMs), true
	}
	if len(intervals) > 0 {
		return intervals[0].start, intervals[len(intervals)-1].end, true
	}
	return time.Time{}, time.Time{}, false
}

// parseIntervals parsea y ordena los sleepLevels por inicio. Garmin suele
// mandarlos ordenados, se reordena igual por las dudas.
func parseIntervals(rawLevels []any) []interval {
	out := make([]interval, 0, len(rawLevels))
	for _, rl := range rawLevels {
		m := util.AsMap(rl)
		if m == nil {
			continue
		}
		start, err1 := util.ParseGMT(util.Str(m["startGMT"]))
		end, err2 := util.ParseGMT(util.Str(m["endGMT"]))
		if err1 != nil || err2 != nil {
			continue
		}
		iv := interval{start: start, end: end}
		if lvl, ok := util.Float(m["activityLevel"]); ok {
			iv.level = int(lvl)
			iv.hasLevel = true
		}
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start.Before(out[j].start) })
	return out
}

// Map convierte la sesión al árbol JSON denormalizado que entra al pipeline
// de sanitación (mismas claves que los tags json).
func (s *Session) Map() map[string]any {
	events := make([]any, 0, len(s.StageEvents))
	for _, ev := range s.StageEvents {
		events = append(events, map[string]any{
			"stage_type":          string(ev.StageType),
			"start_time":          ev.StartTime.Format(time.RFC3339),
			"end_time":            ev.EndTime.Format(time.RFC3339),
			"duration_in_seconds": float64(ev.DurationInSeconds),
		})
	}
	m := map[string]any{
		"entry_date":          s.EntryDate,
		"bedtime":             s.Bedtime.Format(time.RFC3339),
		"wake_time":           s.WakeTime.Format(time.RFC3339),
		"duration_in_seconds": float64(s.DurationInSeconds),
		"source":              s.Source,
		"deepSleepSeconds":    float64(s.DeepSleepSeconds),
		"lightSleepSeconds":   float64(s.LightSleepSeconds),
		"remSleepSeconds":     float64(s.RemSleepSeconds),
		"awakeSleepSeconds":   float64(s.AwakeSleepSeconds),
		"stage_events":        events,
	}
	if s.TimeAsleepInSecs != nil {
		m["time_asleep_in_seconds"] = float64(*s.TimeAsleepInSecs)
	}
	putFloat := func(key string, v *float64) {
		if v != nil {
			m[key] = *v
		}
	}
	putFloat("sleep_score", s.SleepScore)
	putFloat("averageSpO2Value", s.AvgSpO2)
	putFloat("lowestSpO2Value", s.LowestSpO2)
	putFloat("highestSpO2Value", s.HighestSpO2)
	putFloat("averageRespirationValue", s.AvgRespiration)
	putFloat("lowestRespirationValue", s.LowestRespiration)
	putFloat("highestRespirationValue", s.HighestRespiration)
	putFloat("awakeCount", s.AwakeCount)
	putFloat("avgSleepStress", s.AvgSleepStress)
	putFloat("restlessMomentsCount", s.RestlessMoments)
	putFloat("avgOvernightHrv", s.AvgOvernightHrv)
	putFloat("bodyBatteryChange", s.BodyBatteryChange)
	putFloat("restingHeartRate", s.RestingHeartRate)
	return m
}
