// Package units contiene las conversiones de unidades aplicadas a los datos
// crudos de Garmin (gramos→kg, metros→km, segundos→minutos).
//
// Sin redondeo: la precisión de display es responsabilidad del consumidor.
package units

// GramsToKg convierte gramos a kilogramos.
func GramsToKg(g float64) float64 { return g / 1000.0 }

// MetersToKm convierte metros a kilómetros.
func MetersToKm(m float64) float64 { return m / 1000.0 }

// SecondsToMinutes convierte segundos a minutos.
func SecondsToMinutes(s float64) float64 { return s / 60.0 }

// Safe aplica una conversión solo si el valor está presente.
// nil entra, nil sale.
func Safe(v *float64, conv func(float64) float64) *float64 {
	if v == nil {
		return nil
	}
	out := conv(*v)
	return &out
}

// ConvertField aplica una conversión in-place sobre un campo numérico de un
// payload decodificado. Si el campo falta o no es numérico lo deja en nil,
// igual que el contrato histórico (safe_convert sobre dict.get()).
func ConvertField(m map[string]any, field string, conv func(float64) float64) {
	f, ok := numeric(m[field])
	if !ok {
		m[field] = nil
		return
	}
	m[field] = conv(f)
}

// ConvertActivity normaliza las unidades de una actividad cruda:
// distancia en km y duraciones en minutos.
func ConvertActivity(activity map[string]any) {
	ConvertField(activity, "distance", MetersToKm)
	ConvertField(activity, "duration", SecondsToMinutes)
	ConvertField(activity, "elapsedDuration", SecondsToMinutes)
	ConvertField(activity, "movingDuration", SecondsToMinutes)
}

// ConvertUserSummary normaliza el resumen diario del usuario (peso en kg).
func ConvertUserSummary(summary map[string]any) {
	if summary == nil {
		return
	}
	if _, ok := summary["totalWeight"]; ok {
		ConvertField(summary, "totalWeight", GramsToKg)
	}
}

func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}
