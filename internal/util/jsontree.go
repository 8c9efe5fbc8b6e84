// Package util agrupa helpers chicos para trabajar con los árboles JSON
// sin tipar que devuelve la API de Garmin.
package util

// AsMap castea a objeto JSON; nil si no lo es.
func AsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// AsSlice castea a lista JSON; nil si no lo es.
func AsSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// Float extrae un numérico. ok=false si falta o no es número.
func Float(v any) (float64, bool) {
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

// FloatPtr extrae un numérico como puntero (nil si falta).
func FloatPtr(v any) *float64 {
	if f, ok := Float(v); ok {
		return &f
	}
	return nil
}

// Str extrae un string; "" si falta.
func Str(v any) string {
	s, _ := v.(string)
	return s
}

// Dig navega claves anidadas de objetos JSON.
// Dig(m, "a", "b") == m["a"]["b"], nil si cualquier nivel falta.
func Dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		obj := AsMap(cur)
		if obj == nil {
			return nil
		}
		cur = obj[k]
	}
	return cur
}
