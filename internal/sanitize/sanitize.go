// Package sanitize limpia recursivamente los payloads crudos de Garmin antes
// de entregarlos al caller.
//
// Reglas (compatibles con el contrato histórico del servicio):
//   - Campos con valor null o 0 numérico se descartan. OJO: esto también borra
//     lecturas legítimas de cero (0 pisos subidos, 0 de stress); se mantiene
//     por compatibilidad con los consumidores existentes.
//   - Campos cuyo nombre está en la denylist de IDs internos de Garmin se
//     descartan, igual que los que contienen el marcador "endConditionCompare".
//   - Strings que son JSON embebido (Garmin devuelve algunos campos así, a
//     veces con comillas dobladas) se re-parsean y se limpian recursivamente.
//   - Un dict/lista que queda vacío tras limpiar colapsa a ausencia (nil).
package sanitize

import (
	"encoding/json"
	"strings"
)

// internalIDFields son campos internos de Garmin que nunca interesan aguas
// abajo (claves de perfil, permisos, equipamiento).
var internalIDFields = map[string]struct{}{
	"ownerId":         {},
	"userProfilePk":   {},
	"permissionId":    {},
	"userRoles":       {},
	"equipmentTypeId": {},
}

// noiseMarker identifica la familia de campos endConditionCompare* que Garmin
// incluye en definiciones de workouts.
const noiseMarker = "endConditionCompare"

// maxDepth acota la recursión. Los payloads de Garmin son árboles JSON, pero
// un blob malformado no debe tumbar el proceso.
const maxDepth = 64

// Clean aplica la limpieza recursiva sobre un árbol JSON decodificado
// (map[string]any / []any / float64 / string / bool / nil).
// Retorna nil cuando el valor completo colapsa a ausencia.
// Es idempotente: Clean(Clean(v)) == Clean(v).
func Clean(v any) any {
	return clean(v, 0)
}

func clean(v any, depth int) any {
	if depth > maxDepth {
		return nil
	}

	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, raw := range t {
			if dropKey(k) || isAbsent(raw) {
				continue
			}
			cv := clean(raw, depth+1)
			if isAbsent(cv) {
				continue
			}
			out[k] = cv
		}
		if len(out) == 0 {
			return nil
		}
		return out

	case []any:
		out := make([]any, 0, len(t))
		for _, raw := range t {
			cv := clean(raw, depth+1)
			if isAbsent(cv) {
				continue
			}
			out = append(out, cv)
		}
		if len(out) == 0 {
			return nil
		}
		return out

	case string:
		return cleanString(t, depth)

	default:
		// escalares (float64, bool, json.Number, nil) pasan tal cual;
		// el dueño del contenedor decide si 0/nil significan ausencia.
		return v
	}
}

// cleanString intenta re-parsear un string como JSON embebido. Garmin a veces
// serializa JSON dentro de strings con comillas dobladas (`""` en vez de `"`).
func cleanString(s string, depth int) any {
	trimmed := strings.TrimSpace(s)
	if !looksLikeJSON(trimmed) {
		return s
	}
	normalized := strings.ReplaceAll(trimmed, `""`, `"`)
	var parsed any
	if err := json.Unmarshal([]byte(normalized), &parsed); err != nil {
		return s
	}
	// si el embebido era un escalar string, devolverlo directo evita
	// re-parsear indefinidamente
	return clean(parsed, depth+1)
}

// looksLikeJSON evita pasar por el parser strings que claramente no son
// estructuras (la enorme mayoría de los valores de texto de Garmin).
func looksLikeJSON(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '{', '[':
		return true
	}
	return false
}

func dropKey(k string) bool {
	if _, ok := internalIDFields[k]; ok {
		return true
	}
	return strings.Contains(k, noiseMarker)
}

// isAbsent define qué cuenta como "sin valor" para el caller de un campo:
// null, cero numérico, o contenedor vacío.
func isAbsent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}
