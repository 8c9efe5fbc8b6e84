package wellness

import "fmt"

// InvalidRangeError indica un rango de fechas malformado o invertido.
// Es fatal para el request (no hay "éxito parcial" posible sin rango).
type InvalidRangeError struct {
	Start, End string
	Reason     string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("wellness: rango de fechas inválido [%s, %s]: %s", e.Start, e.End, e.Reason)
}
