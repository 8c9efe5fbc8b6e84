// Package mood deriva un estado de ánimo a partir del nivel de stress
// promedio que reporta Garmin (0-100). Garmin usa -1/-2 como centinela de
// "sin datos"; en ese caso no se deriva nada.
package mood

// bucket define un rango de stress [lo, hi] y el mood que le corresponde.
// Los rangos cubren [0,100] sin huecos ni solapamientos; stress bajo mapea a
// mood alto.
type bucket struct {
	lo, hi float64
	value  int
	label  string
}

var buckets = []bucket{
	{0, 10, 95, "Excited"},
	{10, 25, 85, "Happy"},
	{25, 35, 75, "Confident"},
	{35, 50, 65, "Calm"},
	{50, 60, 55, "Thoughtful"},
	{60, 75, 45, "Neutral"},
	{75, 85, 35, "Worried"},
	{85, 95, 25, "Angry"},
	{95, 100, 15, "Sad/Tired"},
}

// Derive mapea el stress promedio a (valor de mood 0-100, etiqueta).
// nil o negativo (centinela de Garmin) retorna (nil, nil).
// Valores fuera de [0,100] por input malformado caen al default (50, Neutral).
func Derive(avgStress *float64) (*int, *string) {
	if avgStress == nil || *avgStress < 0 {
		return nil, nil
	}
	s := *avgStress
	for i, b := range buckets {
		// el primer bucket incluye su borde inferior; el resto son (lo, hi]
		if (i == 0 && s >= b.lo && s <= b.hi) || (i > 0 && s > b.lo && s <= b.hi) {
			v, l := b.value, b.label
			return &v, &l
		}
	}
	v, l := 50, "Neutral"
	return &v, &l
}
