// Package wellness agrega las métricas de salud de Garmin sobre un rango de
// fechas en un único mapa normalizado listo para responder.
package wellness

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/garminbridge/internal/observability/logger"
	"github.com/dropDatabas3/garminbridge/internal/sanitize"
)

// Aggregator orquesta la consulta por métrica y por día contra el vendor.
// Cada consulta falla de forma aislada: un error en (métrica, día) se loguea
// y deja un hueco, nunca tumba el request completo.
type Aggregator struct {
	limit int
}

// New construye un aggregator con el paralelismo dado. limit <= 1 significa
// secuencial (el comportamiento por defecto, más amable con el rate limit
// del vendor).
func New(limit int) *Aggregator {
	if limit < 1 {
		limit = 1
	}
	registerMetrics()
	return &Aggregator{limit: limit}
}

// Fetch resuelve las métricas pedidas sobre [start, end] inclusive.
// requested vacío equivale al set completo AllMetrics; identificadores
// desconocidos se ignoran con warning. El resultado solo contiene métricas
// con al menos una entrada, ya sanitizadas.
func (a *Aggregator) Fetch(ctx context.Context, c Client, start, end string, requested []string) (map[string]any, error) {
	days, err := ExpandRange(start, end)
	if err != nil {
		return nil, err
	}

	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("wellness.Fetch"))

	metrics := requested
	if len(metrics) == 0 {
		metrics = AllMetrics
	}

	// slots indexados por día para que el orden de salida no dependa del
	// scheduling de las goroutines
	type slotSet struct {
		spec  metricSpec
		slots [][]any
	}
	work := make(map[string]*slotSet, len(metrics))
	order := make([]string, 0, len(metrics))
	for _, id := range metrics {
		spec, ok := registry[id]
		if !ok {
			log.Warn("métrica desconocida, se ignora", logger.Metric(id))
			continue
		}
		if _, dup := work[id]; dup {
			continue
		}
		n := len(days)
		if spec.fetchOnce != nil {
			n = 1
		}
		work[id] = &slotSet{spec: spec, slots: make([][]any, n)}
		order = append(order, id)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)

	for _, id := range order {
		ss := work[id]
		if ss.spec.fetchOnce != nil {
			id := id
			g.Go(func() error {
				entries, ferr := ss.spec.fetchOnce(gctx, c, days[0])
				ss.slots[0] = a.settle(log, id, days[0], entries, ferr)
				return nil
			})
			continue
		}
		for i, day := range days {
			id, i, day := id, i, day
			g.Go(func() error {
				entries, ferr := ss.spec.fetch(gctx, c, day)
				ss.slots[i] = a.settle(log, id, day, entries, ferr)
				return nil
			})
		}
	}
	// las tareas nunca devuelven error, Wait solo sincroniza
	_ = g.Wait()

	out := make(map[string]any, len(order))
	for _, id := range order {
		var entries []any
		for _, slot := range work[id].slots {
			entries = append(entries, slot...)
		}
		cleaned := make([]any, 0, len(entries))
		for _, e := range entries {
			if c := sanitize.Clean(e); c != nil {
				cleaned = append(cleaned, c)
			}
		}
		if len(cleaned) > 0 {
			out[id] = cleaned
		}
	}
	return out, nil
}

// settle registra el resultado de una consulta individual y la traduce a
// entradas para su slot. Los errores del vendor se absorben acá.
func (a *Aggregator) settle(log *zap.Logger, metric, day string, entries []any, err error) []any {
	switch {
	case err != nil:
		observeFetch(metric, "error")
		log.Warn("fallo al consultar métrica, se omite el día",
			logger.Metric(metric),
			logger.Date(day),
			logger.Err(err),
		)
		return nil
	case len(entries) == 0:
		observeFetch(metric, "empty")
		return nil
	default:
		observeFetch(metric, "ok")
		return entries
	}
}
