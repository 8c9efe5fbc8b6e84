// Package logger provee el logger zap del servicio: un singleton global con
// scoping por contexto.
//
// Init() se llama una vez en main.go; "dev" loguea a consola con colores y
// "prod" en JSON. El middleware de request ID inyecta un logger con el
// request_id ya puesto vía ToContext, y cualquier capa lo recupera con
// From(ctx) sin importar si hubo middleware o no:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("wellness.Fetch"))
//	log.Info("datos servidos", logger.UserID(userID), logger.Count(n))
//
// Los campos tipados de fields.go (UserID, Metric, Date, …) mantienen los
// nombres de campo consistentes en todo el servicio.
package logger
