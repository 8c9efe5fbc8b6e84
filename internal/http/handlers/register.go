package handlers

import (
	"github.com/go-chi/chi/v5"
)

// Register monta los endpoints de negocio. Los endpoints operativos
// (healthz, readyz, metrics) los monta el router aparte.
func (h *Handlers) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Post("/data/health_and_wellness", h.HealthAndWellness)
		r.Post("/data/activities_and_workouts", h.ActivitiesAndWorkouts)
		r.Post("/auth/garmin/login", h.GarminLogin)
		r.Post("/auth/garmin/resume_login", h.GarminResumeLogin)
	})
}
