package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/medshelf/pkg/app"
	"github.com/ghuser/medshelf/services/medicine/application/handlers"
	appsvcs "github.com/ghuser/medshelf/services/medicine/application/services"
)

// MedicineRoutes registers medicine endpoints on the provided chi router.
func MedicineRoutes(r chi.Router, a *app.Application) {
	Routes(r, handlers.Deps{
		Services:   appsvcs.New(a),
		Logger:     a.Logger,
		Production: a.Config.IsProduction(),
	})
}

// Routes mounts the /medicines tree. Static segments are registered before
// /{id} so chi never routes "stats" as an id.
func Routes(r chi.Router, d handlers.Deps) {
	r.Route("/medicines", func(r chi.Router) {
		r.Get("/", handlers.NewListMedicinesHandler(d).Execute)
		r.Post("/", handlers.NewPostMedicineHandler(d).Execute)
		r.Get("/stats", handlers.NewGetStatsHandler(d).Execute)
		r.Get("/report.xlsx", handlers.NewGetReportHandler(d).Execute)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.NewGetMedicineHandler(d).Execute)
			r.Put("/", handlers.NewPutMedicineHandler(d).Execute)
			r.Patch("/", handlers.NewPatchMedicineHandler(d).Execute)
			r.Delete("/", handlers.NewDeleteMedicineHandler(d).Execute)
		})
	})
}
