package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes groups every handler the API serves.
type Routes struct {
	Plants    *PlantsHandler
	Reminders *RemindersHandler
	Catalog   *CatalogHandler
	Devices   *DevicesHandler
	Health    *HealthHandler
}

// Mux registers all endpoints on a fresh ServeMux. The same wiring backs
// the server binary and the integration tests.
func (rt Routes) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /plants", rt.Plants.List)
	mux.HandleFunc("POST /plants", rt.Plants.Create)
	mux.HandleFunc("GET /plants/{id}", rt.Plants.Get)
	mux.HandleFunc("PUT /plants/{id}", rt.Plants.Update)
	mux.HandleFunc("DELETE /plants/{id}", rt.Plants.Delete)

	mux.HandleFunc("POST /plants/{id}/reminders", rt.Reminders.Add)
	mux.HandleFunc("PUT /plants/{id}/reminders/{rid}", rt.Reminders.Update)
	mux.HandleFunc("DELETE /plants/{id}/reminders/{rid}", rt.Reminders.Delete)
	mux.HandleFunc("POST /plants/{id}/reminders/{rid}/complete", rt.Reminders.Complete)

	mux.HandleFunc("GET /search", rt.Catalog.Search)
	mux.HandleFunc("GET /species", rt.Catalog.Species)
	mux.HandleFunc("GET /info/{catalogId}", rt.Catalog.Info)
	mux.HandleFunc("POST /identify", rt.Catalog.Identify)

	mux.HandleFunc("POST /devices", rt.Devices.Register)
	mux.HandleFunc("DELETE /devices/{token}", rt.Devices.Remove)

	if rt.Health != nil {
		mux.HandleFunc("GET /healthz", rt.Health.Health)
		mux.HandleFunc("GET /readyz", rt.Health.Ready)
	}
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
