package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/brainace/internal/api"
	apiMiddleware "github.com/phrazzld/brainace/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	gardenHandler := api.NewGardenHandler(app.gardenService, app.logger)
	sessionHandler := api.NewSessionHandler(
		app.gardenService,
		app.reviewService,
		app.sessions,
		app.defaultFilter(),
		app.logger,
	)

	r.Route("/api", func(r chi.Router) {
		gardenHandler.RegisterRoutes(r)
		sessionHandler.RegisterRoutes(r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
