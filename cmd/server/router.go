package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/laneboard/internal/api"
	apimiddleware "github.com/phrazzld/laneboard/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceID)
	r.Use(apimiddleware.RequestLogger(app.logger))

	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.logger)
	laneHandler := api.NewSwimLaneHandler(app.laneService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	sseHandler := api.NewSSEHandler(app.broker, app.logger)

	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Swimlane endpoints
			r.Get("/lanes", laneHandler.List)
			r.Post("/lanes", laneHandler.Create)
			r.Get("/lanes/completed", laneHandler.ListCompleted)
			r.Put("/lanes/reorder", laneHandler.Reorder)
			r.Get("/lanes/{laneID}", laneHandler.Get)
			r.Put("/lanes/{laneID}", laneHandler.Rename)
			r.Delete("/lanes/{laneID}", laneHandler.Delete)
			r.Post("/lanes/{laneID}/complete", laneHandler.Complete)
			r.Post("/lanes/{laneID}/uncomplete", laneHandler.Uncomplete)

			// Task endpoints
			r.Get("/tasks/swimlane/{laneID}", taskHandler.ListBySwimLane)
			r.Post("/tasks", taskHandler.Create)
			r.Get("/tasks/{taskID}", taskHandler.Get)
			r.Put("/tasks/{taskID}", taskHandler.Update)
			r.Delete("/tasks/{taskID}", taskHandler.Delete)
			r.Patch("/tasks/{taskID}/move", taskHandler.Move)

			// Comment endpoints
			r.Post("/tasks/{taskID}/comments", taskHandler.AddComment)
			r.Put("/tasks/{taskID}/comments/{commentID}", taskHandler.UpdateComment)
			r.Delete("/tasks/{taskID}/comments/{commentID}", taskHandler.DeleteComment)

			// Live board change events
			r.Get("/events", sseHandler.Stream)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("writing health check response", "error", err)
		}
	})

	return r
}
