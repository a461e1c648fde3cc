package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tasktrackhq/tasktrack-api/internal/api"
	apimiddleware "github.com/tasktrackhq/tasktrack-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware. The context bounds the rate limiter's janitor
// goroutine.
func (app *application) setupRouter(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.Trace)
	r.Use(apimiddleware.RequestLogger)
	r.Use(apimiddleware.Metrics)

	authHandler := api.NewAuthHandler(app.authService, app.logger)
	projectHandler := api.NewProjectHandler(app.projectService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	// Credential endpoints are rate limited per client IP; everything
	// else is already gated by the bearer token.
	var limiterStore *apimiddleware.LimiterStore
	if app.config.RateLimit.Enabled {
		limiterStore = apimiddleware.NewLimiterStore(app.config.RateLimit.RPS, app.config.RateLimit.Burst)
		limiterStore.StartJanitor(ctx)
	}
	rateLimit := apimiddleware.RateLimit(app.config.RateLimit, limiterStore)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Route("/projects", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/", projectHandler.Create)
		r.Get("/", projectHandler.List)
		r.Get("/{id}", projectHandler.Get)
		r.Patch("/{id}", projectHandler.Update)
		r.Delete("/{id}", projectHandler.Delete)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/", taskHandler.Create)
		r.Get("/", taskHandler.List)
		r.Get("/{id}", taskHandler.Get)
		r.Patch("/{id}", taskHandler.Update)
		r.Delete("/{id}", taskHandler.Delete)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	r.Method(http.MethodGet, "/metrics", apimiddleware.MetricsHandler())

	return r
}
