package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"taskboard/internal/events"
	mw "taskboard/internal/middleware"
)

// Tokens issues and verifies access tokens.
type Tokens interface {
	TokenIssuer
	mw.TokenParser
}

// Deps is everything the HTTP surface needs.
type Deps struct {
	Logger      *zap.Logger
	Users       UserStore
	Projects    ProjectStore
	Snapshots   SnapshotSource
	Tokens      Tokens
	Events      events.Publisher
	Broker      BrokerStatus
	Clock       Clock
	CORSOrigins []string
}

func NewRouter(d Deps) http.Handler {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	authHandler := NewAuthHandler(d.Users, d.Tokens, d.Clock)
	userHandler := NewUserHandler(d.Users)
	projectHandler := NewProjectHandler(d.Projects, d.Events, d.Clock)
	adminHandler := NewAdminHandler(d.Users, d.Projects, d.Snapshots, d.Clock)
	authMW := mw.NewAuthMiddleware(d.Tokens, d.Users)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.ZapRequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", NewHealth(d.Broker))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", authHandler.Register)
		api.Post("/auth/login", authHandler.Login)

		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)

			pr.Get("/profile", userHandler.GetMe)
			pr.Put("/profile", userHandler.UpdateMe)
			pr.Patch("/profile", userHandler.UpdateMe)
			pr.Post("/profile/password", userHandler.ChangePassword)
			pr.Get("/reward", userHandler.Reward)

			pr.Get("/notifications", projectHandler.Notifications)
			pr.Get("/projects", projectHandler.List)
			pr.Post("/projects", projectHandler.Create)
			pr.Get("/projects/{id}", projectHandler.Get)
			pr.Patch("/projects/{id}", projectHandler.Update)
			pr.Put("/projects/{id}", projectHandler.Update)
			pr.Delete("/projects/{id}", projectHandler.Delete)

			pr.Route("/admin", func(ad chi.Router) {
				ad.Use(mw.RequireAdmin)
				ad.Get("/dashboard/stats", adminHandler.Stats)
				ad.Get("/activities", adminHandler.Activities)

				ad.Get("/projects", adminHandler.ListProjects)
				ad.Get("/projects/{id}", adminHandler.GetProject)
				ad.Patch("/projects/{id}", adminHandler.UpdateProject)
				ad.Delete("/projects/{id}", adminHandler.DeleteProject)

				ad.Get("/users", adminHandler.ListUsers)
				ad.Post("/users", adminHandler.CreateUser)
				ad.Get("/users/{id}", adminHandler.GetUser)
				ad.Patch("/users/{id}", adminHandler.UpdateUser)
				ad.Delete("/users/{id}", adminHandler.DeleteUser)
			})
		})
	})
	return r
}
