package rest

import (
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"

	"github.com/frahmantamala/leave-management/internal/account"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/swagger"
)

type Handlers struct {
	Health  *HealthHandler
	Auth    *auth.Handler
	Account *account.Handler
	Leave   *leave.Handler
	RBAC    *auth.RBACAuthorization
}

type Options struct {
	AllowedOrigins []string
	// RateLimit is applied to every API route when set.
	RateLimit func(http.Handler) http.Handler
	OpenAPI   *swagger.Document
}

func RegisterAllRoutes(router chi.Router, h Handlers, opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if opts.OpenAPI != nil {
		router.Get("/openapi.yml", opts.OpenAPI.ServeYAML)
		router.Get("/openapi.json", opts.OpenAPI.ServeJSON)
		router.Handle("/swagger/*", swagger.Handler("/openapi.json"))
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		r.Group(func(r chi.Router) {
			if opts.RateLimit != nil {
				r.Use(opts.RateLimit)
			}

			r.Route("/auth", func(ar chi.Router) {
				ar.Post("/login", h.Auth.Login)
				ar.Post("/refresh", h.Auth.RefreshToken)
				ar.Post("/logout", h.Auth.Logout)
			})

			r.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)

				pr.Get("/accounts/me", h.Account.GetCurrentAccount)

				pr.Route("/leaves", func(lr chi.Router) {
					lr.Get("/", h.Leave.GetHistory)
					lr.Post("/", h.Leave.Apply)
					lr.Get("/balance", h.Leave.GetMyBalance)

					lr.Group(func(ar chi.Router) {
						ar.Use(h.RBAC.RequireAdmin())
						ar.Get("/pending", h.Leave.GetPending)
						ar.Patch("/{id}/approve", h.Leave.Approve)
						ar.Patch("/{id}/reject", h.Leave.Reject)
					})
				})

				pr.Group(func(ar chi.Router) {
					ar.Use(h.RBAC.RequireAdmin())
					ar.Get("/accounts/{id}/leave-balance", h.Leave.GetAccountBalance)
					ar.Post("/accounts/{id}/leave-balance/recalculate", h.Leave.Recalculate)
				})
			})
		})
	})
}
