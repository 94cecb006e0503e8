package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/auth"
	"github.com/frahmantamala/user-management/internal/role"
	"github.com/frahmantamala/user-management/internal/transport/middleware"
	"github.com/frahmantamala/user-management/internal/transport/swagger"
	"github.com/frahmantamala/user-management/internal/user"
	"github.com/frahmantamala/user-management/pkg/metrics"
)

// Routes collects everything RegisterAllRoutes mounts. Nil handlers skip their routes.
type Routes struct {
	Config      *internal.Config
	DB          *sql.DB
	OpenAPISpec []byte
	AuthHandler *auth.Handler
	UserHandler *user.Handler
	RoleHandler *role.Handler
	Logger      *slog.Logger
}

type welcomeResponse struct {
	Message string `json:"message"`
	Docs    string `json:"docs"`
}

func RegisterAllRoutes(router chi.Router, routes Routes) {
	cfg := routes.Config
	logger := routes.Logger

	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))
	if cfg.Observability.Metrics.Enabled {
		router.Use(middleware.Metrics)
		router.Handle(cfg.Observability.Metrics.Path, metrics.Handler())
	}

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, welcomeResponse{Message: "user management service", Docs: "/swagger/index.html"})
	})

	if len(routes.OpenAPISpec) > 0 {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(routes.OpenAPISpec)
		})
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	router.Route("/api", func(r chi.Router) {
		if routes.DB != nil {
			health := NewHealthHandler(routes.DB, cfg.Database.Driver)
			r.Get("/health", health.Health)
			r.Get("/ping", health.Ping)
		}

		if routes.AuthHandler == nil {
			return
		}
		authHandler := routes.AuthHandler

		r.Post("/login", authHandler.Login)
		r.Post("/auth/login", authHandler.Login)

		if routes.UserHandler != nil {
			if cfg.Security.RequireAuthForUserLookup {
				r.With(authHandler.AuthMiddleware, middleware.UserContext).Get("/user/{id}", routes.UserHandler.GetUser)
			} else {
				r.Get("/user/{id}", routes.UserHandler.GetUser)
			}
		}

		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)
			pr.Use(middleware.UserContext)

			if routes.UserHandler != nil {
				pr.Get("/auth/profile", routes.UserHandler.GetProfile)
				pr.Put("/auth/profile", routes.UserHandler.UpdateProfile)
				pr.Post("/auth/change-password", routes.UserHandler.ChangePassword)
			}

			pr.Group(func(ar chi.Router) {
				ar.Use(middleware.RequireRoles(logger, cfg.Security.AdminRoles...))

				if routes.UserHandler != nil {
					ar.Route("/users", func(ur chi.Router) {
						ur.Get("/", routes.UserHandler.ListUsers)
						ur.Post("/", routes.UserHandler.CreateUser)
						ur.Get("/{id}", routes.UserHandler.GetUserDetail)
						ur.Patch("/{id}", routes.UserHandler.UpdateUser)
						ur.Delete("/{id}", routes.UserHandler.DeleteUser)
					})
				}

				if routes.RoleHandler != nil {
					ar.Route("/roles", func(rr chi.Router) {
						rr.Get("/", routes.RoleHandler.ListRoles)
						rr.Post("/", routes.RoleHandler.CreateRole)
						rr.Get("/{id}", routes.RoleHandler.GetRole)
						rr.Patch("/{id}", routes.RoleHandler.UpdateRole)
						rr.Delete("/{id}", routes.RoleHandler.DeleteRole)
					})
				}
			})
		})
	})
}
