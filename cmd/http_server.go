package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/user-management/api"
	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/auth"
	"github.com/frahmantamala/user-management/internal/core/events"
	"github.com/frahmantamala/user-management/internal/role"
	roleRepository "github.com/frahmantamala/user-management/internal/role/mysql"
	"github.com/frahmantamala/user-management/internal/transport"
	"github.com/frahmantamala/user-management/internal/transport/rest"
	"github.com/frahmantamala/user-management/internal/user"
	userRepository "github.com/frahmantamala/user-management/internal/user/mysql"
	"github.com/frahmantamala/user-management/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			slog.Error("server exited", "error", err)
			os.Exit(1)
		}
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *database
	Router   *chi.Mux
	EventBus *events.EventBus
	Logger   *slog.Logger
}

func startHTTPServer() error {
	deps, err := initializeDependencies()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("starting HTTP server", "address", addr, "driver", deps.Config.Database.Driver)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = deps.DB.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	}

	deps.EventBus.Wait()
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("database close error", "error", err)
	}
	deps.Logger.Info("server stopped")
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	if _, err := api.Load(context.Background()); err != nil {
		return nil, err
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg)

	hasher := auth.NewBcryptHasher(cfg.Security.BCryptCost)
	issuer := auth.NewJWTIssuer(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration)

	userRepo := userRepository.NewUserRepository(db.Gorm, db.SQLX)
	roleRepo := roleRepository.NewRoleRepository(db.Gorm)

	userService := user.NewService(userRepo, hasher, lg)
	roleService := role.NewService(roleRepo, lg)
	authService := auth.NewService(userService, hasher, issuer, bus, lg)

	base := transport.NewBaseHandler(lg)
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Routes{
		Config:      cfg,
		DB:          db.SQLX.DB,
		OpenAPISpec: api.Spec(),
		AuthHandler: auth.NewHandler(base, authService),
		UserHandler: user.NewHandler(base, userService),
		RoleHandler: role.NewHandler(base, roleService),
		Logger:      lg,
	})

	return &Dependencies{
		Config:   cfg,
		DB:       db,
		Router:   router,
		EventBus: bus,
		Logger:   lg,
	}, nil
}
