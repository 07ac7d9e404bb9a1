package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/leave-management/internal/account"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/rest"
	"github.com/frahmantamala/leave-management/internal/transport/swagger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

func startHTTPServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, httpHandlers(app), httpOptions(ctx, app))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.Logger.Info("starting HTTP server", "address", server.Addr, "cache_enabled", app.Redis != nil)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		app.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Close(context.Background())
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("server shutdown error", "error", err)
	}
	app.Close(shutdownCtx)

	app.Logger.Info("server stopped")
	return nil
}

func httpHandlers(app *application) rest.Handlers {
	checks := map[string]rest.PingFunc{
		"postgres": app.DB.PingContext,
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }
	}

	return rest.Handlers{
		Health:  rest.NewHealthHandler(checks),
		Auth:    auth.NewHandler(app.Auth),
		Account: account.NewHandler(app.Accounts),
		Leave:   leave.NewHandler(app.Leaves),
		RBAC:    auth.NewRBACAuthorization(auth.NewPermissionChecker(), app.Logger),
	}
}

func httpOptions(ctx context.Context, app *application) rest.Options {
	server := app.Config.Server
	opts := rest.Options{AllowedOrigins: server.Origins()}

	if server.RateLimit.Enabled {
		opts.RateLimit = middleware.RateLimit(server.RateLimit.RequestsPerSecond, server.RateLimit.Burst)
	}

	if server.OpenAPIPath != "" {
		doc, err := swagger.Load(ctx, server.OpenAPIPath)
		if err != nil {
			app.Logger.Warn("api docs disabled", "path", server.OpenAPIPath, "error", err)
		} else {
			opts.OpenAPI = doc
		}
	}
	return opts
}

func init() {
	rootCmd.AddCommand(httpServerCmd)
}
