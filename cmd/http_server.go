package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/pos-helpdesk/internal/alert"
	"github.com/frahmantamala/pos-helpdesk/internal/auth"
	"github.com/frahmantamala/pos-helpdesk/internal/dashboard"
	"github.com/frahmantamala/pos-helpdesk/internal/role"
	"github.com/frahmantamala/pos-helpdesk/internal/station"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	"github.com/frahmantamala/pos-helpdesk/internal/transport"
	"github.com/frahmantamala/pos-helpdesk/internal/transport/rest"
	"github.com/frahmantamala/pos-helpdesk/internal/user"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	app, err := newApp(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	router := chi.NewRouter()
	setupRoutes(router, app)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	app.Logger.Info("Starting HTTP server", "address", addr, "env", cfg.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	// image uploads run under their own longer route timeout
	if cfg.Server.UploadTimeout > server.WriteTimeout {
		server.WriteTimeout = cfg.Server.UploadTimeout
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		app.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			app.Logger.Error("Server shutdown error", "error", err)
		}
		if err := app.Bus.Wait(ctx); err != nil {
			app.Logger.Warn("Event handlers still running at shutdown", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("Server failed to start", "error", err)
			app.Close()
			os.Exit(1)
		}
	}

	app.Logger.Info("Server stopped")
}

func setupRoutes(router *chi.Mux, app *App) {
	cfg := app.Config
	base := transport.NewBaseHandler(app.Logger)

	ticketHandler := ticket.NewHandler(base, app.Tickets)
	ticketHandler.MaxUploadBytes = cfg.Upload.MaxBytes

	handlers := rest.Handlers{
		Auth:      auth.NewHandler(base, app.Auth),
		User:      user.NewHandler(base, app.Users),
		Ticket:    ticketHandler,
		Station:   station.NewHandler(base, app.Stations),
		Role:      role.NewHandler(base, app.Roles),
		Alert:     alert.NewHandler(base, app.Alerts),
		Dashboard: dashboard.NewHandler(base, app.Dashboard),
		Health:    rest.NewHealthHandler(healthChecks(app)),
	}
	if cfg.Observability.Metrics.Enabled {
		handlers.Metrics = app.Metrics
	}

	rest.RegisterAllRoutes(router, handlers, rest.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOriginList(),
		UploadTimeout:  cfg.Server.UploadTimeout,
		MetricsPath:    cfg.Observability.Metrics.Path,
	}, app.Logger)
}

func healthChecks(app *App) map[string]rest.Checker {
	checks := map[string]rest.Checker{
		"postgres": app.DB.PingContext,
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
