package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/pos-helpdesk/internal/alert"
	"github.com/frahmantamala/pos-helpdesk/internal/auth"
	"github.com/frahmantamala/pos-helpdesk/internal/dashboard"
	"github.com/frahmantamala/pos-helpdesk/internal/metrics"
	"github.com/frahmantamala/pos-helpdesk/internal/permission"
	"github.com/frahmantamala/pos-helpdesk/internal/role"
	"github.com/frahmantamala/pos-helpdesk/internal/station"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	"github.com/frahmantamala/pos-helpdesk/internal/transport/middleware"
	"github.com/frahmantamala/pos-helpdesk/internal/transport/swagger"
	"github.com/frahmantamala/pos-helpdesk/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers is everything the router mounts. A nil handler leaves its
// routes out.
type Handlers struct {
	Auth      *auth.Handler
	User      *user.Handler
	Ticket    *ticket.Handler
	Station   *station.Handler
	Role      *role.Handler
	Alert     *alert.Handler
	Dashboard *dashboard.Handler
	Health    *HealthHandler
	Metrics   *metrics.Metrics
}

type RouterConfig struct {
	AllowedOrigins []string
	UploadTimeout  time.Duration
	MetricsPath    string
}

const defaultUploadTimeout = 600 * time.Second

func RegisterAllRoutes(router *chi.Mux, h Handlers, cfg RouterConfig, logger *slog.Logger) {
	if h.Health == nil {
		h.Health = NewHealthHandler(nil)
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = defaultUploadTimeout
	}

	rbac := auth.NewRBACAuthorization(logger)
	can := rbac.Require

	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if h.Metrics != nil {
		router.Use(h.Metrics.Middleware)
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Method(http.MethodGet, path, h.Metrics.Handler())
	}

	router.Get("/openapi.yml", swagger.SpecHandler)
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.healthCheckHandler)
		r.Get("/ping", h.Health.pingHandler)
	})

	if h.Auth == nil {
		return
	}

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Auth.Login)
		r.Post("/refresh", h.Auth.RefreshToken)
	})

	router.Route("/api/data", func(r chi.Router) {
		r.Use(h.Auth.AuthMiddleware)
		r.Use(middleware.UserContext)

		if h.User != nil {
			r.Get("/user", h.User.GetCurrentUser)
			r.Route("/users", func(ur chi.Router) {
				ur.With(can(permission.ResourceUsers, permission.ActionList)).Get("/", h.User.ListUsers)
				ur.With(can(permission.ResourceUsers, permission.ActionAdd)).Post("/", h.User.CreateUser)
				ur.With(can(permission.ResourceUsers, permission.ActionEdit)).Put("/{id}/edit", h.User.UpdateUser)
				ur.With(can(permission.ResourceUsers, permission.ActionDelete)).Delete("/{id}/delete", h.User.DeleteUser)
			})
		}

		if h.Ticket != nil {
			r.Route("/tickets", func(tr chi.Router) {
				tr.Group(func(lr chi.Router) {
					lr.Use(can(permission.ResourceTickets, permission.ActionList))
					lr.Get("/", h.Ticket.GetTickets)
					lr.Get("/export", h.Ticket.ExportTickets)
					lr.Get("/{id}", h.Ticket.GetTicket)
					lr.Get("/{id}/history", h.Ticket.GetHistory)
				})
				tr.With(can(permission.ResourceTickets, permission.ActionAdd)).Post("/", h.Ticket.CreateTicket)
				tr.Group(func(er chi.Router) {
					er.Use(can(permission.ResourceTickets, permission.ActionEdit))
					er.Put("/{id}/edit", h.Ticket.UpdateTicket)
					er.Patch("/{id}/status", h.Ticket.ChangeStatus)
					er.With(chiMiddleware.Timeout(uploadTimeout)).Post("/{id}/images", h.Ticket.UploadImage)
				})
				tr.With(can(permission.ResourceTickets, permission.ActionListAssign)).Patch("/{id}/assign", h.Ticket.AssignTicket)
				tr.With(rbac.RequireAdmin()).Post("/{id}/reopen", h.Ticket.ReopenTicket)
				tr.With(can(permission.ResourceTickets, permission.ActionDelete)).Delete("/{id}/delete", h.Ticket.DeleteTicket)
			})
			r.With(can(permission.ResourceSidebar, permission.ActionListTrack)).Get("/track/{code}", h.Ticket.TrackTicket)
		}

		if h.Station != nil {
			r.Route("/stations", func(sr chi.Router) {
				sr.With(can(permission.ResourceStations, permission.ActionList)).Get("/", h.Station.GetStations)
				sr.With(can(permission.ResourceStations, permission.ActionAdd)).Post("/", h.Station.CreateStation)
				sr.With(can(permission.ResourceStations, permission.ActionEdit)).Put("/{id}/edit", h.Station.UpdateStation)
			})
			r.With(can(permission.ResourceStations, permission.ActionDelete)).Delete("/delete_station/{id}", h.Station.DeleteStation)
		}

		if h.Role != nil {
			r.Route("/roles", func(rr chi.Router) {
				rr.With(can(permission.ResourceUserRules, permission.ActionList)).Get("/", h.Role.ListRoles)
				rr.With(can(permission.ResourceUserRules, permission.ActionList)).Get("/{id}", h.Role.GetRole)
				rr.With(can(permission.ResourceUserRules, permission.ActionAdd)).Post("/", h.Role.CreateRole)
				rr.With(can(permission.ResourceUserRules, permission.ActionEdit)).Put("/{id}/edit", h.Role.UpdateRole)
				rr.With(can(permission.ResourceUserRules, permission.ActionDelete)).Delete("/{id}/delete", h.Role.DeleteRole)
			})
		}

		if h.Alert != nil {
			r.With(can(permission.ResourceTickets, permission.ActionEdit)).Post("/alert_bot", h.Alert.SendAlert)
			r.Group(func(ar chi.Router) {
				ar.Use(rbac.RequireAdmin())
				ar.Get("/alert_logs", h.Alert.GetLogs)
				ar.Get("/telegram_groups", h.Alert.GetGroups)
				ar.Post("/telegram_groups", h.Alert.CreateGroup)
				ar.Post("/telegram_groups/{id}/members", h.Alert.AddGroupMember)
				ar.Delete("/telegram_groups/{id}/members/{userID}", h.Alert.RemoveGroupMember)
			})
		}

		if h.Dashboard != nil {
			r.With(can(permission.ResourceSidebar, permission.ActionListDashboard)).Get("/dashboard", h.Dashboard.GetDashboard)
			r.With(can(permission.ResourceSidebar, permission.ActionListReport)).Get("/report", h.Dashboard.GetReport)
		}
	})
}
