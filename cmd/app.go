package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/frahmantamala/pos-helpdesk/internal/alert"
	alertPostgres "github.com/frahmantamala/pos-helpdesk/internal/alert/postgres"
	"github.com/frahmantamala/pos-helpdesk/internal/auth"
	authPostgres "github.com/frahmantamala/pos-helpdesk/internal/auth/postgres"
	"github.com/frahmantamala/pos-helpdesk/internal/core/events"
	"github.com/frahmantamala/pos-helpdesk/internal/dashboard"
	dashboardPostgres "github.com/frahmantamala/pos-helpdesk/internal/dashboard/postgres"
	"github.com/frahmantamala/pos-helpdesk/internal/metrics"
	"github.com/frahmantamala/pos-helpdesk/internal/permission"
	"github.com/frahmantamala/pos-helpdesk/internal/role"
	rolePostgres "github.com/frahmantamala/pos-helpdesk/internal/role/postgres"
	"github.com/frahmantamala/pos-helpdesk/internal/station"
	stationPostgres "github.com/frahmantamala/pos-helpdesk/internal/station/postgres"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	ticketPostgres "github.com/frahmantamala/pos-helpdesk/internal/ticket/postgres"
	"github.com/frahmantamala/pos-helpdesk/internal/user"
	userPostgres "github.com/frahmantamala/pos-helpdesk/internal/user/postgres"
	"github.com/frahmantamala/pos-helpdesk/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// App holds the shared connections and services built from the config.
// The server and the alert worker both start from it.
type App struct {
	Config  *internal.Config
	Logger  *slog.Logger
	DB      *sqlx.DB
	Gorm    *gorm.DB
	Redis   *redis.Client
	Bus     *events.EventBus
	Metrics *metrics.Metrics

	Permissions *permission.Service
	Auth        *auth.Service
	Users       *user.Service
	Roles       *role.Service
	Stations    *station.Service
	Tickets     *ticket.Service
	Alerts      *alert.Service
	Dashboard   *dashboard.Service

	AlertRepo  *alertPostgres.AlertRepository
	Dispatcher *alert.Dispatcher
}

func newApp(ctx context.Context, cfg *internal.Config) (*App, error) {
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  lg,
		DB:      db,
		Gorm:    gdb,
		Bus:     events.NewEventBus(lg),
		Metrics: metrics.New(),
	}
	a.Metrics.Subscribe(a.Bus)

	var cache permission.Cache = permission.NoopCache{}
	if cfg.Redis.Enabled {
		a.Redis, err = initRedis(ctx, cfg.Redis)
		if err != nil {
			lg.Warn("redis unavailable, permission cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			cache = permission.NewRedisCache(a.Redis, cfg.Redis.PermissionTTL)
		}
	}
	a.Permissions = permission.NewService(cache, cfg.Security.LegacyAdminRoleID, lg)
	a.Permissions.ObserveCache(a.Metrics.ObservePermissionCache)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	a.Auth = auth.NewService(authPostgres.NewRepository(gdb), tokens, a.Permissions, lg)

	userRepo := userPostgres.NewUserRepository(gdb)
	stationRepo := stationPostgres.NewStationRepository(gdb)

	a.Users = user.NewService(userRepo, a.Permissions, cfg.Security.BCryptCost, lg)
	a.Roles = role.NewService(rolePostgres.NewRoleRepository(gdb), a.Permissions, a.Permissions, lg)
	a.Stations = station.NewService(stationRepo, lg)

	a.AlertRepo = alertPostgres.NewAlertRepository(gdb)
	a.Dispatcher = alert.NewDispatcher(a.AlertRepo, a.Bus, lg, buildSenders(cfg, lg)...)
	notifier := alert.NewTicketNotifier(a.Dispatcher, userRepo, a.AlertRepo, cfg.Telegram.DefaultChatID, lg)

	a.Tickets = ticket.NewService(ticketPostgres.NewTicketRepository(gdb), stationRepo, userRepo, lg,
		ticket.WithNotifier(notifier),
		ticket.WithPublisher(a.Bus),
		ticket.WithImageStore(ticket.NewDiskImageStore(cfg.Upload.Dir), cfg.Upload.MaxBytes),
		ticket.WithAlertTimeout(cfg.Alert.Timeout),
	)
	a.Alerts = alert.NewService(a.AlertRepo, a.Dispatcher, notifier, a.Tickets, userRepo, lg)
	a.Dashboard = dashboard.NewService(dashboardPostgres.NewDashboardRepository(db), lg)

	return a, nil
}

// buildSenders returns the senders enabled in the config. A Telegram bot
// that cannot be reached at startup is logged and left out.
func buildSenders(cfg *internal.Config, lg *slog.Logger) []alert.Sender {
	var senders []alert.Sender
	if cfg.Telegram.Enabled {
		tg, err := alert.NewTelegramSender(cfg.Telegram.BotToken)
		if err != nil {
			lg.Error("telegram sender disabled", "error", err)
		} else {
			senders = append(senders, tg)
		}
	}
	if cfg.Email.Enabled {
		senders = append(senders, alert.NewEmailSender(alert.EmailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}))
	}
	return senders
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Database close error", "error", err)
	}
}

// initDB opens the pgx pool shared by sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Open(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
}

func initRedis(ctx context.Context, cfg internal.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
