package server

import (
	"fmt"

	"github.com/arnavshah/crew-scheduler-api/pkg/auth"
	"github.com/arnavshah/crew-scheduler-api/pkg/config"
	"github.com/arnavshah/crew-scheduler-api/pkg/database"
	"github.com/arnavshah/crew-scheduler-api/pkg/handlers"
	"github.com/arnavshah/crew-scheduler-api/pkg/logger"
	"github.com/arnavshah/crew-scheduler-api/pkg/metrics"
	"github.com/arnavshah/crew-scheduler-api/pkg/notify"
	"github.com/arnavshah/crew-scheduler-api/pkg/repository"
	"github.com/arnavshah/crew-scheduler-api/pkg/staffing"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// App bundles the wired service and its HTTP router.
type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Service *staffing.Service
	Handler *handlers.Handler
	Router  *gin.Engine
	Log     logger.Logger

	closeNotifier func()
}

// Build opens the database, bootstraps the admin account and wires the
// staffing service, notifiers and metrics into a router.
func Build(cfg *config.Config) (*App, error) {
	log := logger.NewWithOptions("server", logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	gin.SetMode(cfg.Server.Mode)

	db, err := database.OpenAndMigrate(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	am := auth.NewManager(cfg.Auth)
	created, err := am.EnsureAdminExists(db, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		log.Infof("created admin user %s", cfg.Auth.AdminUsername)
	}

	var rec staffing.Recorder = metrics.Nop{}
	if cfg.Metrics.Enabled {
		m, err := metrics.New(cfg.Metrics.Namespace)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		rec = m
	}

	notifier, closeNotifier, err := notify.FromConfig(cfg.Notify, log.With(map[string]any{"module": "notify"}))
	if err != nil {
		return nil, fmt.Errorf("notifiers: %w", err)
	}

	store := repository.New(db)
	svc := staffing.NewService(staffing.Deps{
		Missions:      store,
		Technicians:   store,
		Windows:       store,
		Assignments:   store,
		Billing:       store,
		Notifier:      notifier,
		Metrics:       rec,
		Logger:        log.With(map[string]any{"module": "staffing"}),
		HashPassword:  am.HashPassword,
		CheckPassword: auth.CheckPasswordHash,
		LenientDates:  cfg.Scheduling.LenientDates,
	})

	h := &handlers.Handler{DB: db, Service: svc, Auth: am, Log: log.With(map[string]any{"module": "http"})}

	return &App{
		Config:        cfg,
		DB:            db,
		Service:       svc,
		Handler:       h,
		Router:        NewRouter(h, cfg.Metrics.Enabled),
		Log:           log,
		closeNotifier: closeNotifier,
	}, nil
}

// Close releases notifier connections and the database pool.
func (a *App) Close() error {
	if a.closeNotifier != nil {
		a.closeNotifier()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
