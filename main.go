package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"survey-go/internal/config"
	"survey-go/internal/database"
	"survey-go/internal/handlers"
	logger "survey-go/internal/logging"
	"survey-go/internal/metrics"
	"survey-go/internal/models"
	"survey-go/internal/repository"
	"survey-go/internal/router"
	"survey-go/internal/scoring"
	"survey-go/internal/services"
	"survey-go/internal/survey"
	"survey-go/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const projectRoot = "."

func main() {
	// Console logger until the configured one is ready.
	bootLog := logger.Bootstrap()

	conf, err := config.Init(projectRoot, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to load configuration", zap.Error(err))
	}

	log, err := logger.Init(projectRoot, conf.Logging)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(conf.Database, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}

	// Survey definitions are loaded once and shared read-only.
	catalog, err := survey.LoadCatalog(conf.Survey.CatalogPath)
	if err != nil {
		log.Fatal("Failed to load survey catalog", zap.Error(err))
	}
	engine := scoring.NewEngine(catalog)
	calculator := metrics.NewCalculator(catalog, engine)

	store := repository.NewStore(db)
	if err := seed(ctx, store, conf, log); err != nil {
		log.Fatal("Failed to seed database", zap.Error(err))
	}

	email := services.NewEmailService(store, conf.SMTP.Timeout, log)
	invitations := services.NewInvitationService(store, email, catalog, config.LiveSurvey, log)
	submissions := services.NewSubmissionService(store, catalog, engine, log)
	importer := services.NewImporter(store, catalog, log)
	dashboard := services.NewDashboardService(store, catalog, calculator)

	services.NewScheduler(log, invitations, conf.Reminders.Interval, conf.Server.BaseURL).Start(ctx)

	if conf.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.Setup(log, conf.Server, store, router.Handlers{
		Auth:        handlers.NewAuthHandler(log, store),
		Survey:      handlers.NewSurveyHandler(log, submissions, catalog, config.LiveSurvey),
		Employees:   handlers.NewEmployeeHandler(log, dashboard, importer, store, catalog),
		Invitations: handlers.NewInvitationHandler(log, invitations, conf.Server.BaseURL),
		Dashboard:   handlers.NewDashboardHandler(log, dashboard),
		SMTP:        handlers.NewSMTPHandler(log, store, email),
		Health:      handlers.NewHealthHandler(log, pinger(db)),
	})

	srv := &http.Server{
		Addr:              ":" + conf.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Server listening on http://localhost:" + conf.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run Gin server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shut down", zap.Error(err))
	}
}

// seed creates the admin account and SMTP settings on first start.
func seed(ctx context.Context, store *repository.Store, conf *config.Config, log *zap.Logger) error {
	if !utils.IsComplexPassword(conf.Admin.Password) {
		log.Warn("The configured admin password is weak; change SURVEY_ADMIN_PASSWORD")
	}
	created, err := store.EnsureAdmin(ctx, utils.NormalizeEmail(conf.Admin.Email), conf.Admin.Password)
	if err != nil {
		return err
	}
	if created {
		log.Info("Admin account created", zap.String("email", conf.Admin.Email))
	}

	return store.EnsureSMTPSettings(ctx, models.SMTPSettings{
		Host:      conf.SMTP.Host,
		Port:      conf.SMTP.Port,
		Username:  conf.SMTP.Username,
		Password:  conf.SMTP.Password,
		UseTLS:    conf.SMTP.UseTLS,
		FromEmail: conf.SMTP.FromEmail,
		FromName:  conf.SMTP.FromName,
	})
}

func pinger(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
