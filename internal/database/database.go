package database

import (
	"fmt"

	"survey-go/internal/config"
	logging "survey-go/internal/logging"
	"survey-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to PostgreSQL and runs the migrations.
func Open(conf config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = logger.Warn

	db, err := gorm.Open(postgres.Open(conf.DSN()), &gorm.Config{
		Logger: gormLogger,
		// Unique violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully.")

	if err := runMigrations(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func runMigrations(db *gorm.DB, log *zap.Logger) error {
	// AutoMigrate creates tables, columns, indexes and check constraints
	// declared in the model tags.
	err := db.AutoMigrate(
		&models.AdminUser{},
		&models.Employee{},
		&models.SurveyAssignment{},
		&models.Submission{},
		&models.Response{},
		&models.Comment{},
		&models.SMTPSettings{},
		&models.DispatchRun{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	// Pending work is always looked up by (survey, submitted, invited).
	pendingIndex := `CREATE INDEX IF NOT EXISTS idx_assignments_pending ON survey_assignments (survey_code, is_submitted, invited_at);`
	if err := db.Exec(pendingIndex).Error; err != nil {
		return fmt.Errorf("failed to create custom index on assignments table: %w", err)
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}
