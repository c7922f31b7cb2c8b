package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// liveSurvey holds the survey settings, replaced when the config file changes.
var liveSurvey atomic.Pointer[SurveyConfig]

// Config struct is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Admin     AdminConfig     `mapstructure:"admin"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Survey    SurveyConfig    `mapstructure:"survey"`
	Reminders RemindersConfig `mapstructure:"reminders"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
	// BaseURL is used for links in e-mails sent outside of a request, such
	// as scheduled reminders. Empty means the request host is used.
	BaseURL       string `mapstructure:"base_url"`
	SecureCookies bool   `mapstructure:"secure_cookies"`
	Environment   string `mapstructure:"environment"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AdminConfig seeds the shared administrator account on first start.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// SMTPConfig seeds the SMTP settings row on first start. Afterwards the
// settings are edited from the admin pages.
type SMTPConfig struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	UseTLS    bool          `mapstructure:"use_tls"`
	FromEmail string        `mapstructure:"from_email"`
	FromName  string        `mapstructure:"from_name"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SurveyConfig holds survey content settings.
type SurveyConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
	Deadline    string `mapstructure:"deadline"`
	Company     string `mapstructure:"company"`
}

// RemindersConfig controls the automatic reminder scheduler.
type RemindersConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.session_secret", "change_me")
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.environment", "development")

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "survey_db")
	v.SetDefault("database.sslmode", "disable")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	v.SetDefault("admin.email", "admin@example.com")
	v.SetDefault("admin.password", "changeme123")

	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 1025)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.use_tls", false)
	v.SetDefault("smtp.from_email", "survey@example.com")
	v.SetDefault("smtp.from_name", "Survey Bot")
	v.SetDefault("smtp.timeout", "15s")

	v.SetDefault("survey.catalog_path", "")
	v.SetDefault("survey.deadline", "")
	v.SetDefault("survey.company", "")

	v.SetDefault("reminders.interval", "0s") // disabled
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("SURVEY") // e.g., SURVEY_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		fileFound = false
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	Conf = &cfg
	survey := cfg.Survey
	liveSurvey.Store(&survey)

	// Set up a watch for configuration changes for hot-reloading
	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
			var next Config
			if err := v.Unmarshal(&next); err != nil {
				log.Error("Error reloading configuration", zap.Error(err))
				return
			}
			// Only survey content is reloaded; connections and secrets are
			// bound at startup.
			liveSurvey.Store(&next.Survey)
		})
	}

	if Conf.Server.SessionSecret == "change_me" {
		log.Warn("Using the default session secret; set SURVEY_SERVER_SESSION_SECRET in production")
	}

	log.Info("Configuration loaded successfully")
	return Conf, nil
}

// LiveSurvey returns the current survey settings, including changes picked
// up from the config file after startup.
func LiveSurvey() SurveyConfig {
	if s := liveSurvey.Load(); s != nil {
		return *s
	}
	return SurveyConfig{}
}

// DSN builds the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
}
