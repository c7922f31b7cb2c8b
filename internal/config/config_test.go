package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestInitDefaults(t *testing.T) {
	cfg, err := Init(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if cfg.Server.Port != "8000" {
		t.Fatalf("expected default port 8000, got %q", cfg.Server.Port)
	}
	if cfg.SMTP.Port != 1025 || cfg.SMTP.Timeout != 15*time.Second {
		t.Fatalf("unexpected smtp defaults %+v", cfg.SMTP)
	}
	if cfg.Reminders.Interval != 0 {
		t.Fatalf("expected reminders disabled, got %v", cfg.Reminders.Interval)
	}
	if Conf != cfg {
		t.Fatal("expected global Conf to be set")
	}
}

func TestInitFileAndEnv(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := []byte("server:\n  port: \"9000\"\nsurvey:\n  deadline: 10th Feb 2026\nreminders:\n  interval: 24h\n")
	if err := os.WriteFile(filepath.Join(root, "config", "config.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SURVEY_DATABASE_HOST", "pg.internal")

	cfg, err := Init(root, zap.NewNop())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Fatalf("expected port from file, got %q", cfg.Server.Port)
	}
	if cfg.Database.Host != "pg.internal" {
		t.Fatalf("expected host from env, got %q", cfg.Database.Host)
	}
	if cfg.Reminders.Interval != 24*time.Hour {
		t.Fatalf("expected 24h interval, got %v", cfg.Reminders.Interval)
	}
	if got := LiveSurvey().Deadline; got != "10th Feb 2026" {
		t.Fatalf("expected live deadline, got %q", got)
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	want := "host=h user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC"
	if got := d.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}
