package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func trace(l logger.Interface, begin time.Time, err error) {
	l.Trace(context.Background(), begin, func() (string, int64) { return "SELECT 1", 1 }, err)
}

func TestGormZapLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormZapLogger(zap.New(core))

	trace(l, time.Now(), gorm.ErrRecordNotFound)
	if logs.Len() != 0 {
		t.Fatalf("record not found should not be logged at warn level, got %d entries", logs.Len())
	}

	trace(l, time.Now(), gorm.ErrDuplicatedKey)
	trace(l, time.Now(), errors.New("boom"))
	trace(l, time.Now().Add(-time.Second), nil)
	trace(l, time.Now(), nil)

	entries := logs.AllUntimed()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []struct {
		level zapcore.Level
		msg   string
	}{
		{zapcore.WarnLevel, "GORM Trace [DUPLICATE]"},
		{zapcore.ErrorLevel, "GORM Trace"},
		{zapcore.WarnLevel, "GORM Trace [SLOW]"},
	}
	for i, w := range want {
		if entries[i].Level != w.level || entries[i].Message != w.msg {
			t.Fatalf("entry %d: got %s %q, want %s %q", i, entries[i].Level, entries[i].Message, w.level, w.msg)
		}
	}
}

func TestGormZapLoggerSilent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormZapLogger(zap.New(core)).LogMode(logger.Silent)
	trace(l, time.Now(), errors.New("boom"))
	if logs.Len() != 0 {
		t.Fatal("silent logger must not write")
	}
}

func TestGormZapLoggerInfoLogsQueries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormZapLogger(zap.New(core)).LogMode(logger.Info)
	trace(l, time.Now(), nil)
	if logs.Len() != 1 || logs.All()[0].Level != zapcore.DebugLevel {
		t.Fatalf("expected one debug entry, got %v", logs.All())
	}
}
