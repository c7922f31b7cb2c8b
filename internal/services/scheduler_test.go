package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type stubDispatcher struct {
	mu    sync.Mutex
	calls []DispatchOptions
	err   error
}

func (d *stubDispatcher) Dispatch(ctx context.Context, opts DispatchOptions) (*DispatchReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, opts)
	if d.err != nil {
		return nil, d.err
	}
	return &DispatchReport{Kind: KindReminder}, nil
}

func TestSchedulerRunOnceSendsReminders(t *testing.T) {
	d := &stubDispatcher{}
	s := NewScheduler(zap.NewNop(), d, 0, "https://survey.test")

	s.RunOnce(context.Background())

	if len(d.calls) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(d.calls))
	}
	if got := d.calls[0]; !got.Reminders || got.BaseURL != "https://survey.test" || got.EmployeeID != 0 {
		t.Fatalf("unexpected options %+v", got)
	}
}

func TestSchedulerRunOnceSurvivesErrors(t *testing.T) {
	d := &stubDispatcher{err: errors.New("database down")}
	NewScheduler(zap.NewNop(), d, 0, "https://survey.test").RunOnce(context.Background())
	if len(d.calls) != 1 {
		t.Fatal("dispatch should have been attempted")
	}
}

func TestSchedulerDisabled(t *testing.T) {
	for name, s := range map[string]*Scheduler{
		"zero interval": NewScheduler(zap.NewNop(), &stubDispatcher{}, 0, "https://survey.test"),
		"no base url":   NewScheduler(zap.NewNop(), &stubDispatcher{}, 1, ""),
	} {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			s.Start(ctx)
			if d := s.dispatcher.(*stubDispatcher); len(d.calls) != 0 {
				t.Fatal("a disabled scheduler must not dispatch")
			}
		})
	}
}
