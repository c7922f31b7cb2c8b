package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler periodically re-sends invitations that were never answered.
type Scheduler struct {
	log        *zap.Logger
	dispatcher Dispatcher
	interval   time.Duration
	baseURL    string
}

func NewScheduler(log *zap.Logger, dispatcher Dispatcher, interval time.Duration, baseURL string) *Scheduler {
	return &Scheduler{
		log:        log,
		dispatcher: dispatcher,
		interval:   interval,
		baseURL:    baseURL,
	}
}

// Start runs the scheduler in a goroutine until ctx is cancelled. A zero
// interval disables automatic reminders.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info("Automatic reminders disabled")
		return
	}
	if s.baseURL == "" {
		s.log.Warn("Automatic reminders disabled: server.base_url is not set")
		return
	}

	s.log.Info("Starting reminder scheduler...", zap.Duration("interval", s.interval))
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info("Reminder scheduler stopped")
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce sends one round of reminders.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.log.Debug("Running reminder check")
	report, err := s.dispatcher.Dispatch(ctx, DispatchOptions{BaseURL: s.baseURL, Reminders: true})
	if err != nil {
		s.log.Error("Failed to send reminders", zap.Error(err))
		return
	}
	if report.Failed > 0 {
		s.log.Warn("Some reminders could not be delivered",
			zap.Int("failed", report.Failed), zap.Strings("failures", report.Failures))
	}
}
