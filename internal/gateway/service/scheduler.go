package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRotationSchedule checks for an expired key once a minute.
const DefaultRotationSchedule = "@every 1m"

// RotationScheduler periodically refreshes the current key so an expired
// key never lingers waiting for an admin request.
type RotationScheduler struct {
	Rotation *KeyRotationService
	Logger   *slog.Logger
	Schedule string

	cron *cron.Cron
}

// NewRotationScheduler validates schedule (standard cron syntax or a
// descriptor such as "@every 1m") and returns a stopped scheduler.
func NewRotationScheduler(rotation *KeyRotationService, logger *slog.Logger, schedule string) (*RotationScheduler, error) {
	if schedule == "" {
		schedule = DefaultRotationSchedule
	}

	s := &RotationScheduler{
		Rotation: rotation,
		Logger:   logger,
		Schedule: schedule,
	}

	cl := cronLogger{logger: logger}
	s.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, err
	}

	return s, nil
}

// Start runs one refresh immediately and then follows the schedule.
// It does not block.
func (s *RotationScheduler) Start() {
	s.tick()
	s.cron.Start()
	s.Logger.Info("key rotation scheduler started", "schedule", s.Schedule)
}

// Stop halts the schedule and waits for a running refresh to finish or ctx
// to expire.
func (s *RotationScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.Logger.Info("key rotation scheduler stopped")
}

func (s *RotationScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.Rotation.Refresh(ctx); err != nil {
		s.Logger.Error("scheduled key refresh failed", "error", err)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
