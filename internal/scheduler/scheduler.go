// Package scheduler runs the periodic maintenance jobs of the service.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/progressboard/internal/telemetry/tracing"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type sessionCleaner interface {
	ScanAndClean(ctx context.Context) (int, error)
}

type recordsBackuper interface {
	DoBackup(ctx context.Context, baseTime time.Time) (int, error)
}

type Scheduler struct {
	ctx  context.Context
	cron *cron.Cron
	now  func() time.Time
}

// New creates a stopped scheduler. Jobs run with ctx, a job still running
// when its next tick comes is skipped.
func New(ctx context.Context) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		ctx: ctx,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		now: time.Now,
	}
}

func (s *Scheduler) AddSessionsCleanup(spec string, cleaner sessionCleaner) error {
	if _, err := s.cron.AddFunc(spec, s.sessionsCleanupJob(cleaner)); err != nil {
		return fmt.Errorf("schedule sessions cleanup [%s]: %w", spec, err)
	}
	log.Debugf("sessions cleanup scheduled: %s", spec)
	return nil
}

func (s *Scheduler) AddRecordsBackup(spec string, backuper recordsBackuper) error {
	if _, err := s.cron.AddFunc(spec, s.recordsBackupJob(backuper)); err != nil {
		return fmt.Errorf("schedule records backup [%s]: %w", spec, err)
	}
	log.Debugf("records backup scheduled: %s", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs, or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) sessionsCleanupJob(cleaner sessionCleaner) func() {
	return func() {
		ctx, span := tracing.GlobalTracer.Start(s.ctx, "scheduler.sessionsCleanup")
		defer span.End()

		removed, err := cleaner.ScanAndClean(ctx)
		if err != nil {
			log.Errorf("sessions cleanup: %s", err)
			span.RecordError(err)
			return
		}
		log.Debugf("sessions cleanup: %d expired sessions removed", removed)
	}
}

func (s *Scheduler) recordsBackupJob(backuper recordsBackuper) func() {
	return func() {
		ctx, span := tracing.GlobalTracer.Start(s.ctx, "scheduler.recordsBackup")
		defer span.End()

		saved, err := backuper.DoBackup(ctx, s.now())
		if err != nil {
			log.Errorf("records backup: %s", err)
			span.RecordError(err)
			return
		}
		log.Printf("records backup done: %d records saved", saved)
	}
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Tracef("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Errorf("cron: %s: %s %v", msg, err, keysAndValues)
}
