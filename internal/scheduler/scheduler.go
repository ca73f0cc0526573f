// Package scheduler runs the periodic maintenance jobs on cron specs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one unit of periodic work. Each run gets its own timeout.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
}

func New(log *zap.Logger, timeout time.Duration) *Scheduler {
	clog := cronLogger{log: log.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(clog),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
		log:     log,
		timeout: timeout,
	}
}

// Register adds a named job on a standard five-field spec or a descriptor such as "@hourly".
func (s *Scheduler) Register(name, spec string, job Job) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		s.run(name, job)
	})
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	s.log.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return id, nil
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	if err := job(ctx); err != nil {
		s.log.Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.log.Info("job finished", zap.String("job", name), zap.Duration("took", time.Since(started)))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes the cron library's logs through zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
