// Package scheduler runs the periodic archive sweep that moves past
// lunchboxes to Archivada.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/dukerupert/nutribox/internal/metrics"
	"github.com/dukerupert/nutribox/internal/model"
)

// Sweeper archives every live lunchbox assigned before today.
type Sweeper interface {
	ArchivePast(ctx context.Context, today model.Date) (int64, error)
	Today() model.Date
}

// Archiver runs the sweep on a cron schedule and once at Start.
type Archiver struct {
	mu      sync.Mutex
	sweeper Sweeper
	cron    *cron.Cron
	logger  *slog.Logger
	cancel  context.CancelFunc
	ctx     context.Context
}

// NewArchiver parses schedule (standard five-field cron or a descriptor
// such as "@daily").
func NewArchiver(sweeper Sweeper, schedule string, logger *slog.Logger) (*Archiver, error) {
	a := &Archiver{
		sweeper: sweeper,
		logger:  logger,
		ctx:     context.Background(),
	}
	cl := cronLogger{logger}
	a.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := a.cron.AddFunc(schedule, a.tick); err != nil {
		return nil, fmt.Errorf("parse archive schedule %q: %w", schedule, err)
	}
	return a, nil
}

// Start runs one sweep immediately, then hands off to the cron scheduler.
func (a *Archiver) Start(ctx context.Context) {
	a.mu.Lock()
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.mu.Unlock()

	a.tick()
	a.cron.Start()
	a.logger.Info("archiver started")
}

// Stop cancels an in-flight sweep and waits for it to return.
func (a *Archiver) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-a.cron.Stop().Done()
	a.logger.Info("archiver stopped")
}

// RunOnce archives everything dated before today and returns the count.
func (a *Archiver) RunOnce(ctx context.Context) (int64, error) {
	today := a.sweeper.Today()
	n, err := a.sweeper.ArchivePast(ctx, today)
	if err != nil {
		return n, fmt.Errorf("archive lunchboxes before %s: %w", today, err)
	}
	metrics.RecordArchived(n)
	return n, nil
}

func (a *Archiver) tick() {
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()

	n, err := a.RunOnce(ctx)
	if err != nil {
		a.logger.Error("archive sweep failed", "error", err)
		return
	}
	if n > 0 {
		a.logger.Info("archived past lunchboxes", "count", n)
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
