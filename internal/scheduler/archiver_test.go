package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/nutribox/internal/model"
)

type fakeSweeper struct {
	mu    sync.Mutex
	today model.Date
	calls []model.Date
	n     int64
	err   error
}

func (f *fakeSweeper) ArchivePast(ctx context.Context, today model.Date) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, today)
	return f.n, f.err
}

func (f *fakeSweeper) Today() model.Date {
	return f.today
}

func (f *fakeSweeper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewArchiverRejectsBadSchedule(t *testing.T) {
	_, err := NewArchiver(&fakeSweeper{}, "every tuesday", discardLogger())
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestStartSweepsImmediately(t *testing.T) {
	today := model.NewDate(2026, time.March, 10)
	sw := &fakeSweeper{today: today, n: 3}
	a, err := NewArchiver(sw, "@daily", discardLogger())
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}

	a.Start(context.Background())
	a.Stop()

	if sw.callCount() != 1 {
		t.Fatalf("calls = %d, want 1", sw.callCount())
	}
	if !sw.calls[0].Equal(today.Time) {
		t.Errorf("swept with %s, want %s", sw.calls[0], today)
	}
}

func TestRunOnce(t *testing.T) {
	sw := &fakeSweeper{today: model.NewDate(2026, time.March, 10), n: 2}
	a, err := NewArchiver(sw, "0 3 * * *", discardLogger())
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}

	n, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if n != 2 {
		t.Errorf("archived = %d, want 2", n)
	}

	sw.err = errors.New("database is locked")
	if _, err := a.RunOnce(context.Background()); err == nil {
		t.Error("expected error from failing sweep")
	}
}

func TestStopWithoutStart(t *testing.T) {
	a, err := NewArchiver(&fakeSweeper{}, "@hourly", discardLogger())
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}
	done := make(chan struct{})
	go func() {
		a.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}
