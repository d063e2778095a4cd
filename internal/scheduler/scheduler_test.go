package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestScheduler() *Scheduler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewScheduler(logger)
}

func TestStartWithoutJobsFails(t *testing.T) {
	s := newTestScheduler()
	if err := s.Start(); err == nil {
		t.Fatal("expected error starting scheduler with no jobs")
	}
}

func TestScheduleRevalidationRejectsBadCron(t *testing.T) {
	s := newTestScheduler()
	err := s.ScheduleRevalidation("not a cron expression", "walk_forward", func(ctx context.Context) error {
		return nil
	})
	if err == nil {
		t.Fatal("expected error for malformed cron expression")
	}
}

func TestScheduleWhileRunningFails(t *testing.T) {
	s := newTestScheduler()
	noop := func(ctx context.Context) error { return nil }

	if err := s.ScheduleRevalidation("0 6 * * 1", "walk_forward", noop); err != nil {
		t.Fatalf("failed to schedule job: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("failed to start scheduler: %v", err)
	}
	defer func() {
		if err := s.Stop(); err != nil {
			t.Errorf("failed to stop scheduler: %v", err)
		}
	}()

	if !s.IsRunning() {
		t.Error("expected scheduler to report running")
	}
	if s.GetNextRun().IsZero() {
		t.Error("expected a next run time while running")
	}
	if err := s.ScheduleRevalidation("0 7 * * 1", "second", noop); err == nil {
		t.Error("expected error scheduling while running")
	}
}

func TestScheduledJobRuns(t *testing.T) {
	s := newTestScheduler()
	ran := make(chan struct{}, 1)

	err := s.ScheduleRevalidation("@every 10ms", "walk_forward", func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to schedule job: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("failed to start scheduler: %v", err)
	}
	defer func() { _ = s.Stop() }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}

func TestFailingJobKeepsSchedulerRunning(t *testing.T) {
	s := newTestScheduler()
	ran := make(chan struct{}, 1)

	err := s.ScheduleRevalidation("@every 10ms", "walk_forward", func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return errors.New("revalidation blew up")
	})
	if err != nil {
		t.Fatalf("failed to schedule job: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("failed to start scheduler: %v", err)
	}
	defer func() { _ = s.Stop() }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job never ran")
	}
	if !s.IsRunning() {
		t.Error("expected scheduler to keep running after a job error")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := newTestScheduler()
	if err := s.Stop(); err != nil {
		t.Fatalf("stopping an idle scheduler should be a no-op: %v", err)
	}
}
