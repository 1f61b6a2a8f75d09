package syncer

import (
	"context"
	"log/slog"
	"time"

	"gpad/internal/provider"
)

type DelaySource interface {
	GetSyncDelay(ctx context.Context) (int64, error)
}

// Scheduler calls run every sync delay. A delay of provider.SyncDelayManual
// leaves it idle until Trigger is called.
type Scheduler struct {
	delays  DelaySource
	run     func(ctx context.Context)
	unit    time.Duration
	trigger chan struct{}
	reload  chan struct{}
}

func NewScheduler(delays DelaySource, run func(ctx context.Context)) *Scheduler {
	return &Scheduler{
		delays:  delays,
		run:     run,
		unit:    time.Millisecond,
		trigger: make(chan struct{}, 1),
		reload:  make(chan struct{}, 1),
	}
}

// Trigger requests a sync now.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Reload makes the scheduler re-read the sync delay.
func (s *Scheduler) Reload() {
	select {
	case s.reload <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		delay := s.delay(ctx)
		var tick <-chan time.Time
		var timer *time.Timer
		if delay > 0 {
			timer = time.NewTimer(time.Duration(delay) * s.unit)
			tick = timer.C
			slog.Debug("sync scheduled", "delay_ms", delay)
		} else {
			slog.Debug("sync schedule manual")
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return
		case <-tick:
			s.run(ctx)
		case <-s.trigger:
			stopTimer(timer)
			s.run(ctx)
		case <-s.reload:
			stopTimer(timer)
		}
	}
}

func (s *Scheduler) delay(ctx context.Context) int64 {
	delay, err := s.delays.GetSyncDelay(ctx)
	if err != nil {
		slog.Warn("sync schedule: read delay failed", "err", err)
		return provider.DefaultSyncDelay
	}
	return delay
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
