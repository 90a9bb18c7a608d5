package schedule

import (
	"context"
	"log/slog"
	"time"
)

// TickDriver runs work at a fixed interval. Callers who want
// broker-paced scheduling instead should use ingest.Source.
type TickDriver struct {
	interval time.Duration
	work     func(ctx context.Context) error
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewTickDriver builds a driver that invokes work every interval.
func NewTickDriver(interval time.Duration, work func(ctx context.Context) error) *TickDriver {
	return &TickDriver{interval: interval, work: work}
}

func (t *TickDriver) Start(ctx context.Context) error {
	nctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(nctx)
	return nil
}

func (t *TickDriver) run(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.work(ctx); err != nil {
				slog.Error("schedule: tick failed", slog.String("err", err.Error()))
			}
		}
	}
}

func (t *TickDriver) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.done != nil {
		<-t.done
	}
	return nil
}
