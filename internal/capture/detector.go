package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clipvault/internal/clipboard"
)

// ChangeDetector polls the clipboard's change counter on a fixed interval and
// invokes the pipeline at most once per detected change. The pipeline runs
// synchronously on the poll goroutine, so at most one pass is ever in flight;
// changes that land while a pass runs coalesce into the next tick, which sees
// only the latest clipboard state.
type ChangeDetector struct {
	provider clipboard.Provider
	interval time.Duration
	onChange func(ctx context.Context, snap clipboard.Snapshot)
	logger   *slog.Logger

	mu        sync.Mutex
	lastCount uint64
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewChangeDetector(provider clipboard.Provider, interval time.Duration, onChange func(ctx context.Context, snap clipboard.Snapshot), logger *slog.Logger) *ChangeDetector {
	return &ChangeDetector{
		provider: provider,
		interval: interval,
		onChange: onChange,
		logger:   logger,
	}
}

func (d *ChangeDetector) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("change detector is already running")
	}

	// Absorb whatever is on the clipboard at startup; only new changes are
	// captured.
	d.lastCount = d.provider.ChangeCount()

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	d.logger.Info("clipboard monitor started", "interval", d.interval)
	go d.pollLoop(ctx)

	return nil
}

func (d *ChangeDetector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	cancel()
	<-done
	d.logger.Info("clipboard monitor stopped")
}

// Rearm updates the remembered counter to the clipboard's current state so a
// programmatic copy is not captured back into history.
func (d *ChangeDetector) Rearm() {
	d.mu.Lock()
	d.lastCount = d.provider.ChangeCount()
	d.mu.Unlock()
}

func (d *ChangeDetector) pollLoop(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *ChangeDetector) tick(ctx context.Context) {
	count := d.provider.ChangeCount()

	d.mu.Lock()
	changed := count != d.lastCount
	// Remember the counter before running the pipeline: a tick that fires
	// mid-pass must not trigger a second pass for the same change.
	d.lastCount = count
	d.mu.Unlock()

	if !changed {
		return
	}

	d.onChange(ctx, d.provider.Read())
}
