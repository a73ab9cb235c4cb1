package capture

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipvault/internal/clipboard"
)

func TestDetectorFiresOncePerChange(t *testing.T) {
	provider := &fakeProvider{}
	var passes atomic.Int64

	d := NewChangeDetector(provider, 5*time.Millisecond, func(ctx context.Context, snap clipboard.Snapshot) {
		passes.Add(1)
	}, discardLogger())

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	// No change yet: ticks are no-ops.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(0), passes.Load())

	provider.SetText("first")
	assert.Eventually(t, func() bool { return passes.Load() == 1 },
		time.Second, 5*time.Millisecond)

	// The counter is remembered: further ticks with no change do nothing.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(1), passes.Load())

	provider.SetText("second")
	assert.Eventually(t, func() bool { return passes.Load() == 2 },
		time.Second, 5*time.Millisecond)
}

func TestDetectorAbsorbsStartupState(t *testing.T) {
	provider := &fakeProvider{}
	provider.SetText("already there")

	var passes atomic.Int64
	d := NewChangeDetector(provider, 5*time.Millisecond, func(ctx context.Context, snap clipboard.Snapshot) {
		passes.Add(1)
	}, discardLogger())

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(0), passes.Load(), "content present at startup is not captured")
}

func TestDetectorCoalescesBurst(t *testing.T) {
	provider := &fakeProvider{}
	var captured atomic.Value

	d := NewChangeDetector(provider, 5*time.Millisecond, func(ctx context.Context, snap clipboard.Snapshot) {
		captured.Store(string(snap.Text))
	}, discardLogger())

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	// Several changes inside one polling interval: only the latest state is
	// observable once overwritten, and that is the one processed.
	provider.SetText("a")
	provider.SetText("b")
	provider.SetText("c")

	assert.Eventually(t, func() bool {
		v, ok := captured.Load().(string)
		return ok && v == "c"
	}, time.Second, 5*time.Millisecond)
}

func TestDetectorRearm(t *testing.T) {
	provider := &fakeProvider{}
	var passes atomic.Int64

	d := NewChangeDetector(provider, time.Minute, func(ctx context.Context, snap clipboard.Snapshot) {
		passes.Add(1)
	}, discardLogger())
	ctx := context.Background()

	// A programmatic copy followed by Rearm must not be captured.
	provider.SetText("programmatic")
	d.Rearm()
	d.tick(ctx)
	assert.Equal(t, int64(0), passes.Load())

	// A genuine change afterwards still is.
	provider.SetText("user copy")
	d.tick(ctx)
	assert.Equal(t, int64(1), passes.Load())
}

func TestDetectorRejectsDoubleStart(t *testing.T) {
	provider := &fakeProvider{}
	d := NewChangeDetector(provider, time.Minute, func(context.Context, clipboard.Snapshot) {}, discardLogger())

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	assert.Error(t, d.Start(context.Background()))
}
