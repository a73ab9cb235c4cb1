package capture

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipvault/internal/config"
	"clipvault/internal/database"
	"clipvault/internal/util"
)

func TestEvictionBound(t *testing.T) {
	cfg := config.Default()
	cfg.MaxHistoryItems = 200
	te := newTestEngine(t, cfg)
	ctx := context.Background()

	for i := 0; i < 201; i++ {
		te.captureText(ctx, fmt.Sprintf("entry-%03d", i))
	}

	unpinned, err := te.store.CountUnpinned(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, unpinned, "the bound holds after every insert")

	// The single evicted entry is the oldest one.
	_, err = te.store.FindByHash(ctx, util.HashText("entry-000"))
	assert.True(t, errors.Is(err, database.ErrNotFound))

	_, err = te.store.FindByHash(ctx, util.HashText("entry-200"))
	assert.NoError(t, err)
}

func TestEvictionNeverTouchesPinned(t *testing.T) {
	cfg := config.Default()
	cfg.MaxHistoryItems = 2
	te := newTestEngine(t, cfg)
	ctx := context.Background()

	te.captureText(ctx, "pinned-one")
	pinned, err := te.store.FindByHash(ctx, util.HashText("pinned-one"))
	require.NoError(t, err)
	require.NoError(t, te.engine.TogglePin(ctx, pinned.ID))

	for i := 0; i < 5; i++ {
		te.captureText(ctx, fmt.Sprintf("filler-%d", i))
	}

	unpinned, err := te.store.CountUnpinned(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, unpinned)

	survivor, err := te.store.GetByID(ctx, pinned.ID)
	require.NoError(t, err, "pinned entries are exempt from eviction")
	assert.True(t, survivor.Pinned)
}

func TestEvictionUnlimited(t *testing.T) {
	cfg := config.Default()
	cfg.MaxHistoryItems = 1
	cfg.UnlimitedHistory = true
	te := newTestEngine(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		te.captureText(ctx, fmt.Sprintf("entry-%d", i))
	}

	count, err := te.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count, "unlimited history never evicts")
}

func TestEvictionEmitsDeletedEvent(t *testing.T) {
	cfg := config.Default()
	cfg.MaxHistoryItems = 1
	te := newTestEngine(t, cfg)
	ctx := context.Background()

	te.captureText(ctx, "first")
	ev := te.nextEvent(t)
	require.Equal(t, EventInserted, ev.Kind)

	te.captureText(ctx, "second")

	// The evicted entry is announced before the insert that displaced it.
	ev = te.nextEvent(t)
	assert.Equal(t, EventDeleted, ev.Kind)
	require.NotNil(t, ev.Entry)
	assert.Equal(t, "first", ev.Entry.TextContent)

	ev = te.nextEvent(t)
	assert.Equal(t, EventInserted, ev.Kind)
	assert.Equal(t, "second", ev.Entry.TextContent)
}

func TestUpdateLimitsEmitsDeletedEvents(t *testing.T) {
	cfg := config.Default()
	cfg.UnlimitedHistory = true
	te := newTestEngine(t, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		te.captureText(ctx, fmt.Sprintf("entry-%d", i))
		ev := te.nextEvent(t)
		require.Equal(t, EventInserted, ev.Kind)
	}

	require.NoError(t, te.engine.UpdateLimits(ctx, 1, false))

	for _, want := range []string{"entry-0", "entry-1"} {
		ev := te.nextEvent(t)
		assert.Equal(t, EventDeleted, ev.Kind)
		require.NotNil(t, ev.Entry)
		assert.Equal(t, want, ev.Entry.TextContent)
	}
}

func TestEvictionEvictsOnlyExcess(t *testing.T) {
	cfg := config.Default()
	cfg.MaxHistoryItems = 3
	te := newTestEngine(t, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		te.captureText(ctx, fmt.Sprintf("entry-%d", i))
	}

	unpinned, err := te.store.CountUnpinned(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, unpinned, "at the bound nothing is evicted")
}
