package capture

import (
	"context"
	"fmt"
	"log/slog"

	"clipvault/internal/blob"
	"clipvault/internal/database"
)

// EvictionPolicy bounds the number of unpinned entries, FIFO by timestamp.
// It runs synchronously after every successful insert, so the bound is an
// invariant rather than an eventual goal. Pinned entries are never touched.
type EvictionPolicy struct {
	store  *database.Repository
	blobs  *blob.Store
	logger *slog.Logger
}

func NewEvictionPolicy(store *database.Repository, blobs *blob.Store, logger *slog.Logger) *EvictionPolicy {
	return &EvictionPolicy{store: store, blobs: blobs, logger: logger}
}

// Enforce deletes exactly as many of the oldest unpinned entries as needed to
// bring the unpinned count back under maxUnpinned, returning the entries it
// removed so the caller can announce them. Blob files are removed first; a
// failed blob delete is logged and the row is removed anyway, leaving an
// orphaned file rather than a resurrected entry.
func (p *EvictionPolicy) Enforce(ctx context.Context, maxUnpinned int, unlimited bool) ([]*database.Entry, error) {
	if unlimited {
		return nil, nil
	}

	count, err := p.store.CountUnpinned(ctx)
	if err != nil {
		return nil, fmt.Errorf("eviction count: %w", err)
	}

	excess := count - maxUnpinned
	if excess <= 0 {
		return nil, nil
	}

	victims, err := p.store.FetchOldestUnpinned(ctx, excess)
	if err != nil {
		return nil, fmt.Errorf("eviction fetch: %w", err)
	}

	evicted := make([]*database.Entry, 0, len(victims))
	for _, victim := range victims {
		for _, path := range victim.BlobPaths() {
			if err := p.blobs.Delete(path); err != nil {
				p.logger.Warn("failed to delete evicted blob", "path", path, "error", err)
			}
		}
		if err := p.store.Delete(ctx, victim.ID); err != nil {
			return evicted, fmt.Errorf("eviction delete: %w", err)
		}
		p.logger.Debug("evicted entry", "id", victim.ID, "type", victim.Type)
		evicted = append(evicted, victim)
	}

	return evicted, nil
}
