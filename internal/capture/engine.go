// Package capture implements the clipboard capture pipeline: poll for
// changes, classify the payload, gate it for size and sensitive content,
// deduplicate into the store, evict over-bound history and hand enrichment
// off to the background.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"clipvault/internal/blob"
	"clipvault/internal/clipboard"
	"clipvault/internal/config"
	"clipvault/internal/database"
	"clipvault/internal/enrich"
	"clipvault/internal/input"
	"clipvault/internal/util"
)

// Engine orchestrates the capture pipeline and exposes the contract the UI
// layer consumes. All collaborators are owned references passed in at
// construction; there is no package-level state.
type Engine struct {
	provider   clipboard.Provider
	classifier *Classifier
	guard      *SizeGuard
	filter     *PrivacyFilter
	store      *database.Repository
	blobs      *blob.Store
	enricher   *enrich.Coordinator
	evictor    *EvictionPolicy
	detector   *ChangeDetector
	simulator  input.Simulator
	logger     *slog.Logger

	events chan Event

	limitsMu    sync.Mutex
	maxUnpinned int
	unlimited   bool
}

func NewEngine(
	provider clipboard.Provider,
	store *database.Repository,
	blobs *blob.Store,
	enricher *enrich.Coordinator,
	simulator input.Simulator,
	cfg *config.Config,
	logger *slog.Logger,
) *Engine {
	e := &Engine{
		provider:   provider,
		classifier: NewClassifier(),
		guard: &SizeGuard{
			MaxTextChars:  cfg.MaxTextChars,
			MaxImageBytes: cfg.MaxImageBytes,
			MaxFileCount:  cfg.MaxFileCount,
		},
		filter:      NewPrivacyFilter(),
		store:       store,
		blobs:       blobs,
		enricher:    enricher,
		simulator:   simulator,
		logger:      logger,
		events:      make(chan Event, 100),
		maxUnpinned: cfg.MaxHistoryItems,
		unlimited:   cfg.UnlimitedHistory,
	}

	e.evictor = NewEvictionPolicy(store, blobs, logger)
	e.detector = NewChangeDetector(
		provider,
		time.Duration(cfg.MonitorInterval)*time.Millisecond,
		e.processCapture,
		logger,
	)
	enricher.SetNotify(func(entry *database.Entry) {
		e.emit(Event{Kind: EventUpdated, Entry: entry})
	})

	return e
}

// Start begins clipboard monitoring.
func (e *Engine) Start(ctx context.Context) error {
	return e.detector.Start(ctx)
}

// Stop halts monitoring and waits for in-flight enrichment tasks.
func (e *Engine) Stop() {
	e.detector.Stop()
	e.enricher.Wait()
}

// Events is the change-notification channel: one event per inserted, updated
// or deleted entry. Sends never block capture; a subscriber that falls 100
// events behind loses the oldest ones.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Items returns the read model: pinned entries first, then unpinned by
// recency.
func (e *Engine) Items(ctx context.Context) ([]*database.Entry, error) {
	return e.store.FetchAll(ctx)
}

// Search matches stored text content, OCR text and link titles.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]*database.Entry, error) {
	return e.store.Search(ctx, query, limit)
}

// processCapture is the pipeline pass the change detector invokes once per
// detected clipboard change. Steps before the store mutation are pure, so a
// rejected capture leaves the store untouched.
func (e *Engine) processCapture(ctx context.Context, snap clipboard.Snapshot) {
	candidate := e.classifier.Classify(snap)
	if candidate == nil {
		return
	}

	if !e.guard.Admit(candidate) {
		e.logger.Debug("capture rejected by size guard", "type", candidate.Type)
		return
	}

	// Sensitive text must never reach hashing, storage or logs.
	if candidate.Type.HasText() && e.filter.ContainsSensitiveData(candidate.Text) {
		e.logger.Debug("capture rejected by privacy filter")
		return
	}

	entry := e.buildEntry(candidate)

	if candidate.Type == database.TypeImage {
		if ok := e.attachImageBlob(ctx, candidate, entry); !ok {
			return
		}
	}

	result, err := e.store.InsertOrRefresh(ctx, entry)
	if err != nil {
		e.logger.Error("failed to store capture", "error", err)
		if entry.ImagePath != "" {
			if derr := e.blobs.Delete(entry.ImagePath); derr != nil {
				e.logger.Warn("failed to delete blob after store failure", "error", derr)
			}
		}
		e.emit(Event{Kind: EventStorageDegraded, Err: err})
		return
	}

	if result.Refreshed {
		// The existing row keeps its payload, enrichment and sourceApp; only
		// its timestamp moved. No eviction, no re-enrichment.
		if entry.ImagePath != "" {
			if derr := e.blobs.Delete(entry.ImagePath); derr != nil {
				e.logger.Warn("failed to delete duplicate image blob", "error", derr)
			}
		}
		e.logger.Debug("capture refreshed existing entry", "id", result.ID)
		return
	}

	switch entry.Type {
	case database.TypeImage:
		e.enricher.ScheduleOCR(result.ID, entry.ImagePath)
	case database.TypeLink:
		e.enricher.ScheduleLinkMetadata(result.ID, entry.TextContent)
	}

	maxUnpinned, unlimited := e.limits()
	if err := e.enforceLimits(ctx, maxUnpinned, unlimited); err != nil {
		e.logger.Error("eviction failed", "error", err)
		e.emit(Event{Kind: EventStorageDegraded, Err: err})
	}

	e.logger.Info("captured entry", "id", result.ID, "type", entry.Type)
	e.emit(Event{Kind: EventInserted, Entry: entry})
}

func (e *Engine) buildEntry(c *Candidate) *database.Entry {
	entry := &database.Entry{
		Type:      c.Type,
		Hash:      c.Hash(),
		Timestamp: time.Now(),
		SourceApp: c.SourceApp,
	}

	switch c.Type {
	case database.TypeFile:
		entry.FilePaths = util.NormalizeFilePaths(c.FilePaths)
	case database.TypeImage:
		// ImagePath attached after the blob write.
	default:
		entry.TextContent = c.Text
		entry.CodeLanguage = c.Language
	}

	return entry
}

// attachImageBlob writes the image bytes to the blob store before the row is
// persisted, so a stored ImagePath is never dangling. The write is skipped
// when the hash already exists: a refresh must not orphan a new file. A
// failed write aborts admission.
func (e *Engine) attachImageBlob(ctx context.Context, c *Candidate, entry *database.Entry) bool {
	_, err := e.store.FindByHash(ctx, entry.Hash)
	if err == nil {
		return true // duplicate, the existing row already owns its blob
	}
	if !errors.Is(err, database.ErrNotFound) {
		e.logger.Error("failed to check for duplicate image", "error", err)
		e.emit(Event{Kind: EventStorageDegraded, Err: err})
		return false
	}

	path, err := e.blobs.Write(c.Image, "capture.png")
	if err != nil {
		e.logger.Error("failed to write image blob, capture dropped", "error", err)
		return false
	}
	entry.ImagePath = path
	return true
}

// CopyToClipboard places a stored entry back on the OS clipboard and re-arms
// the detector so the copy is not captured again.
func (e *Engine) CopyToClipboard(entry *database.Entry) error {
	switch entry.Type {
	case database.TypeImage:
		data, err := os.ReadFile(entry.ImagePath)
		if err != nil {
			return fmt.Errorf("failed to read stored image: %w", err)
		}
		e.provider.WriteImage(data)
	case database.TypeFile:
		e.provider.WriteText([]byte(fileURIList(entry.Paths())))
	default:
		e.provider.WriteText([]byte(entry.TextContent))
	}

	e.detector.Rearm()
	return nil
}

// PasteAndSimulateInput copies the entry and synthesizes a paste keystroke
// into the focused application. Keystroke failure is logged, not returned:
// the entry is on the clipboard either way.
func (e *Engine) PasteAndSimulateInput(entry *database.Entry) error {
	if err := e.CopyToClipboard(entry); err != nil {
		return err
	}
	if err := e.simulator.SendPaste(); err != nil {
		e.logger.Warn("paste keystroke failed", "error", err)
	}
	return nil
}

func (e *Engine) TogglePin(ctx context.Context, id int64) error {
	entry, err := e.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := e.store.TogglePin(ctx, id); err != nil {
		e.emit(Event{Kind: EventStorageDegraded, Err: err})
		return err
	}

	entry.Pinned = !entry.Pinned
	e.emit(Event{Kind: EventUpdated, Entry: entry})
	return nil
}

// Delete removes an entry and the blob files it owns. A failed blob delete is
// logged and leaves an orphaned file; the row is removed regardless.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	entry, err := e.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return err
	}

	for _, path := range entry.BlobPaths() {
		if err := e.blobs.Delete(path); err != nil {
			e.logger.Warn("failed to delete entry blob", "path", path, "error", err)
		}
	}

	if err := e.store.Delete(ctx, id); err != nil {
		e.emit(Event{Kind: EventStorageDegraded, Err: err})
		return err
	}

	e.emit(Event{Kind: EventDeleted, Entry: entry})
	return nil
}

// ClearHistory removes all entries, or all unpinned entries when exceptPinned
// is set, reclaiming their blobs.
func (e *Engine) ClearHistory(ctx context.Context, exceptPinned bool) error {
	victims, err := e.store.DeleteAll(ctx, exceptPinned)
	if err != nil {
		e.emit(Event{Kind: EventStorageDegraded, Err: err})
		return err
	}

	for _, victim := range victims {
		for _, path := range victim.BlobPaths() {
			if err := e.blobs.Delete(path); err != nil {
				e.logger.Warn("failed to delete cleared blob", "path", path, "error", err)
			}
		}
		e.emit(Event{Kind: EventDeleted, Entry: victim})
	}

	return nil
}

// UpdateLimits changes the history bound and applies it immediately.
func (e *Engine) UpdateLimits(ctx context.Context, maxUnpinned int, unlimited bool) error {
	e.limitsMu.Lock()
	e.maxUnpinned = maxUnpinned
	e.unlimited = unlimited
	e.limitsMu.Unlock()

	return e.enforceLimits(ctx, maxUnpinned, unlimited)
}

// enforceLimits applies the eviction policy and announces each evicted entry.
// Entries removed before a delete error are still announced: they are gone.
func (e *Engine) enforceLimits(ctx context.Context, maxUnpinned int, unlimited bool) error {
	victims, err := e.evictor.Enforce(ctx, maxUnpinned, unlimited)
	for _, victim := range victims {
		e.emit(Event{Kind: EventDeleted, Entry: victim})
	}
	return err
}

func (e *Engine) limits() (int, bool) {
	e.limitsMu.Lock()
	defer e.limitsMu.Unlock()
	return e.maxUnpinned, e.unlimited
}

// emit delivers an event without ever blocking the pipeline. The channel is
// buffered; when the subscriber lags behind, the oldest event is dropped.
func (e *Engine) emit(ev Event) {
	for {
		select {
		case e.events <- ev:
			return
		default:
		}
		select {
		case dropped := <-e.events:
			e.logger.Warn("event dropped, subscriber lagging", "kind", dropped.Kind)
		default:
		}
	}
}

func fileURIList(paths []string) string {
	uris := make([]byte, 0, 32*len(paths))
	for i, p := range paths {
		if i > 0 {
			uris = append(uris, '\n')
		}
		uris = append(uris, "file://"...)
		uris = append(uris, p...)
	}
	return string(uris)
}
