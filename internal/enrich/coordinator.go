// Package enrich augments stored entries after capture: OCR text for images,
// titles and thumbnails for links. Enrichment is fire-and-forget; it never
// blocks the capture pipeline and its failures never surface to the user.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"clipvault/internal/blob"
	"clipvault/internal/database"
)

// Coordinator schedules enrichment tasks and applies their results with a
// per-id read-modify-write against the store. A task for an entry that was
// deleted mid-flight applies to nothing, which is a no-op rather than an
// error. At most one task per (entry, kind) runs at a time.
type Coordinator struct {
	store      *database.Repository
	blobs      *blob.Store
	recognizer Recognizer
	fetcher    MetadataFetcher
	logger     *slog.Logger
	timeout    time.Duration

	// notify delivers the re-read entry to the subscriber channel that also
	// carries fresh captures. Set by the engine before Start.
	notify func(entry *database.Entry)

	inflight singleflight.Group
	wg       sync.WaitGroup
}

func NewCoordinator(store *database.Repository, blobs *blob.Store, recognizer Recognizer, fetcher MetadataFetcher, timeout time.Duration, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:      store,
		blobs:      blobs,
		recognizer: recognizer,
		fetcher:    fetcher,
		timeout:    timeout,
		logger:     logger,
	}
}

// SetNotify registers the subscriber callback invoked after a successful
// enrichment write.
func (c *Coordinator) SetNotify(fn func(entry *database.Entry)) {
	c.notify = fn
}

// ScheduleOCR runs text recognition for an image entry in the background.
func (c *Coordinator) ScheduleOCR(id int64, imagePath string) {
	c.schedule(fmt.Sprintf("ocr:%d", id), func(ctx context.Context) {
		c.runOCR(ctx, id, imagePath)
	})
}

// ScheduleLinkMetadata fetches title and thumbnail for a link entry in the
// background.
func (c *Coordinator) ScheduleLinkMetadata(id int64, rawURL string) {
	c.schedule(fmt.Sprintf("link:%d", id), func(ctx context.Context) {
		c.runLinkMetadata(ctx, id, rawURL)
	})
}

// Wait blocks until every scheduled task has finished. Used during shutdown.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) schedule(key string, task func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// singleflight collapses a duplicate schedule for the same entry and
		// kind while the first is still running.
		c.inflight.Do(key, func() (interface{}, error) {
			ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
			defer cancel()
			task(ctx)
			return nil, nil
		})
	}()
}

func (c *Coordinator) runOCR(ctx context.Context, id int64, imagePath string) {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		c.logger.Warn("ocr skipped, image unreadable", "id", id, "path", imagePath, "error", err)
		return
	}

	text, err := c.recognizer.Recognize(ctx, image)
	if err != nil {
		c.logger.Warn("ocr failed", "id", id, "error", err)
		return
	}
	if text == "" {
		c.logger.Debug("ocr found no text", "id", id)
		return
	}

	c.apply(ctx, id, database.Enrichment{OCRText: text}, "")
}

func (c *Coordinator) runLinkMetadata(ctx context.Context, id int64, rawURL string) {
	meta, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		c.logger.Warn("link metadata fetch failed", "id", id, "url", rawURL, "error", err)
		return
	}

	var thumbnailPath string
	if len(meta.ImageData) > 0 {
		thumbnailPath, err = c.blobs.Write(meta.ImageData, "thumbnail.img")
		if err != nil {
			c.logger.Warn("failed to store link thumbnail", "id", id, "error", err)
			thumbnailPath = ""
		}
	}

	if meta.Title == "" && thumbnailPath == "" {
		c.logger.Debug("link metadata empty", "id", id, "url", rawURL)
		return
	}

	c.apply(ctx, id, database.Enrichment{URLTitle: meta.Title, ThumbnailPath: thumbnailPath}, thumbnailPath)
}

// apply performs the read-modify-write. orphanBlob is a blob written for this
// enrichment that must be reclaimed if the entry turned out to be gone.
func (c *Coordinator) apply(ctx context.Context, id int64, enr database.Enrichment, orphanBlob string) {
	applied, err := c.store.ApplyEnrichment(ctx, id, enr)
	if err != nil {
		c.logger.Warn("failed to apply enrichment", "id", id, "error", err)
		return
	}
	if !applied {
		// Entry was deleted while the task ran.
		c.logger.Debug("enrichment discarded, entry gone", "id", id)
		if orphanBlob != "" {
			if err := c.blobs.Delete(orphanBlob); err != nil {
				c.logger.Warn("failed to delete orphaned thumbnail", "path", orphanBlob, "error", err)
			}
		}
		return
	}

	if c.notify == nil {
		return
	}
	entry, err := c.store.GetByID(ctx, id)
	if err != nil {
		// Deleted between write and re-read; nothing to announce.
		return
	}
	c.notify(entry)
}
