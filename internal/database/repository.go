package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Repository is the content-addressed store for clipboard entries. Every
// mutation is a single SQL statement, so concurrent callers (the capture
// pipeline and enrichment goroutines) interleave at statement granularity.
type Repository struct {
	db *bun.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	ctx := context.Background()

	models := []interface{}{
		(*Entry)(nil),
	}

	for _, model := range models {
		if _, err := r.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries(timestamp DESC)",
		"CREATE INDEX IF NOT EXISTS idx_entries_hash ON entries(hash)",
		"CREATE INDEX IF NOT EXISTS idx_entries_pinned ON entries(pinned)",
		"CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(type)",
	}

	for _, idx := range indexes {
		if _, err := r.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// InsertResult reports whether InsertOrRefresh stored a new row or bumped the
// timestamp of an existing one. ID identifies the surviving row either way.
type InsertResult struct {
	Refreshed bool
	ID        int64
}

// InsertOrRefresh persists the entry unless a row with the same hash already
// exists, in which case that row's timestamp is refreshed and its id returned.
// This is the deduplication invariant: equal normalized content never yields
// more than one row.
func (r *Repository) InsertOrRefresh(ctx context.Context, entry *Entry) (InsertResult, error) {
	var existing Entry
	err := r.db.NewSelect().
		Model(&existing).
		Column("id").
		Where("hash = ?", entry.Hash).
		Scan(ctx)
	switch {
	case err == nil:
		now := time.Now()
		_, err = r.db.NewUpdate().
			Model((*Entry)(nil)).
			Set("timestamp = ?", now).
			Set("updated_at = ?", now).
			Where("id = ?", existing.ID).
			Exec(ctx)
		if err != nil {
			return InsertResult{}, storageErr("refresh", err)
		}
		return InsertResult{Refreshed: true, ID: existing.ID}, nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to insert
	default:
		return InsertResult{}, storageErr("lookup", err)
	}

	now := time.Now()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return InsertResult{}, storageErr("insert", err)
	}

	return InsertResult{ID: entry.ID}, nil
}

// FetchAll returns every entry, pinned rows first in insertion order, then
// unpinned rows by timestamp descending.
func (r *Repository) FetchAll(ctx context.Context) ([]*Entry, error) {
	var entries []*Entry

	err := r.db.NewSelect().
		Model(&entries).
		OrderExpr("pinned DESC").
		OrderExpr("CASE WHEN pinned THEN id END ASC").
		OrderExpr("timestamp DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries: %w", err)
	}

	return entries, nil
}

// FetchOldestUnpinned returns up to limit unpinned entries, oldest first.
// Eviction uses it to pick victims.
func (r *Repository) FetchOldestUnpinned(ctx context.Context, limit int) ([]*Entry, error) {
	var entries []*Entry

	err := r.db.NewSelect().
		Model(&entries).
		Where("pinned = FALSE").
		Order("timestamp ASC", "id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oldest unpinned entries: %w", err)
	}

	return entries, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Entry, error) {
	var entry Entry
	err := r.db.NewSelect().
		Model(&entry).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry by id: %w", err)
	}

	return &entry, nil
}

func (r *Repository) FindByHash(ctx context.Context, hash string) (*Entry, error) {
	var entry Entry
	err := r.db.NewSelect().
		Model(&entry).
		Where("hash = ?", hash).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find entry by hash: %w", err)
	}

	return &entry, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*Entry)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return storageErr("delete", err)
	}

	return nil
}

// DeleteAll removes every entry, or every unpinned entry when exceptPinned is
// set. It returns the removed rows so the caller can reclaim their blob files.
func (r *Repository) DeleteAll(ctx context.Context, exceptPinned bool) ([]*Entry, error) {
	var victims []*Entry

	q := r.db.NewSelect().Model(&victims)
	if exceptPinned {
		q = q.Where("pinned = FALSE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, storageErr("clear", err)
	}

	del := r.db.NewDelete().Model((*Entry)(nil))
	if exceptPinned {
		del = del.Where("pinned = FALSE")
	} else {
		del = del.Where("1=1")
	}
	if _, err := del.Exec(ctx); err != nil {
		return nil, storageErr("clear", err)
	}

	return victims, nil
}

func (r *Repository) TogglePin(ctx context.Context, id int64) error {
	_, err := r.db.NewUpdate().
		Model((*Entry)(nil)).
		Set("pinned = NOT pinned").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return storageErr("toggle pin", err)
	}

	return nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	n, err := r.db.NewSelect().Model((*Entry)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

func (r *Repository) CountUnpinned(ctx context.Context) (int, error) {
	n, err := r.db.NewSelect().
		Model((*Entry)(nil)).
		Where("pinned = FALSE").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count unpinned entries: %w", err)
	}
	return n, nil
}

// Enrichment carries the fields an enrichment task is allowed to write.
// Identity fields (id, hash, type) are never touched.
type Enrichment struct {
	OCRText       string
	URLTitle      string
	ThumbnailPath string
}

// ApplyEnrichment merges the non-empty enrichment fields into the entry with
// the given id. It reports false when the entry no longer exists, which is a
// no-op rather than an error: the user may have deleted the row while the
// enrichment task was running.
func (r *Repository) ApplyEnrichment(ctx context.Context, id int64, enr Enrichment) (bool, error) {
	q := r.db.NewUpdate().
		Model((*Entry)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id)

	if enr.OCRText != "" {
		q = q.Set("ocr_text = ?", enr.OCRText)
	}
	if enr.URLTitle != "" {
		q = q.Set("url_title = ?", enr.URLTitle)
	}
	if enr.ThumbnailPath != "" {
		q = q.Set("thumbnail_path = ?", enr.ThumbnailPath)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, storageErr("enrich", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("enrich", err)
	}

	return affected > 0, nil
}

// Search matches the query against text content, OCR text and link titles,
// returning pinned entries first like FetchAll.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]*Entry, error) {
	var entries []*Entry

	pattern := "%" + query + "%"
	err := r.db.NewSelect().
		Model(&entries).
		Where("text_content LIKE ? OR ocr_text LIKE ? OR url_title LIKE ?", pattern, pattern, pattern).
		OrderExpr("pinned DESC").
		OrderExpr("CASE WHEN pinned THEN id END ASC").
		OrderExpr("timestamp DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search entries: %w", err)
	}

	return entries, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
