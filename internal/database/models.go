package database

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// ContentType classifies what an entry carries.
type ContentType string

const (
	TypeText  ContentType = "text"
	TypeCode  ContentType = "code"
	TypeLink  ContentType = "link"
	TypeImage ContentType = "image"
	TypeFile  ContentType = "file"
)

// PathSeparator joins the members of a file-list payload. Paths are sorted
// before joining, so the stored form (and the hash derived from it) does not
// depend on the order the OS reported them in.
const PathSeparator = "|"

type Entry struct {
	bun.BaseModel `bun:"table:entries"`

	ID        int64       `bun:"id,pk,autoincrement" json:"id"`
	Type      ContentType `bun:"type,notnull" json:"type"`
	Hash      string      `bun:"hash,unique,notnull" json:"hash"`
	Timestamp time.Time   `bun:"timestamp,notnull,default:current_timestamp" json:"timestamp"`

	TextContent   string `bun:"text_content" json:"text_content"`
	CodeLanguage  string `bun:"code_language" json:"code_language"`
	ImagePath     string `bun:"image_path" json:"image_path"`
	OCRText       string `bun:"ocr_text" json:"ocr_text"`
	FilePaths     string `bun:"file_paths" json:"file_paths"`
	URLTitle      string `bun:"url_title" json:"url_title"`
	ThumbnailPath string `bun:"thumbnail_path" json:"thumbnail_path"`

	SourceApp string `bun:"source_app" json:"source_app"`
	Pinned    bool   `bun:"pinned,default:false" json:"pinned"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Paths splits the stored file-list payload back into individual paths.
func (e *Entry) Paths() []string {
	if e.FilePaths == "" {
		return nil
	}
	return strings.Split(e.FilePaths, PathSeparator)
}

// BlobPaths returns the on-disk files this entry owns. The owner must remove
// them whenever the row is removed.
func (e *Entry) BlobPaths() []string {
	var paths []string
	if e.ImagePath != "" {
		paths = append(paths, e.ImagePath)
	}
	if e.ThumbnailPath != "" {
		paths = append(paths, e.ThumbnailPath)
	}
	return paths
}

// HasText reports whether the type carries a text payload that the privacy
// filter and search should look at.
func (t ContentType) HasText() bool {
	return t == TypeText || t == TypeCode || t == TypeLink
}
