package capture

import (
	"unicode/utf8"

	"clipvault/internal/database"
)

// SizeGuard rejects captures over the configured per-type limits. The whole
// capture is discarded, never truncated, so the admission decision stays
// atomic.
type SizeGuard struct {
	MaxTextChars  int
	MaxImageBytes int
	MaxFileCount  int
}

func (g *SizeGuard) Admit(c *Candidate) bool {
	switch c.Type {
	case database.TypeImage:
		return len(c.Image) <= g.MaxImageBytes
	case database.TypeFile:
		return len(c.FilePaths) <= g.MaxFileCount
	default:
		return utf8.RuneCountInString(c.Text) <= g.MaxTextChars
	}
}
