package util

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// HashText hashes the UTF-8 bytes of a text, code or link payload.
func HashText(text string) string {
	return digest([]byte(text))
}

// HashImage hashes raw image bytes.
func HashImage(data []byte) string {
	return digest(data)
}

// HashFilePaths hashes a file-list payload. Paths are sorted and joined with
// "|" first, so the same set of files always hashes the same regardless of
// the order the clipboard reported them in.
func HashFilePaths(paths []string) string {
	return digest([]byte(NormalizeFilePaths(paths)))
}

// NormalizeFilePaths returns the sorted, "|"-joined form used both for
// hashing and for the stored file_paths column.
func NormalizeFilePaths(paths []string) string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

func digest(data []byte) string {
	hasher := sha256.New()
	hasher.Write(data)
	return fmt.Sprintf("%x", hasher.Sum(nil))
}
