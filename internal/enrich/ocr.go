package enrich

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Recognizer extracts text from image bytes.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// TesseractRecognizer shells out to the tesseract CLI. Best-effort: a missing
// binary or an unreadable image is an enrichment failure, never a capture
// failure.
type TesseractRecognizer struct {
	// Binary overrides the executable name, empty means "tesseract" on PATH.
	Binary string
}

func (r *TesseractRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = "tesseract"
	}

	cmd := exec.CommandContext(ctx, bin, "stdin", "stdout")
	cmd.Stdin = bytes.NewReader(image)

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}
