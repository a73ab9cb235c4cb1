package clipboard

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"sync"

	"golang.design/x/clipboard"
)

// SourceAppFunc resolves the application that currently owns the clipboard.
// Best-effort: an empty string means unknown.
type SourceAppFunc func() string

// SystemProvider reads the real OS clipboard through golang.design/x/clipboard.
// The library exposes no native change counter, so the provider derives one:
// each ChangeCount call fingerprints the current contents and bumps an
// internal counter when the fingerprint moved.
type SystemProvider struct {
	mu        sync.Mutex
	counter   uint64
	lastPrint uint64
	snapshot  Snapshot
	sourceApp SourceAppFunc
}

func NewSystemProvider(sourceApp SourceAppFunc) (*SystemProvider, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	if sourceApp == nil {
		sourceApp = func() string { return "" }
	}
	return &SystemProvider{sourceApp: sourceApp}, nil
}

func (p *SystemProvider) ChangeCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	text := clipboard.Read(clipboard.FmtText)
	image := clipboard.Read(clipboard.FmtImage)

	h := fnv.New64a()
	h.Write(text)
	h.Write([]byte{0})
	h.Write(image)
	sum := h.Sum64()

	if sum != p.lastPrint {
		p.lastPrint = sum
		p.counter++
		p.snapshot = p.buildSnapshot(text, image)
	}

	return p.counter
}

func (p *SystemProvider) Read() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

func (p *SystemProvider) WriteText(text []byte) {
	clipboard.Write(clipboard.FmtText, text)
}

func (p *SystemProvider) WriteImage(data []byte) {
	clipboard.Write(clipboard.FmtImage, data)
}

func (p *SystemProvider) buildSnapshot(text, image []byte) Snapshot {
	snap := Snapshot{
		Text:      text,
		Image:     image,
		SourceApp: p.sourceApp(),
	}

	// File managers expose copied files as a text/uri-list; surface those as
	// a file snapshot instead of raw text.
	if paths := parseFileURIs(string(text)); len(paths) > 0 {
		snap.Text = nil
		snap.FilePaths = paths
	}

	return snap
}

// parseFileURIs returns local paths when every non-empty line of the text is
// a file:// URI, and nil otherwise.
func parseFileURIs(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var paths []string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "file://") {
			return nil
		}
		u, err := url.Parse(line)
		if err != nil || u.Path == "" {
			return nil
		}
		paths = append(paths, u.Path)
	}

	return paths
}
