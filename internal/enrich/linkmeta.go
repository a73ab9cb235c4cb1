package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxThumbnailBytes bounds how much of a page's preview image is downloaded.
const maxThumbnailBytes = 2 << 20

// Metadata is what a link page yields: a title and, when the page advertises
// one, a preview image.
type Metadata struct {
	Title     string
	ImageData []byte
}

// MetadataFetcher resolves a captured link into display metadata.
type MetadataFetcher interface {
	Fetch(ctx context.Context, rawURL string) (Metadata, error)
}

// HTTPFetcher fetches the page and extracts the Open Graph title/image,
// falling back to the <title> element.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Metadata, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Metadata{}, fmt.Errorf("invalid url: %s", rawURL)
	}

	doc, err := f.fetchDocument(ctx, parsed.String())
	if err != nil {
		return Metadata{}, err
	}

	meta := Metadata{Title: extractTitle(doc)}

	if imageURL, ok := extractImageURL(doc, parsed); ok {
		// Thumbnail download failures are not fatal; the title alone is
		// still worth applying.
		if data, err := f.fetchImage(ctx, imageURL); err == nil {
			meta.ImageData = data
		}
	}

	return meta, nil
}

func (f *HTTPFetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "clipvault/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return doc, nil
}

func (f *HTTPFetcher) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "clipvault/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("image returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image body")
	}

	return data, nil
}

func extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := strings.TrimSpace(og); title != "" {
			return title
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractImageURL(doc *goquery.Document, base *url.URL) (string, bool) {
	raw, ok := doc.Find(`meta[property="og:image"]`).Attr("content")
	if !ok {
		return "", false
	}
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || ref.String() == "" {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
