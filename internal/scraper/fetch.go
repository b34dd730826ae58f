package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// headerProfile is one browser-like identity used for outgoing requests
type headerProfile struct {
	userAgent      string
	acceptLanguage string
	referer        string
}

// A fixed small pool of profiles; one is picked at random per request to
// reduce blocking by the listing site.
var headerProfiles = []headerProfile{
	{
		userAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36",
		acceptLanguage: "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
		referer:        "https://www.google.com/",
	},
	{
		userAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Safari/605.1.15",
		acceptLanguage: "ru-RU,ru;q=0.9,uz;q=0.8,en;q=0.7",
		referer:        "https://yandex.ru/",
	},
	{
		userAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0",
		acceptLanguage: "ru,en-US;q=0.7,en;q=0.3",
		referer:        "https://www.google.com/",
	},
}

// Fetcher performs GET requests with rotated browser-like headers. Safe
// for concurrent use: the pipeline, the contact resolver and the HTTP
// handlers all share one instance.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Get fetches the URL body. Non-2xx statuses are errors; callers at the
// pipeline boundary convert them to absent results.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	profile := headerProfiles[mathrand.Intn(len(headerProfiles))]
	req.Header.Set("User-Agent", profile.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", profile.acceptLanguage)
	req.Header.Set("Referer", profile.referer)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// GetDocument fetches the URL and parses it as HTML
func (f *Fetcher) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := f.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return doc, nil
}
