package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Fetcher struct {
	httpClient *http.Client
	parser     *Parser
	filterer   *Filterer
	userAgent  string
}

func NewFetcher(httpClient *http.Client, parser *Parser, filterer *Filterer, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		parser:     parser,
		filterer:   filterer,
		userAgent:  userAgent,
	}
}

// Run retrieves the feed at url and returns its entries newer than the
// watermark, oldest first. Future-dated entries are excluded regardless of
// the watermark.
func (f *Fetcher) Run(ctx context.Context, url string, watermark time.Time) ([]Entry, error) {
	data, err := f.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	entries, err := f.parser.Run(data)
	if err != nil {
		return nil, err
	}

	return f.filterer.Run(entries, watermark, time.Now().UTC()), nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
