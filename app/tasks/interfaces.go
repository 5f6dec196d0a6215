package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-toot/app/feed"
)

// EntryFetcher retrieves a feed's entries newer than the watermark,
// oldest first.
type EntryFetcher interface {
	Run(ctx context.Context, url string, watermark time.Time) ([]feed.Entry, error)
}

// WatermarkRepository persists the per-feed last-published timestamp.
type WatermarkRepository interface {
	Get(feedURL string) (time.Time, error)
	Advance(feedURL string, candidate time.Time) error
}

// LedgerRepository persists the per-feed bounded dedupe history.
type LedgerRepository interface {
	Seen(feedURL, value string) (bool, error)
	Record(feedURL, value string) error
}

// Poster publishes statuses and media to the posting service.
type Poster interface {
	PostStatus(ctx context.Context, text string, mediaIDs []string) error
	UploadMedia(ctx context.Context, data []byte, contentType string) (string, error)
	DownloadImage(ctx context.Context, imageURL string) ([]byte, string, error)
}

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetType() TaskType
	GetFeedURL() string
	Start()
	GetDuration() time.Duration
}
