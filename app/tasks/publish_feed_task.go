package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/lysyi3m/rss-toot/app/config"
	"github.com/lysyi3m/rss-toot/app/feed"
)

// MaxAttachedImages caps how many of an entry's images are attached to a
// post. Extraction itself is uncapped.
const MaxAttachedImages = 4

// Options are the run-wide knobs applied to every feed.
type Options struct {
	DryRun      bool
	Verbose     bool
	Delay       bool
	DedupeField string
}

// PublishFeedTask runs the pipeline for one feed: fetch, filter, render,
// dedupe-check, publish, then commit the watermark.
type PublishFeedTask struct {
	Task
	FeedConfig    config.Feed
	fetcher       EntryFetcher
	renderer      *feed.Renderer
	poster        Poster
	watermarkRepo WatermarkRepository
	ledgerRepo    LedgerRepository
	opts          Options
}

func NewPublishFeedTask(feedConfig config.Feed, fetcher EntryFetcher, renderer *feed.Renderer, poster Poster, watermarkRepo WatermarkRepository, ledgerRepo LedgerRepository, opts Options) *PublishFeedTask {
	return &PublishFeedTask{
		Task:          NewTask(TaskTypePublishFeed, feedConfig.URL),
		FeedConfig:    feedConfig,
		fetcher:       fetcher,
		renderer:      renderer,
		poster:        poster,
		watermarkRepo: watermarkRepo,
		ledgerRepo:    ledgerRepo,
		opts:          opts,
	}
}

func (t *PublishFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	watermark, err := t.watermarkRepo.Get(t.FeedURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	slog.Debug("Fetching feed", "feed", t.FeedURL, "since", watermark)

	entries, err := t.fetcher.Run(ctx, t.FeedURL, watermark)
	if err != nil {
		return err
	}

	candidate := watermark
	publishedCount := 0
	duplicateCount := 0
	failedCount := 0

	for _, entry := range entries {
		// A duplicate or failed entry still marks the feed as caught up
		// to its timestamp.
		if entry.Updated.After(candidate) {
			candidate = entry.Updated
		}

		text := t.renderer.Run(t.FeedConfig.Template, entry)

		if t.opts.DryRun {
			fmt.Println(text)
			continue
		}

		if t.opts.Verbose {
			fmt.Println(text)
		}

		if t.opts.DedupeField != "" {
			value, ok := entry.FieldValue(t.opts.DedupeField)
			if ok {
				seen, err := t.ledgerRepo.Seen(t.FeedURL, value)
				if err != nil {
					return fmt.Errorf("%w: %w", ErrPersistence, err)
				}
				if seen {
					slog.Debug("Skipping duplicate entry",
						"feed", t.FeedURL, "entry", entry.URL,
						"field", t.opts.DedupeField, "value", value)
					duplicateCount++
					continue
				}
				// Recorded before publishing: a crash in between loses at
				// most one post, it never double-posts.
				if err := t.ledgerRepo.Record(t.FeedURL, value); err != nil {
					return fmt.Errorf("%w: %w", ErrPersistence, err)
				}
			}
		}

		mediaIDs, err := t.attachImages(ctx, entry)
		if err != nil {
			slog.Error("Skipping entry, image attachment failed",
				"feed", t.FeedURL, "entry", entry.URL, "error", err)
			failedCount++
			continue
		}

		if err := t.poster.PostStatus(ctx, text, mediaIDs); err != nil {
			slog.Error("Skipping entry, publish failed",
				"feed", t.FeedURL, "entry", entry.URL, "error", err)
			failedCount++
			continue
		}
		publishedCount++

		if t.opts.Delay {
			delay := time.Duration(10+rand.Intn(20)) * time.Second
			slog.Info("Delaying before next post", "delay", delay)
			time.Sleep(delay)
		}
	}

	if !t.opts.DryRun {
		if err := t.watermarkRepo.Advance(t.FeedURL, candidate); err != nil {
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}

	slog.Info("Task completed",
		"type", "PublishFeed",
		"feed", t.FeedURL,
		"duration", t.GetDuration(),
		"total", len(entries),
		"published", publishedCount,
		"duplicates", duplicateCount,
		"failed", failedCount)

	return nil
}

// attachImages downloads and uploads up to MaxAttachedImages of the entry's
// images. Any single failure aborts the whole attachment, and with it the
// entry's publish attempt.
func (t *PublishFeedTask) attachImages(ctx context.Context, entry feed.Entry) ([]string, error) {
	if !t.FeedConfig.IncludeImages || len(entry.Images) == 0 {
		return nil, nil
	}

	images := entry.Images
	if len(images) > MaxAttachedImages {
		images = images[:MaxAttachedImages]
	}

	mediaIDs := make([]string, 0, len(images))
	for _, imageURL := range images {
		data, contentType, err := t.poster.DownloadImage(ctx, imageURL)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", imageURL, err)
		}

		mediaID, err := t.poster.UploadMedia(ctx, data, contentType)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", imageURL, err)
		}

		mediaIDs = append(mediaIDs, mediaID)
	}

	return mediaIDs, nil
}
