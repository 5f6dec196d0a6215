package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lysyi3m/rss-toot/app/config"
	"github.com/lysyi3m/rss-toot/app/feed"
)

type fakeFetcher struct {
	entries []feed.Entry
	err     error
}

func (f *fakeFetcher) Run(ctx context.Context, url string, watermark time.Time) ([]feed.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var result []feed.Entry
	for _, entry := range f.entries {
		if entry.Updated.After(watermark) {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fakeWatermarkRepo struct {
	watermarks map[string]time.Time
	getErr     error
	advanceErr error
}

func newFakeWatermarkRepo() *fakeWatermarkRepo {
	return &fakeWatermarkRepo{watermarks: make(map[string]time.Time)}
}

func (r *fakeWatermarkRepo) Get(feedURL string) (time.Time, error) {
	if r.getErr != nil {
		return time.Time{}, r.getErr
	}
	return r.watermarks[feedURL], nil
}

func (r *fakeWatermarkRepo) Advance(feedURL string, candidate time.Time) error {
	if r.advanceErr != nil {
		return r.advanceErr
	}
	if candidate.After(r.watermarks[feedURL]) {
		r.watermarks[feedURL] = candidate
	}
	return nil
}

type fakeLedgerRepo struct {
	values map[string][]string
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{values: make(map[string][]string)}
}

func (r *fakeLedgerRepo) Seen(feedURL, value string) (bool, error) {
	for _, v := range r.values[feedURL] {
		if v == value {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLedgerRepo) Record(feedURL, value string) error {
	r.values[feedURL] = append(r.values[feedURL], value)
	return nil
}

type postedStatus struct {
	text     string
	mediaIDs []string
}

type fakePoster struct {
	statuses    []postedStatus
	uploads     int
	downloadErr error
	uploadErr   error
	postErr     error
}

func (p *fakePoster) PostStatus(ctx context.Context, text string, mediaIDs []string) error {
	if p.postErr != nil {
		return p.postErr
	}
	p.statuses = append(p.statuses, postedStatus{text: text, mediaIDs: mediaIDs})
	return nil
}

func (p *fakePoster) UploadMedia(ctx context.Context, data []byte, contentType string) (string, error) {
	if p.uploadErr != nil {
		return "", p.uploadErr
	}
	p.uploads++
	return fmt.Sprintf("media-%d", p.uploads), nil
}

func (p *fakePoster) DownloadImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	if p.downloadErr != nil {
		return nil, "", p.downloadErr
	}
	return []byte("image-bytes"), "image/png", nil
}

func testEntries(base time.Time) []feed.Entry {
	return []feed.Entry{
		{URL: "https://example.com/1", Link: "https://example.com/1", Title: "One", Updated: base.Add(time.Hour)},
		{URL: "https://example.com/2", Link: "https://example.com/2", Title: "Two", Updated: base.Add(2 * time.Hour)},
		{URL: "https://example.com/3", Link: "https://example.com/3", Title: "Three", Updated: base.Add(3 * time.Hour)},
	}
}

func newTask(fetcher *fakeFetcher, poster *fakePoster, watermarkRepo *fakeWatermarkRepo, ledgerRepo *fakeLedgerRepo, feedConfig config.Feed, opts Options) *PublishFeedTask {
	return NewPublishFeedTask(feedConfig, fetcher, feed.NewRenderer(), poster, watermarkRepo, ledgerRepo, opts)
}

func TestPublishFeedTask_PublishesInOrder(t *testing.T) {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	entries := testEntries(base)

	fetcher := &fakeFetcher{entries: entries}
	poster := &fakePoster{}
	watermarkRepo := newFakeWatermarkRepo()
	ledgerRepo := newFakeLedgerRepo()
	feedConfig := config.Feed{URL: "https://example.com/feed", Template: "{title}"}

	task := newTask(fetcher, poster, watermarkRepo, ledgerRepo, feedConfig, Options{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(poster.statuses) != 3 {
		t.Fatalf("Expected 3 posts, got %d", len(poster.statuses))
	}
	for i, title := range []string{"One", "Two", "Three"} {
		if poster.statuses[i].text != title {
			t.Errorf("Expected post %d to be %q, got %q", i, title, poster.statuses[i].text)
		}
	}

	watermark := watermarkRepo.watermarks[feedConfig.URL]
	if !watermark.Equal(entries[2].Updated) {
		t.Errorf("Expected watermark at newest entry %v, got %v", entries[2].Updated, watermark)
	}
}

func TestPublishFeedTask_SecondRunPublishesNothing(t *testing.T) {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	entries := testEntries(base)

	fetcher := &fakeFetcher{entries: entries}
	poster := &fakePoster{}
	watermarkRepo := newFakeWatermarkRepo()
	ledgerRepo := newFakeLedgerRepo()
	feedConfig := config.Feed{URL: "https://example.com/feed", Template: "{title}"}

	task := newTask(fetcher, poster, watermarkRepo, ledgerRepo, feedConfig, Options{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error on first run: %v", err)
	}
	firstWatermark := watermarkRepo.watermarks[feedConfig.URL]

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error on second run: %v", err)
	}

	if len(poster.statuses) != 3 {
		t.Errorf("Expected no additional posts on second run, got %d total", len(poster.statuses))
	}
	if !watermarkRepo.watermarks[feedConfig.URL].Equal(firstWatermark) {
		t.Errorf("Expected watermark unchanged on second run")
	}
}

func TestPublishFeedTask_DedupeSkipsRepeatedValue(t *testing.T) {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	// Same link, different timestamps
	entries := []feed.Entry{
		{URL: "https://example.com/a", Link: "https://example.com/shared", Title: "First", Updated: base.Add(time.Hour)},
		{URL: "https://example.com/b", Link: "https://example.com/shared", Title: "Second", Updated: base.Add(2 * time.Hour)},
	}

	fetcher := &fakeFetcher{entries: entries}
	poster := &fakePoster{}
	watermarkRepo := newFakeWatermarkRepo()
	ledgerRepo := newFakeLedgerRepo()
	feedConfig := config.Feed{URL: "https://example.com/feed", Template: "{title}"}

	task := newTask(fetcher, poster, watermarkRepo, ledgerRepo, feedConfig, Options{DedupeField: "link"})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(poster.statuses) != 1 {
		t.Fatalf("Expected 1 post, got %d", len(poster.statuses))
	}
	if poster.statuses[0].text != "First" {
		t.Errorf("Expected the first entry to be posted, got %q", poster.statuses[0].text)
	}

	if len(ledgerRepo.values[feedConfig.URL]) != 1 {
		t.Errorf("Expected 1 ledger value, got %v", ledgerRepo.values[feedConfig.URL])
	}

	// The duplicate still counts as caught up
	watermark := watermarkRepo.watermarks[feedConfig.URL]
	if !watermark.Equal(entries[1].Updated) {
		t.Errorf("Expected watermark past the duplicate %v, got %v", entries[1].Updated, watermark)
	}
}

func TestPublishFeedTask_EmptyDedupeFieldDisablesLedger(t *testing.T) {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	entries := []feed.Entry{
		{URL: "https://example.com/a", Link: "https://example.com/shared", Title: "First", Updated: base.Add(time.Hour)},
		{URL: "https://example.com/b", Link: "https://example.com/shared", Title: "Second", Updated: base.Add(2 * time.Hour)},
	}

	fetcher := &fakeFetcher{entries: entries}
	poster := &fakePoster{}
	watermarkRepo := newFakeWatermarkRepo()
	ledgerRepo := newFakeLedgerRepo()
	feedConfig := config.Feed{URL: "https://example.com/feed", Template: "{title}"}

	task := newTask(fetcher, poster, watermarkRepo, ledgerRepo, feedConfig, Options{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(poster.statuses) != 2 {
		t.Errorf("Expected both entries posted without dedupe, got %d", len(poster.statuses))
	}
	if len(ledgerRepo.values[feedConfig.URL]) != 0 {
		t.Errorf("Expected no ledger writes, got %v", ledgerRepo.values[feedConfig.URL])
	}
}

func TestPublishFeedTask_DryRunMutatesNothing(t *testing.T) {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	fetcher := &fakeFetcher{entries: testEntries(base)}
	poster := &fakePoster{}
	watermarkRepo := newFakeWatermarkRepo()
	ledgerRepo := newFakeLedgerRepo()
	feedConfig := config.Feed{URL: "https://example.com/feed", Template: "{title}"}

	task := newTask(fetcher, poster, watermarkRepo, ledgerRepo, feedConfig, Options{DryRun: true, DedupeField: "link"})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(poster.statuses) != 0 {
		t.Errorf("Expected no posts in dry run, got %d", len(poster.statuses))
	}
	if len(watermarkRepo.watermarks) != 0 {
		t.Errorf("Expected no watermark writes in dry run, got %v", watermarkRepo.watermarks)
	}
	if len(ledgerRepo.values[feedConfig.URL]) != 0 {
		t.Errorf("Expected no ledger writes in dry run, got %v", ledgerRepo.values[feedConfig.URL])
	}
}

func TestPublishFeedTask_ImageFailureSkipsOnlyThatEntry(t *testing.T) {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	entries := []feed.Entry{
		{URL: "https://example.com/1", Title: "WithImage", Images: []string{"https://example.com/a.png"}, Updated: base.Add(time.Hour)},
		{URL: "https://example.com/2", Title: "Plain", Updated: base.Add(2 * time.Hour)},
	}

	fetcher := &fakeFetcher{entries: entries}
	poster := &fakePoster{downloadErr: errors.New("connection refused")}
	watermarkRepo := newFakeWatermarkRepo()
	ledgerRepo := newFakeLedgerRepo()
	feedConfig := config.Feed{URL: "https://example.com/feed", Template: "{title}", IncludeImages: true}

	task := newTask(fetcher, poster, watermarkRepo, ledgerRepo, feedConfig, Options{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected image failure not to fail the feed, got: %v", err)
	}

	if len(poster.statuses) != 1 {
		t.Fatalf("Expected only the image-less entry posted, got %d posts", len(poster.statuses))
	}
	if poster.statuses[0].text != "Plain" {
		t.Errorf("Expected 'Plain' posted, got %q", poster.statuses[0].text)
	}

	// The failed entry still counts as caught up
	watermark := watermarkRepo.watermarks[feedConfig.URL]
	if !watermark.Equal(entries[1].Updated) {
		t.Errorf("Expected watermark %v, got %v", entries[1].Updated, watermark)
	}
}

func TestPublishFeedTask_AttachesAtMostFourImages(t *testing.T) {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	entry := feed.Entry{
		URL:   "https://example.com/1",
		Title: "Many images",
		Images: []string{
			"https://example.com/1.png", "https://example.com/2.png",
			"https://example.com/3.png", "https://example.com/4.png",
			"https://example.com/5.png", "https://example.com/6.png",
		},
		Updated: base.Add(time.Hour),
	}

	fetcher := &fakeFetcher{entries: []feed.Entry{entry}}
	poster := &fakePoster{}
	watermarkRepo := newFakeWatermarkRepo()
	ledgerRepo := newFakeLedgerRepo()
	feedConfig := config.Feed{URL: "https://example.com/feed", Template: "{title}", IncludeImages: true}

	task := newTask(fetcher, poster, watermarkRepo, ledgerRepo, feedConfig, Options{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(poster.statuses) != 1 {
		t.Fatalf("Expected 1 post, got %d", len(poster.statuses))
	}
	if len(poster.statuses[0].mediaIDs) != MaxAttachedImages {
		t.Errorf("Expected %d attachments, got %d", MaxAttachedImages, len(poster.statuses[0].mediaIDs))
	}
}

func TestPublishFeedTask_FetchErrorLeavesStateUntouched(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	poster := &fakePoster{}
	watermarkRepo := newFakeWatermarkRepo()
	ledgerRepo := newFakeLedgerRepo()
	feedConfig := config.Feed{URL: "https://example.com/feed", Template: "{title}"}

	task := newTask(fetcher, poster, watermarkRepo, ledgerRepo, feedConfig, Options{})

	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected fetch error, got nil")
	}

	if len(watermarkRepo.watermarks) != 0 {
		t.Errorf("Expected watermark untouched after fetch failure, got %v", watermarkRepo.watermarks)
	}
}

func TestPublishFeedTask_PersistenceErrorIsMarked(t *testing.T) {
	watermarkRepo := newFakeWatermarkRepo()
	watermarkRepo.getErr = errors.New("disk full")

	task := newTask(&fakeFetcher{}, &fakePoster{}, watermarkRepo, newFakeLedgerRepo(),
		config.Feed{URL: "https://example.com/feed", Template: "{title}"}, Options{})

	err := task.Execute(context.Background())
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("Expected persistence error to be marked, got: %v", err)
	}
}
