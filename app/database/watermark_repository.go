package database

import (
	"database/sql"
	"fmt"
	"time"
)

// WatermarkRepository tracks the most recently published entry timestamp
// per feed. An unknown feed has the zero time, so every entry qualifies.
type WatermarkRepository struct {
	db *DB
}

func NewWatermarkRepository(db *DB) *WatermarkRepository {
	return &WatermarkRepository{db: db}
}

// Get returns the stored watermark for the feed, or the zero time if none.
func (r *WatermarkRepository) Get(feedURL string) (time.Time, error) {
	var stored string
	err := r.db.QueryRow(`
		SELECT published_at FROM watermarks WHERE feed_url = ?
	`, feedURL).Scan(&stored)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get watermark: %w", err)
	}

	watermark, err := time.Parse(time.RFC3339Nano, stored)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored watermark %q: %w", stored, err)
	}

	return watermark.UTC(), nil
}

// Advance moves the feed's watermark to candidate if it is later than the
// stored value. The watermark never goes backwards.
func (r *WatermarkRepository) Advance(feedURL string, candidate time.Time) error {
	stored, err := r.Get(feedURL)
	if err != nil {
		return err
	}

	if !candidate.After(stored) {
		return nil
	}

	_, err = r.db.Exec(`
		INSERT INTO watermarks (feed_url, published_at) VALUES (?, ?)
		ON CONFLICT (feed_url) DO UPDATE SET published_at = excluded.published_at
	`, feedURL, candidate.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}

	return nil
}
