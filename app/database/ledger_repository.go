package database

import (
	"fmt"
)

// MaxLedgerSize is the number of dedupe values kept per feed. Recording
// past the cap evicts the oldest value.
const MaxLedgerSize = 50

// LedgerRepository keeps a bounded FIFO of previously published dedupe
// values per feed, in insertion order.
type LedgerRepository struct {
	db *DB
}

func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Seen reports whether value was already recorded for the feed.
func (r *LedgerRepository) Seen(feedURL, value string) (bool, error) {
	var exists int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM ledger_entries WHERE feed_url = ? AND value = ?
	`, feedURL, value).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ledger: %w", err)
	}

	return exists > 0, nil
}

// Record appends value to the feed's ledger and evicts the oldest entry
// when the ledger exceeds MaxLedgerSize. One eviction per call is enough
// since at most one value is appended per call.
func (r *LedgerRepository) Record(feedURL, value string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO ledger_entries (feed_url, value) VALUES (?, ?)
	`, feedURL, value); err != nil {
		return fmt.Errorf("failed to record ledger value: %w", err)
	}

	var count int
	if err := tx.QueryRow(`
		SELECT COUNT(*) FROM ledger_entries WHERE feed_url = ?
	`, feedURL).Scan(&count); err != nil {
		return fmt.Errorf("failed to count ledger values: %w", err)
	}

	if count > MaxLedgerSize {
		if _, err := tx.Exec(`
			DELETE FROM ledger_entries
			WHERE id = (SELECT MIN(id) FROM ledger_entries WHERE feed_url = ?)
		`, feedURL); err != nil {
			return fmt.Errorf("failed to evict oldest ledger value: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger update: %w", err)
	}

	return nil
}

// Values returns the feed's recorded values, oldest first.
func (r *LedgerRepository) Values(feedURL string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT value FROM ledger_entries WHERE feed_url = ? ORDER BY id ASC
	`, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}

	return values, nil
}
