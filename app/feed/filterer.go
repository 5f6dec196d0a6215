package feed

import (
	"sort"
	"time"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops entries dated in the future relative to now, then entries at or
// before the watermark, and returns the remainder in ascending update order.
// Entries with identical timestamps keep their feed-supplied order.
func (f *Filterer) Run(entries []Entry, watermark time.Time, now time.Time) []Entry {
	filtered := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Updated.After(now) {
			continue
		}
		if !entry.Updated.After(watermark) {
			continue
		}
		filtered = append(filtered, entry)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Updated.Before(filtered[j].Updated)
	})

	return filtered
}
