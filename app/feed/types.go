package feed

import (
	"strings"
	"time"
)

// Entry is a normalized feed entry, ready for rendering and publishing.
type Entry struct {
	URL      string // stable feed-provided identifier (GUID or link)
	Link     string
	Links    []string
	Comments string
	Title    string
	Summary  string
	Content  string
	Hashtags string
	Images   []string
	Updated  time.Time
}

// FieldValue returns the entry attribute with the given name. Field names
// match the template placeholders and the --dedupe flag values.
func (e Entry) FieldValue(field string) (string, bool) {
	switch field {
	case "url":
		return e.URL, true
	case "link":
		return e.Link, true
	case "links":
		return strings.Join(e.Links, " "), true
	case "comments":
		return e.Comments, true
	case "title":
		return e.Title, true
	case "summary":
		return e.Summary, true
	case "content":
		return e.Content, true
	case "hashtags":
		return e.Hashtags, true
	case "updated":
		return e.Updated.Format(time.RFC3339), true
	default:
		return "", false
	}
}
