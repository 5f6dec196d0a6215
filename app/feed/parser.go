package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	gofeedParser := gofeed.NewParser()
	gofeedParser.RSSTranslator = newRSSTranslator()

	return &Parser{
		gofeedParser: gofeedParser,
	}
}

// rssTranslator extends the default RSS translation, which drops the
// <comments> element.
type rssTranslator struct {
	defaultTranslator *gofeed.DefaultRSSTranslator
}

func newRSSTranslator() *rssTranslator {
	return &rssTranslator{
		defaultTranslator: &gofeed.DefaultRSSTranslator{},
	}
}

func (t *rssTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	rssFeed, ok := feed.(*rss.Feed)
	if !ok {
		return nil, fmt.Errorf("feed is not an RSS feed")
	}

	translated, err := t.defaultTranslator.Translate(rssFeed)
	if err != nil {
		return nil, err
	}

	for i, item := range rssFeed.Items {
		if i >= len(translated.Items) || item.Comments == "" {
			continue
		}
		if translated.Items[i].Custom == nil {
			translated.Items[i].Custom = map[string]string{}
		}
		translated.Items[i].Custom["comments"] = item.Comments
	}

	return translated, nil
}

// Run parses feed data and returns its entries in feed-supplied order.
// An entry without a parsable update timestamp is an error for the whole
// feed rather than a silently defaulted value.
func (p *Parser) Run(data []byte) ([]Entry, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entry, err := p.normalizeItem(item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) (Entry, error) {
	id := cmp.Or(item.GUID, item.Link)
	if id == "" {
		return Entry{}, fmt.Errorf("entry has no identifier")
	}

	updated := cmp.Or(item.UpdatedParsed, item.PublishedParsed)
	if updated == nil {
		return Entry{}, fmt.Errorf("entry %q has no parsable update timestamp", id)
	}

	entry := Entry{
		URL:      id,
		Link:     item.Link,
		Links:    item.Links,
		Comments: item.Custom["comments"],
		Title:    Cleanup(item.Title),
		Summary:  Cleanup(item.Description),
		Content:  Cleanup(item.Content),
		Hashtags: p.buildHashtags(item.Categories),
		Images:   ExtractImages(item.Description),
		Updated:  updated.UTC(),
	}

	return entry, nil
}

// buildHashtags turns category terms into a space-joined hashtag string:
// spaces become underscores, periods and hyphens are dropped.
func (p *Parser) buildHashtags(categories []string) string {
	hashtags := make([]string, 0, len(categories))
	for _, category := range categories {
		tag := strings.ReplaceAll(category, " ", "_")
		tag = strings.ReplaceAll(tag, ".", "")
		tag = strings.ReplaceAll(tag, "-", "")
		hashtags = append(hashtags, "#"+tag)
	}
	return strings.Join(hashtags, " ")
}
