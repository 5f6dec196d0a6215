package feed

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	nbspRunRe       = regexp.MustCompile(`\x{00a0}+`)
	spaceRunRe      = regexp.MustCompile(`  +`)
	trailingSpaceRe = regexp.MustCompile(` +\n`)
	newlineRunRe    = regexp.MustCompile(`\n\n\n+`)
)

// Cleanup strips markup from text and normalizes its whitespace: runs of
// non-breaking spaces become a single space, runs of spaces collapse to one,
// trailing spaces before newlines are dropped and three or more consecutive
// newlines collapse to two.
func Cleanup(text string) string {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
		text = doc.Text()
	}

	text = nbspRunRe.ReplaceAllString(text, " ")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = trailingSpaceRe.ReplaceAllString(text, "\n")
	text = newlineRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// ExtractImages collects img src URLs from markup in document order,
// dropping repeated URLs while keeping first-seen order.
func ExtractImages(markup string) []string {
	if markup == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var urls []string
	seen := make(map[string]bool)
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" || seen[src] {
			return
		}
		seen[src] = true
		urls = append(urls, src)
	})

	return urls
}
