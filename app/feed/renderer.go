package feed

import (
	"regexp"
)

// MaxPostLength is the hard cap on rendered post length in characters,
// independent of the posting instance's own limits.
const MaxPostLength = 499

var placeholderRe = regexp.MustCompile(`\{([a-z]+)\}`)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Run substitutes {field} placeholders in template with the entry's field
// values and truncates the result to MaxPostLength characters. Placeholders
// that name no entry field are left as-is.
func (r *Renderer) Run(template string, entry Entry) string {
	text := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		field := match[1 : len(match)-1]
		value, ok := entry.FieldValue(field)
		if !ok {
			return match
		}
		return value
	})

	runes := []rune(text)
	if len(runes) > MaxPostLength {
		return string(runes[:MaxPostLength])
	}
	return text
}
