package publisher

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MaxPostLength is the platform limit, counted in characters (runes).
	MaxPostLength  = 280
	truncationMark = "..."
	postTemplate   = "🤖 AI Joke #%d:\n\n%s"
)

// Post is one shaped, not yet submitted, post.
type Post struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Joke      string `json:"joke"`
	Truncated bool   `json:"truncated"`
}

// FormatPost renders the labelled post for the 1-based index and shapes it to the platform limit.
func FormatPost(index int, joke string) Post {
	text, truncated := Truncate(fmt.Sprintf(postTemplate, index, joke))
	return Post{Index: index, Text: text, Joke: joke, Truncated: truncated}
}

// Truncate cuts text longer than MaxPostLength to MaxPostLength-3 characters plus "...".
// Text already within the limit is returned unchanged.
func Truncate(text string) (string, bool) {
	if utf8.RuneCountInString(text) <= MaxPostLength {
		return text, false
	}
	runes := []rune(text)
	keep := MaxPostLength - utf8.RuneCountInString(truncationMark)
	return string(runes[:keep]) + truncationMark, true
}
