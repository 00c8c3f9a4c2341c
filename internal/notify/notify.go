// Package notify delivers advisor messages to the user and collects their
// replies.
package notify

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chris/sprout/internal/care"
)

// Notifier is a chat channel the advisor talks through.
type Notifier interface {
	Send(ctx context.Context, text string) error
	// Recent returns the user's messages newer than since, oldest first.
	Recent(ctx context.Context, since time.Time) ([]care.InboundMessage, error)
}

// Split breaks s into chunks of at most maxLen bytes, preferring to cut
// after a newline. A line longer than maxLen is split mid-line, on a rune
// boundary.
func Split(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end > len(s) {
			end = len(s)
		}
		// Try to split at a newline
		if idx := strings.LastIndex(s[:end], "\n"); idx > 0 && end < len(s) {
			end = idx + 1
		}
		// Never cut inside a multi-byte character.
		for end < len(s) && end > 1 && !utf8.RuneStart(s[end]) {
			end--
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}

func inbound(text string, at time.Time, loc *time.Location, author string) care.InboundMessage {
	return care.InboundMessage{
		Text:   strings.ToLower(text),
		Date:   at.In(loc).Format(care.DateLayout),
		At:     at,
		Author: author,
	}
}
