package summary

import (
	"context"
	"strings"

	"groupchat/internal/message"
)

// Summarizer condenses a chat transcript into a short text summary.
// It is an optional external collaborator; the chat core never
// depends on it succeeding or even being configured.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// BuildTranscript renders messages, oldest first, one "username: content"
// line per message.
func BuildTranscript(msgs []*message.Message) string {
	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(msg.Username)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
