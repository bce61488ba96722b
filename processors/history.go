package processors

import (
	"strings"

	"videoAssistant/core"
)

// FormatHistory renders the most recent maxMessages turns into prompt-ready
// text. An empty history renders as an empty string so the prompt omits the
// section entirely.
func FormatHistory(history []core.ConversationMessage, maxMessages int) string {
	if len(history) == 0 {
		return ""
	}

	recent := history
	if maxMessages > 0 && len(recent) > maxMessages {
		recent = recent[len(recent)-maxMessages:]
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, msg := range recent {
		role := "Assistant"
		if msg.Role == "user" {
			role = "User"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
