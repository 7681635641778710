package assistant

import (
	"fmt"
	"strings"

	"github.com/nimbus-ai/nimbus/internal/history"
	"github.com/nimbus-ai/nimbus/internal/knowledge"
)

const systemPreamble = `You are Nimbus, a helpful desktop assistant. Answer concisely in plain text. If you don't know something, say so.`

// maxContextEntries bounds how many knowledge entries go into a prompt.
const maxContextEntries = 3

// buildPrompt assembles the model prompt: preamble, relevant knowledge,
// recent conversation, then the user's input.
func buildPrompt(input string, known []knowledge.SearchResult, recent []history.Message) string {
	var sb strings.Builder
	sb.WriteString(systemPreamble)
	sb.WriteString("\n")

	if len(known) > 0 {
		sb.WriteString("\nThings you already know:\n")
		limit := maxContextEntries
		if len(known) < limit {
			limit = len(known)
		}
		for _, k := range known[:limit] {
			fmt.Fprintf(&sb, "- %s: %s\n", k.Entry.Topic, k.Entry.Summary)
		}
	}

	if len(recent) > 0 {
		sb.WriteString("\nRecent conversation:\n")
		for _, m := range recent {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
	}

	sb.WriteString("\nuser: ")
	sb.WriteString(input)
	sb.WriteString("\nassistant:")
	return sb.String()
}
