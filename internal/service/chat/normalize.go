package chat

import (
	"regexp"
	"strings"

	"github.com/champs-software/support-chat/internal/service/assistant"
)

var (
	// citationPattern matches the bracketed source-span markers the retrieval
	// tool injects, e.g. 【3:0†source】.
	citationPattern = regexp.MustCompile(`【\d+:[^】]+】`)

	// strongPattern matches innermost **…** spans only; escaped or unbalanced
	// asterisks pass through untouched.
	strongPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// Normalize post-processes a raw assistant reply for display: citation
// markers are stripped, the ends trimmed, and **bold** spans converted to
// <strong> tags.
func Normalize(raw string) string {
	cleaned := citationPattern.ReplaceAllString(raw, "")
	cleaned = strings.TrimSpace(cleaned)
	return strongPattern.ReplaceAllString(cleaned, "<strong>$1</strong>")
}

// ExtractReply scans run messages newest-to-oldest and returns the first
// assistant-authored message with extractable content. The false return is a
// soft no-match, not an error.
func ExtractReply(messages []assistant.Message) (string, bool) {
	for _, msg := range messages {
		if text, ok := extractText(msg); ok {
			return text, true
		}
	}
	return "", false
}

// extractText pulls display text out of one remote message. Only assistant
// messages are eligible. Block payloads yield the first block's nested text
// value, falling back to its raw rendering for unrecognized shapes.
func extractText(msg assistant.Message) (string, bool) {
	if msg.Role != assistant.RoleAssistant {
		return "", false
	}

	switch msg.Content.Kind {
	case assistant.ContentText:
		return msg.Content.Text, true
	case assistant.ContentBlocks:
		if len(msg.Content.Blocks) == 0 {
			return "", false
		}
		first := msg.Content.Blocks[0]
		if first.Text != "" {
			return first.Text, true
		}
		if first.Raw != "" {
			return first.Raw, true
		}
		return "", false
	default:
		return "", false
	}
}
