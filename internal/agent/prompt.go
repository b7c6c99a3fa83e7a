package agent

import (
	"fmt"
	"strings"

	"github.com/quill-ai/quill/internal/search"
)

// DefaultExcerptChars bounds how much of each grounding note is injected.
const DefaultExcerptChars = 800

const systemInstructions = `You are Quill, an assistant embedded in the user's personal note vault.
Ground your answers in the provided notes when they are relevant, and say so when they are not.
You may call tools to read, list, create and edit notes. Prefer reading a note before editing it.
Answer in concise markdown.`

// systemPrompt builds the operating instructions, with a labeled excerpt
// of each grounding result when search produced any.
func systemPrompt(grounding []search.Result, excerptChars int) string {
	if len(grounding) == 0 {
		return systemInstructions
	}

	var sb strings.Builder
	sb.WriteString(systemInstructions)
	sb.WriteString("\n\nRelevant notes from the vault:\n")
	for _, r := range grounding {
		fmt.Fprintf(&sb, "\n## %s (%s)\n%s\n", r.Note.Title, r.Note.Path, excerpt(r.Content, excerptChars))
	}
	return sb.String()
}

// groundedUserTurn folds grounding into a single user-turn context block
// for the non-agentic path.
func groundedUserTurn(message string, grounding []search.Result, excerptChars int) string {
	if len(grounding) == 0 {
		return message
	}

	var sb strings.Builder
	sb.WriteString("Context from my notes:\n")
	for _, r := range grounding {
		fmt.Fprintf(&sb, "\n## %s (%s)\n%s\n", r.Note.Title, r.Note.Path, excerpt(r.Content, excerptChars))
	}
	sb.WriteString("\n---\n\n")
	sb.WriteString(message)
	return sb.String()
}

// excerpt returns roughly the first limit bytes of content, cut at a rune
// boundary.
func excerpt(content string, limit int) string {
	if len(content) <= limit {
		return content
	}
	cut := limit
	for cut > 0 && !isRuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
