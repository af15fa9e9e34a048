package summarize

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ContentType tells the prompt what kind of source it is reading.
type ContentType string

const (
	ContentText    ContentType = "text"
	ContentArticle ContentType = "article"
	ContentVideo   ContentType = "video"
)

// MaxInputChars caps how much source text is sent to the model.
const MaxInputChars = 30000

const systemPrompt = `You are a summarization engine. Not a chatbot.
Output ONLY in this exact JSON format, no deviations:

{
  "heading": "[compelling title, max 8 words, captures the essence]",
  "summary": "[main summary text with **bold** for key terms]",
  "highlights": ["keyword1", "keyword2", "keyword3"]
}

Rules:
- Output ONLY valid JSON, nothing else
- Use **double asterisks** to bold important terms in the summary
- highlights array: 3-7 key terms that are most important
- heading: should be engaging and descriptive, not generic
- No meta commentary, disclaimers, or source references
- Compress aggressively without hallucinating`

var framing = map[ContentType]string{
	ContentText:    "The content below is text supplied directly by the user.",
	ContentArticle: "The content below was extracted from a web article; ignore leftover navigation or boilerplate.",
	ContentVideo:   "The content below is a video transcript. It may lack punctuation and contain recognition errors; infer sentence boundaries.",
}

// Truncate shortens s to MaxInputChars runes, marking the cut with "...".
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxInputChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxInputChars]) + "..."
}

// BuildPrompt assembles the summarization prompt.
func BuildPrompt(content string, tier Tier, ct ContentType) string {
	frame, ok := framing[ct]
	if !ok {
		frame = framing[ContentText]
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	b.WriteString(frame)
	fmt.Fprintf(&b, "\n\nLength instruction: %s\n", tier.Guidance)
	fmt.Fprintf(&b, "The summary field should be about %d characters (between %d and %d).\n",
		tier.TargetChars, tier.MinChars, tier.MaxChars)
	b.WriteString("\nContent to summarize:\n")
	b.WriteString(Truncate(content))
	return b.String()
}

// Turn is one message of a follow-up conversation.
type Turn struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// HistoryTurns is how many recent turns a follow-up prompt carries.
const HistoryTurns = 4

// BuildFollowUpPrompt grounds a question in the summary and, when given, the source.
func BuildFollowUpPrompt(question, summary, original string, history []Turn) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant answering follow-up questions about a summary.\n\n")
	b.WriteString("Original Summary:\n")
	b.WriteString(summary)
	b.WriteString("\n")

	if strings.TrimSpace(original) != "" {
		b.WriteString("\nOriginal Source Content:\n")
		b.WriteString(Truncate(original))
		b.WriteString("\n")
	}

	b.WriteString("\nConversation History:\n")
	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}
	for _, turn := range history {
		label := "Assistant"
		if turn.Role == "user" {
			label = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, turn.Content)
	}

	fmt.Fprintf(&b, "\nUser: %s\nAssistant:", question)
	return b.String()
}
