package summarizer

import (
	"fmt"
	"strings"

	"github.com/user/curation-service/internal/domain"
)

const quickSystemPrompt = `You are a professional news editor. Write a concise 60-80 word summary of the %s for quick reading. ` +
	`Respond ONLY with valid JSON of the form {"quickSummary": "..."}.`

const structuredSystemPrompt = `You are a careful analyst. Analyze the %s and respond ONLY with valid JSON using exactly these keys:
"overview": a 2-3 sentence overview,
"statistics": an array of {"label", "value", "context"} objects for figures stated in the content (empty array if there are none),
"analysis": a 150-250 word analysis covering context and implications,
"keyTakeaways": an array of 3 to 5 short takeaways,
"condensed": a plain-prose paraphrase of at most %d characters.
Do not invent facts or numbers that are not in the content.`

func quickPrompt(label string) string {
	return fmt.Sprintf(quickSystemPrompt, label)
}

func structuredPrompt(label string, condensedBudget int) string {
	return fmt.Sprintf(structuredSystemPrompt, label, condensedBudget)
}

// userPrompt presents the content with its provenance. The body is clipped to
// maxChars runes.
func userPrompt(c domain.ExtractedContent, source string, maxChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize this %s.\n\n", c.Platform.Label())
	if c.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", c.Title)
	}
	if c.Author != "" {
		fmt.Fprintf(&b, "Author: %s\n", c.Author)
	}
	if c.Publisher != "" {
		fmt.Fprintf(&b, "Source: %s\n", c.Publisher)
	}
	fmt.Fprintf(&b, "\nContent:\n%s", truncateRunes(source, maxChars))
	return b.String()
}
