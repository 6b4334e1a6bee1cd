package summarizer

import (
	"strings"
	"unicode/utf8"
)

const (
	condensedCapPercent    = 30
	condensedBudgetPercent = 25
)

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if runeLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func percentOf(n, pct int) int {
	return n * pct / 100
}

// enforceCondensedLength keeps condensed within 30% of the source length. An
// overlong value is first rebuilt from whole sentences inside a 25% budget, or
// replaced by the quick summary when no sentence fits; the 30% cap is then
// applied to whatever was chosen.
func enforceCondensedLength(condensed, source, quick string) string {
	n := runeLen(source)
	limit := percentOf(n, condensedCapPercent)
	if runeLen(condensed) > limit {
		condensed = rebuildFromSentences(condensed, percentOf(n, condensedBudgetPercent), quick)
	}
	return hardCap(condensed, limit)
}

// rebuildFromSentences concatenates leading sentences of text while the result
// stays within budget runes.
func rebuildFromSentences(text string, budget int, fallback string) string {
	var out string
	for _, s := range splitSentences(text) {
		next := s
		if out != "" {
			next = out + " " + s
		}
		if runeLen(next) > budget {
			break
		}
		out = next
	}
	if out == "" {
		return fallback
	}
	return out
}

// splitSentences splits on ". " and returns each sentence with terminal punctuation.
func splitSentences(text string) []string {
	parts := strings.Split(strings.TrimSpace(text), ". ")
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !endsSentence(p) {
			p += "."
		}
		sentences = append(sentences, p)
	}
	return sentences
}

func endsSentence(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

// hardCap truncates text to at most limit runes, cutting at the last sentence
// end when there is one and at the last word boundary otherwise. A single word
// longer than limit yields "" rather than a fragment.
func hardCap(text string, limit int) string {
	if runeLen(text) <= limit {
		return text
	}
	cut := truncateRunes(text, limit)
	if i := strings.LastIndexAny(cut, ".!?"); i > 0 {
		return strings.TrimSpace(cut[:i+1])
	}
	if i := strings.LastIndex(cut, " "); i > 0 {
		return strings.TrimSpace(cut[:i])
	}
	return ""
}

// firstWords returns the first n words of text, marking a cut with "...".
func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "..."
}
