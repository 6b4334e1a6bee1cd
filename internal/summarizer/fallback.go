package summarizer

import (
	"fmt"
	"strings"

	"github.com/user/curation-service/internal/domain"
)

const (
	fallbackQuickWords     = 80
	fallbackDetailedWords  = 250
	fallbackCondensedWords = 150

	shortQuickChars = 200
	shortTakeaways  = 3
)

// fallbackBundle derives every field from the source text. It is deterministic
// and never leaves a field empty. A non-empty quick summary from an earlier
// model pass is kept.
func fallbackBundle(c domain.ExtractedContent, source, quick string) domain.SummaryBundle {
	if quick == "" {
		quick = firstWords(source, fallbackQuickWords)
	}
	return domain.SummaryBundle{
		QuickSummary:     quick,
		DetailedAnalysis: firstWords(source, fallbackDetailedWords),
		KeyTakeaways: []string{
			"Automated analysis unavailable; this summary was generated directly from the source text.",
			fmt.Sprintf("Read the original %s for full context.", c.Platform.Label()),
		},
		Statistics:       []domain.Statistic{derivedStatistic(source)},
		CondensedContent: hardCap(firstWords(source, fallbackCondensedWords), percentOf(runeLen(source), condensedCapPercent)),
		Path:             domain.SummaryPathFallback,
	}
}

// shortBundle summarizes content too short to be worth a model call.
func shortBundle(source string) domain.SummaryBundle {
	quick := source
	if runeLen(source) > shortQuickChars {
		quick = truncateRunes(source, shortQuickChars) + "..."
	}

	takeaways := splitSentences(source)
	if len(takeaways) > shortTakeaways {
		takeaways = takeaways[:shortTakeaways]
	}
	if len(takeaways) == 0 {
		takeaways = []string{source}
	}

	return domain.SummaryBundle{
		QuickSummary:     quick,
		DetailedAnalysis: source,
		KeyTakeaways:     takeaways,
		Statistics:       []domain.Statistic{derivedStatistic(source)},
		CondensedContent: hardCap(source, percentOf(runeLen(source), condensedCapPercent)),
		Path:             domain.SummaryPathShort,
	}
}

func derivedStatistic(source string) domain.Statistic {
	return domain.Statistic{
		Label:   "Source length",
		Value:   fmt.Sprintf("%d words", len(strings.Fields(source))),
		Context: "Derived from the extracted text; no figures were analyzed.",
	}
}
