package scoring

import (
	"math"
	"sort"
	"strings"

	"skylight.fyi/adwatch/internal/article"
)

// Frequency bonus adds 10% per extra occurrence, capped at +50%.
const (
	maxFrequencyBonusSteps = 5
	frequencyBonusStep     = 0.1

	longPhraseBonus = 1.3 // 3+ words
	twoWordBonus    = 1.1
	titleBonus      = 2.0
)

// Score computes the bounded relevance score and the matched terms for an
// article against a weighted term table. It is a pure function: same
// article text and table, same result. Missing summary or content is
// treated as empty text, and an empty table scores zero.
func Score(a *article.Article, table Table) (float64, []string) {
	if a == nil || len(table) == 0 {
		return 0, nil
	}

	titleText := strings.ToLower(a.Title)
	bodyText := strings.ToLower(a.Summary + " " + a.Content)
	fullText := titleText + " " + bodyText

	maxPossible := table.MaxPossible()
	if maxPossible <= 0 {
		return 0, nil
	}

	var raw float64
	var matched []string

	for _, term := range table {
		phrase := strings.ToLower(term.Phrase)
		if phrase == "" || !strings.Contains(fullText, phrase) {
			continue
		}

		matched = append(matched, term.Phrase)
		termScore := term.Weight

		if strings.Contains(titleText, phrase) {
			termScore *= titleBonus
		}

		// Longer phrases are more specific, so they earn more.
		switch words := len(strings.Fields(term.Phrase)); {
		case words >= 3:
			termScore *= longPhraseBonus
		case words == 2:
			termScore *= twoWordBonus
		}

		if count := strings.Count(fullText, phrase); count > 1 {
			steps := count - 1
			if steps > maxFrequencyBonusSteps {
				steps = maxFrequencyBonusSteps
			}
			termScore *= 1 + float64(steps)*frequencyBonusStep
		}

		raw += termScore
	}

	normalized := raw / maxPossible
	if normalized > 1 {
		normalized = 1
	}
	if normalized < 0 {
		normalized = 0
	}
	normalized = math.Round(normalized*100) / 100

	// Most important first; equal weights keep table order.
	sort.SliceStable(matched, func(i, j int) bool {
		return table.WeightOf(matched[i]) > table.WeightOf(matched[j])
	})

	return normalized, matched
}

// Apply scores every article that has not been scored yet. Already-scored
// articles are left alone so re-running a batch is idempotent.
func Apply(articles []*article.Article, table Table) {
	for _, a := range articles {
		if a == nil || a.Scored() {
			continue
		}
		score, matched := Score(a, table)
		a.SetScore(score, matched)
	}
}
