package scoring

import (
	"math"
	"reflect"
	"testing"

	"skylight.fyi/adwatch/internal/article"
)

func TestScoreWeightedExample(t *testing.T) {
	t.Parallel()

	table := Table{
		{Phrase: "malvertising", Weight: 3},
		{Phrase: "ad fraud", Weight: 3},
	}
	a := &article.Article{Title: "New malvertising campaign targets ad fraud networks"}

	// Both terms in the title: raw = 3*2 + 3*2*1.1 = 12.6, max = 12,
	// clamped to 1.0.
	score, matched := Score(a, table)
	if score != 1.0 {
		t.Fatalf("unexpected score: %v", score)
	}
	// Equal weights keep table declaration order.
	if !reflect.DeepEqual(matched, []string{"malvertising", "ad fraud"}) {
		t.Fatalf("unexpected matched terms: %v", matched)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	a := &article.Article{
		Title:   "Regulators crack down on scam ads",
		Summary: "A wave of malvertising and phishing ads hit app stores.",
		Content: "Investigators traced the ad fraud operation across networks.",
	}

	firstScore, firstMatched := Score(a, table)
	for i := 0; i < 5; i++ {
		score, matched := Score(a, table)
		if score != firstScore {
			t.Fatalf("score changed between calls: %v vs %v", score, firstScore)
		}
		if !reflect.DeepEqual(matched, firstMatched) {
			t.Fatalf("matched terms changed between calls: %v vs %v", matched, firstMatched)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	table := Table{{Phrase: "ads", Weight: 0.1}}
	cases := []*article.Article{
		{},
		{Title: "ads ads ads ads ads ads ads ads", Content: "ads ads ads"},
		{Title: "nothing relevant here"},
	}
	for _, a := range cases {
		score, _ := Score(a, table)
		if score < 0 || score > 1 {
			t.Fatalf("score out of bounds for %+v: %v", a, score)
		}
	}
}

func TestScoreEmptyTable(t *testing.T) {
	t.Parallel()

	a := &article.Article{Title: "malvertising everywhere"}
	score, matched := Score(a, nil)
	if score != 0 {
		t.Fatalf("expected zero score for empty table, got %v", score)
	}
	if len(matched) != 0 {
		t.Fatalf("expected no matches for empty table, got %v", matched)
	}
}

func TestScoreMissingFieldsTreatedAsEmpty(t *testing.T) {
	t.Parallel()

	score, matched := Score(&article.Article{Title: "ad fraud ring busted"}, Table{{Phrase: "ad fraud", Weight: 3}})
	if score <= 0 {
		t.Fatalf("title-only article should still score, got %v", score)
	}
	if len(matched) != 1 || matched[0] != "ad fraud" {
		t.Fatalf("unexpected matches: %v", matched)
	}
}

func TestTitleBonusRaisesScore(t *testing.T) {
	t.Parallel()

	table := Table{{Phrase: "malvertising", Weight: 3}, {Phrase: "padding term", Weight: 30}}

	inTitle := &article.Article{Title: "malvertising campaign"}
	inBody := &article.Article{Title: "campaign", Content: "malvertising"}

	titleScore, _ := Score(inTitle, table)
	bodyScore, _ := Score(inBody, table)
	if titleScore <= bodyScore {
		t.Fatalf("title match should outscore body-only match: %v <= %v", titleScore, bodyScore)
	}
}

func TestFrequencyBonusCaps(t *testing.T) {
	t.Parallel()

	table := Table{{Phrase: "scam", Weight: 1}, {Phrase: "padding", Weight: 100}}

	repeat := func(n int) *article.Article {
		content := ""
		for i := 0; i < n; i++ {
			content += " scam"
		}
		return &article.Article{Content: content}
	}

	sixScore, _ := Score(repeat(6), table)
	twentyScore, _ := Score(repeat(20), table)
	if sixScore != twentyScore {
		t.Fatalf("frequency bonus should cap at 6 occurrences: %v vs %v", sixScore, twentyScore)
	}

	onceScore, _ := Score(repeat(1), table)
	if sixScore <= onceScore {
		t.Fatalf("repetition should still raise score below the cap: %v <= %v", sixScore, onceScore)
	}
}

func TestMatchedTermsSortByWeightDescending(t *testing.T) {
	t.Parallel()

	table := Table{
		{Phrase: "social engineering", Weight: 1},
		{Phrase: "phishing ads", Weight: 2.5},
		{Phrase: "malvertising", Weight: 3},
	}
	a := &article.Article{Content: "social engineering via phishing ads and malvertising"}

	_, matched := Score(a, table)
	want := []string{"malvertising", "phishing ads", "social engineering"}
	if !reflect.DeepEqual(matched, want) {
		t.Fatalf("unexpected matched order\nwant: %v\ngot:  %v", want, matched)
	}
}

func TestScoreRoundsToTwoDecimals(t *testing.T) {
	t.Parallel()

	table := Table{{Phrase: "fake ads", Weight: 3}, {Phrase: "filler", Weight: 4}}
	a := &article.Article{Content: "fake ads spotted"}

	score, _ := Score(a, table)
	if math.Round(score*100)/100 != score {
		t.Fatalf("score not rounded to 2 decimals: %v", score)
	}
}

func TestApplySkipsScoredArticles(t *testing.T) {
	t.Parallel()

	already := &article.Article{Title: "malvertising"}
	already.SetScore(0.42, []string{"left alone"})
	fresh := &article.Article{Title: "malvertising report"}

	Apply([]*article.Article{already, fresh, nil}, DefaultTable())

	if already.Score() != 0.42 {
		t.Fatalf("Apply overwrote an existing score: %v", already.Score())
	}
	if !fresh.Scored() {
		t.Fatalf("Apply did not score a fresh article")
	}
}
