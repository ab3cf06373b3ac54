package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectISO6391 returns the two-letter language code for a text sample, or
// an empty string when the sample is too short to judge.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 6 {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

// Matches reports whether the sample's detected language matches the
// wanted code ("en", "en-US", ...). Undetectable samples match, so short
// or ambiguous articles are never dropped by the language filter.
func Matches(text, wanted string) bool {
	want := primarySubtag(wanted)
	if want == "" {
		return true
	}
	detected := DetectISO6391(text)
	if detected == "" {
		return true
	}
	return detected == want
}

func primarySubtag(tag string) string {
	trimmed := strings.ToLower(strings.TrimSpace(tag))
	trimmed = strings.ReplaceAll(trimmed, "_", "-")
	if dash := strings.IndexByte(trimmed, '-'); dash >= 0 {
		trimmed = trimmed[:dash]
	}
	for _, r := range trimmed {
		if r < 'a' || r > 'z' {
			return ""
		}
	}
	return trimmed
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
