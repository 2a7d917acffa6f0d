package languagestats

import (
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// Guesser proposes an ISO 639-1 code for an untagged literal.
type Guesser interface {
	Guess(text string) (string, bool)
}

// Short strings give unreliable guesses.
const minGuessRunes = 12

// LinguaGuesser detects languages with lingua-go.
type LinguaGuesser struct {
	detector lingua.LanguageDetector
}

// DefaultLanguages covers the languages most providers describe records in.
var DefaultLanguages = []lingua.Language{
	lingua.English, lingua.French, lingua.German, lingua.Dutch, lingua.Italian,
	lingua.Spanish, lingua.Portuguese, lingua.Polish, lingua.Swedish, lingua.Greek,
}

// NewLinguaGuesser builds a detector for languages, or DefaultLanguages when
// none are given.
func NewLinguaGuesser(languages ...lingua.Language) *LinguaGuesser {
	if len(languages) < 2 {
		languages = DefaultLanguages
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithMinimumRelativeDistance(0.1).
		Build()
	return &LinguaGuesser{detector: detector}
}

func (g *LinguaGuesser) Guess(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minGuessRunes {
		return "", false
	}
	lang, ok := g.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
