// Package languagestats measures how much of a record's descriptive metadata
// carries language tags.
package languagestats

import (
	"sort"

	"github.com/dtnitsch/record-tiers/pkg/record"
)

// Categories are the language-taggable descriptive properties.
var Categories = []string{
	"dc:coverage",
	"dc:description",
	"dc:format",
	"dc:relation",
	"dc:rights",
	"dc:source",
	"dc:subject",
	"dc:title",
	"dc:type",
	"dcterms:alternative",
	"dcterms:hasPart",
	"dcterms:isPartOf",
	"dcterms:isReferencedBy",
	"dcterms:medium",
	"dcterms:provenance",
	"dcterms:references",
	"dcterms:spatial",
	"dcterms:tableOfContents",
	"dcterms:temporal",
	"edm:currentLocation",
	"edm:hasType",
	"edm:isRelatedTo",
}

// Entity kinds whose tagged labels make references to them count as tagged.
var indexedKinds = map[record.EntityKind]bool{
	record.KindPlace:    true,
	record.KindTimeSpan: true,
	record.KindConcept:  true,
}

// Counts are the occurrences of one category.
type Counts struct {
	Present int `json:"present"`
	Tagged  int `json:"tagged"`
}

// Statistics is built once per record and is read-only afterwards.
type Statistics struct {
	counts  map[string]Counts
	tagged  map[string]struct{}
	guesses map[string]int
}

// Option configures New.
type Option func(*builder)

type builder struct {
	guesser Guesser
}

// WithGuesser tallies the guessed language of untagged literals.
func WithGuesser(g Guesser) Option {
	return func(b *builder) { b.guesser = g }
}

// New counts the provider proxies of w.
func New(w *record.Wrapper, opts ...Option) *Statistics {
	var b builder
	for _, opt := range opts {
		opt(&b)
	}

	s := &Statistics{
		counts:  make(map[string]Counts),
		tagged:  make(map[string]struct{}),
		guesses: make(map[string]int),
	}
	for _, e := range w.Entities() {
		if indexedKinds[e.Kind] && e.HasTaggedPrefLabel() {
			s.tagged[e.About] = struct{}{}
		}
	}

	for _, proxy := range w.ProviderProxies() {
		for _, category := range Categories {
			for _, v := range proxy.Properties[category] {
				s.add(category, v, b.guesser)
			}
		}
	}
	return s
}

// add counts the literal and the resource of v separately; a value carrying
// both contributes two occurrences.
func (s *Statistics) add(category string, v record.PropertyValue, g Guesser) {
	if !v.Present() {
		return
	}
	c := s.counts[category]
	if v.IsLiteral() {
		c.Present++
		if v.HasLang() {
			c.Tagged++
		} else if g != nil {
			if lang, ok := g.Guess(v.Value); ok {
				s.guesses[lang]++
			}
		}
	}
	if v.IsLink() {
		c.Present++
		if _, ok := s.tagged[v.Resource]; ok {
			c.Tagged++
		}
	}
	s.counts[category] = c
}

// Ratio is the tagged share over all categories. ok is false when the record
// has no taggable properties at all, which is not the same as 0% tagged.
func (s *Statistics) Ratio() (ratio float64, ok bool) {
	var present, tagged int
	for _, c := range s.counts {
		present += c.Present
		tagged += c.Tagged
	}
	if present == 0 {
		return 0, false
	}
	return float64(tagged) / float64(present), true
}

// Category returns the counts for one category.
func (s *Statistics) Category(name string) Counts { return s.counts[name] }

// PresentCategories lists categories with at least one occurrence, sorted.
func (s *Statistics) PresentCategories() []string {
	out := make([]string, 0, len(s.counts))
	for name := range s.counts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsTaggedEntity reports whether references to about inherit a language tag.
func (s *Statistics) IsTaggedEntity(about string) bool {
	_, ok := s.tagged[about]
	return ok
}

// Guesses returns guessed language counts of untagged literals. Empty unless
// a Guesser was configured.
func (s *Statistics) Guesses() map[string]int {
	out := make(map[string]int, len(s.guesses))
	for k, v := range s.guesses {
		out[k] = v
	}
	return out
}
