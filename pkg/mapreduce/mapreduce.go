// Package mapreduce folds per-record tier verdicts into batch distributions.
package mapreduce

import "github.com/dtnitsch/record-tiers/models"

// Tally counts records per tier label.
type Tally struct {
	Records  int
	Content  map[string]int
	Metadata map[string]int
	// Combined keys look like "4C": content label then metadata label.
	Combined map[string]int
	Provider map[string]int
}

func newTally() Tally {
	return Tally{
		Content:  map[string]int{},
		Metadata: map[string]int{},
		Combined: map[string]int{},
		Provider: map[string]int{},
	}
}

// Map generates the tally of a single classified record.
func Map(s models.TierClassificationSummary) Tally {
	t := newTally()
	t.Records = 1
	t.Content[s.ContentTier] = 1
	t.Metadata[s.MetadataTier] = 1
	t.Combined[s.ContentTier+s.MetadataTier] = 1
	if s.ProviderID != "" {
		t.Provider[s.ProviderID] = 1
	}
	return t
}

// Reduce aggregates a slice of tallies into a single tally.
func Reduce(intermediate []Tally) Tally {
	final := newTally()
	for _, t := range intermediate {
		final.Records += t.Records
		add(final.Content, t.Content)
		add(final.Metadata, t.Metadata)
		add(final.Combined, t.Combined)
		add(final.Provider, t.Provider)
	}
	return final
}

func add(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}
