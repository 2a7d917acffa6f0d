// Package classifier holds the tier classifiers. Classifiers are pure: all
// network derived facts arrive through Input.Probes.
package classifier

import (
	"errors"

	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/languagestats"
	"github.com/dtnitsch/record-tiers/pkg/record"
	"github.com/dtnitsch/record-tiers/pkg/tier"
)

// ErrNoClassifiers is returned when combining an empty classifier list.
var ErrNoClassifiers = errors.New("combined classifier needs at least one classifier")

// Input is everything a classifier may look at.
type Input struct {
	Record   *record.Wrapper
	Probes   map[string]*models.ProbeResult
	Language *languagestats.Statistics
}

// Probe returns the probe result for url, or nil when it was not probed.
func (in Input) Probe(url string) *models.ProbeResult {
	if in.Probes == nil {
		return nil
	}
	return in.Probes[url]
}

func (in Input) languageStats() *languagestats.Statistics {
	if in.Language != nil {
		return in.Language
	}
	return languagestats.New(in.Record)
}

// Classifier judges one quality dimension.
type Classifier[T tier.Tier] interface {
	Classify(in Input) T
}

// Func adapts a function to Classifier.
type Func[T tier.Tier] func(in Input) T

func (f Func[T]) Classify(in Input) T { return f(in) }

// Combined reports the lowest verdict of its classifiers. Verdicts of equal
// level resolve to the lower label whatever the classifier order.
type Combined[T tier.Tier] struct {
	classifiers []Classifier[T]
}

// NewCombined rejects an empty list and nil members.
func NewCombined[T tier.Tier](classifiers ...Classifier[T]) (*Combined[T], error) {
	if len(classifiers) == 0 {
		return nil, ErrNoClassifiers
	}
	for _, c := range classifiers {
		if c == nil {
			return nil, errors.New("combined classifier given a nil classifier")
		}
	}
	return &Combined[T]{classifiers: append([]Classifier[T](nil), classifiers...)}, nil
}

func (c *Combined[T]) Classify(in Input) T {
	result := c.classifiers[0].Classify(in)
	for _, next := range c.classifiers[1:] {
		result = tier.Floor(result, next.Classify(in))
	}
	return result
}
