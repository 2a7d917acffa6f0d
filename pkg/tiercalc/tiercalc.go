// Package tiercalc computes the content and metadata tiers of one record.
package tiercalc

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/classifier"
	"github.com/dtnitsch/record-tiers/pkg/fetcher"
	"github.com/dtnitsch/record-tiers/pkg/languagestats"
	"github.com/dtnitsch/record-tiers/pkg/record"
	"github.com/dtnitsch/record-tiers/pkg/tier"
)

// TierCalculationError is a structural failure of one calculation. Resource
// failures never produce it.
type TierCalculationError struct {
	Op          string
	EuropeanaID string
	Err         error
}

func (e *TierCalculationError) Error() string {
	if e.EuropeanaID == "" {
		return fmt.Sprintf("tier calculation %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tier calculation %s for %s: %v", e.Op, e.EuropeanaID, e.Err)
}

func (e *TierCalculationError) Unwrap() error { return e.Err }

// Input is one record to classify.
type Input struct {
	Payload      []byte
	EuropeanaID  string
	ProviderID   string
	ProviderLink string
	PortalLink   string
}

// ProbeCache keeps probe results between runs.
type ProbeCache interface {
	Get(url string) (*models.ProbeResult, bool)
	Set(url string, probe *models.ProbeResult) error
}

// ResultStore persists what a calculation produced.
type ResultStore interface {
	SaveReport(report *models.TierReport) error
	RecordProbe(runID string, probe *models.ProbeResult) error
}

// Calculator is safe for concurrent use; every Calculate call owns its
// probes and shares only the fetcher's connection pool.
type Calculator struct {
	deserializer record.Deserializer
	fetcher      *fetcher.Fetcher
	media        classifier.Media
	content      classifier.Classifier[tier.MediaTier]
	metadata     classifier.Classifier[tier.MetadataTier]
	guesser      languagestats.Guesser
	cache        ProbeCache
	store        ResultStore
	logger       *slog.Logger

	maxProbes   int
	earlyCancel bool
}

type Option func(*Calculator)

func WithDeserializer(d record.Deserializer) Option {
	return func(c *Calculator) { c.deserializer = d }
}

func WithCache(pc ProbeCache) Option {
	return func(c *Calculator) { c.cache = pc }
}

func WithStore(s ResultStore) Option {
	return func(c *Calculator) { c.store = s }
}

func WithGuesser(g languagestats.Guesser) Option {
	return func(c *Calculator) { c.guesser = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New wires the classifier battery around f.
func New(f *fetcher.Fetcher, cfg models.ClassifyConfig, opts ...Option) (*Calculator, error) {
	media := classifier.Media{MinReadableText: cfg.MinReadableText}
	content, err := classifier.NewContentClassifier(media)
	if err != nil {
		return nil, fmt.Errorf("failed to build content classifier: %w", err)
	}
	metadata, err := classifier.NewMetadataClassifier()
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata classifier: %w", err)
	}

	c := &Calculator{
		deserializer: record.RDFXML{},
		fetcher:      f,
		media:        media,
		content:      content,
		metadata:     metadata,
		logger:       slog.New(slog.DiscardHandler),
		maxProbes:    max(cfg.MaxConcurrentProbes, 1),
		earlyCancel:  cfg.EarlyCancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.guesser == nil && cfg.GuessLanguages {
		c.guesser = languagestats.NewLinguaGuesser()
	}
	return c, nil
}

// Calculate returns only the summary of CalculateReport.
func (c *Calculator) Calculate(ctx context.Context, in Input) (*models.TierClassificationSummary, error) {
	report, err := c.CalculateReport(ctx, in)
	if err != nil {
		return nil, err
	}
	return &report.Summary, nil
}

// CalculateReport classifies one record and explains the verdict.
func (c *Calculator) CalculateReport(ctx context.Context, in Input) (*models.TierReport, error) {
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID, "europeana_id", in.EuropeanaID)

	w, err := c.deserializer.Deserialize(in.Payload)
	if err != nil {
		return nil, &TierCalculationError{Op: "deserialize", EuropeanaID: in.EuropeanaID, Err: err}
	}

	probes := c.probe(ctx, w, logger)
	if err := ctx.Err(); err != nil {
		return nil, &TierCalculationError{Op: "probe", EuropeanaID: in.EuropeanaID, Err: err}
	}

	var statOpts []languagestats.Option
	if c.guesser != nil {
		statOpts = append(statOpts, languagestats.WithGuesser(c.guesser))
	}
	cin := classifier.Input{
		Record:   w,
		Probes:   probes,
		Language: languagestats.New(w, statOpts...),
	}

	contentTier := c.content.Classify(cin)
	metadataTier := c.metadata.Classify(cin)

	report := &models.TierReport{
		RunID: runID,
		Summary: models.TierClassificationSummary{
			EuropeanaID:  in.EuropeanaID,
			ProviderID:   in.ProviderID,
			ContentTier:  contentTier.Label(),
			MetadataTier: metadataTier.Label(),
			PortalLink:   in.PortalLink,
			ProviderLink: in.ProviderLink,
		},
		Content:  c.contentBreakdown(cin),
		Metadata: metadataBreakdown(cin),
	}
	logger.Info("record classified",
		"edm_type", report.Content.EdmType,
		"content_tier", report.Summary.ContentTier,
		"metadata_tier", report.Summary.MetadataTier,
		"probes", len(probes),
	)

	c.persist(report, probes, logger)
	return report, nil
}

func (c *Calculator) persist(report *models.TierReport, probes map[string]*models.ProbeResult, logger *slog.Logger) {
	if c.store == nil {
		return
	}
	// Storage is a collaborator; its failures do not undo a verdict.
	if err := c.store.SaveReport(report); err != nil {
		logger.Error("failed to save report", "error", err)
		return
	}
	seen := map[*models.ProbeResult]bool{}
	for _, p := range probes {
		if seen[p] {
			continue
		}
		seen[p] = true
		if err := c.store.RecordProbe(report.RunID, p); err != nil {
			logger.Error("failed to record probe", "url", p.URL, "error", err)
		}
	}
}

func (c *Calculator) contentBreakdown(in classifier.Input) models.ContentBreakdown {
	mb := c.media.Breakdown(in)
	license := in.Record.LicenseType()

	b := models.ContentBreakdown{
		EdmType:        string(mb.EdmType),
		License:        license.String(),
		LicenseTier:    classifier.LicenseTier(license).Label(),
		MediaTier:      mb.Tier.Label(),
		HasLandingPage: mb.HasLandingPage,
		HasThumbnails:  mb.HasThumbnails,
		Embeddable:     mb.Embeddable,
		Resources:      make([]models.ResourceVerdict, 0, len(mb.Resources)),
	}
	for _, v := range mb.Resources {
		linkTypes := make([]string, 0, len(v.Entry.LinkTypes))
		for _, lt := range v.Entry.LinkTypes {
			linkTypes = append(linkTypes, string(lt))
		}
		b.Resources = append(b.Resources, models.ResourceVerdict{
			URL:              v.Entry.URL,
			LinkTypes:        linkTypes,
			DeclaredMimeType: v.Entry.DeclaredMimeType,
			Probe:            v.Probe,
			MimeMismatch:     v.Mismatch,
			License:          v.License.String(),
			Tier:             v.Tier.Label(),
		})
	}
	return b
}

func metadataBreakdown(in classifier.Input) models.MetadataBreakdown {
	ratio, defined := in.Language.Ratio()
	enabling := classifier.AnalyzeEnablingElements(in.Record)
	classes := classifier.QualifyingContextualClasses(in.Record)

	b := models.MetadataBreakdown{
		LanguageRatio:     ratio,
		LanguageDefined:   defined,
		LanguageTier:      classifier.LanguageTier(ratio, defined).Label(),
		EnablingElements:  slices.Clone(enabling.Elements),
		EnablingTier:      classifier.EnablingTier(len(enabling.Elements), len(enabling.Groups)).Label(),
		ContextualTier:    classifier.ContextualTier(len(classes)).Label(),
		UntaggedLanguages: in.Language.Guesses(),
	}
	for _, g := range enabling.Groups {
		b.EnablingGroups = append(b.EnablingGroups, string(g))
	}
	for _, k := range classes {
		b.ContextualClasses = append(b.ContextualClasses, string(k))
	}
	if len(b.UntaggedLanguages) == 0 {
		b.UntaggedLanguages = nil
	}
	return b
}
