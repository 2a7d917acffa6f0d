package classifier

import (
	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/detector"
	"github.com/dtnitsch/record-tiers/pkg/mimetable"
	"github.com/dtnitsch/record-tiers/pkg/record"
	"github.com/dtnitsch/record-tiers/pkg/tier"
)

// Image resolution thresholds in pixels.
const (
	ResolutionHigh   = 950_000
	ResolutionMedium = 420_000
	ResolutionLow    = 100_000

	// VideoHighHeight is the minimum height of a high quality video.
	VideoHighHeight = 480

	DefaultMinReadableText = 500
)

// ResourceVerdict is the media tier of one candidate resource.
type ResourceVerdict struct {
	Entry    record.WebResourceEntry
	Probe    *models.ProbeResult
	Usable   bool
	Mismatch bool
	License  record.LicenseType
	Tier     tier.MediaTier
}

// MediaBreakdown explains a media tier.
type MediaBreakdown struct {
	EdmType        record.EdmType
	HasLandingPage bool
	HasThumbnails  bool
	Embeddable     bool
	Resources      []ResourceVerdict
	Tier           tier.MediaTier
}

// Media classifies the technical quality of the media a record links to.
type Media struct {
	// MinReadableText is the readable text length, in characters, for an
	// HTML resource of a TEXT record to count as full text.
	MinReadableText int
}

func (m Media) Classify(in Input) tier.MediaTier { return m.Breakdown(in).Tier }

// Breakdown classifies and keeps the per-resource verdicts.
func (m Media) Breakdown(in Input) MediaBreakdown {
	w := in.Record
	b := MediaBreakdown{
		EdmType:        w.EdmType(),
		HasLandingPage: HasLandingPage(in),
		HasThumbnails:  w.HasThumbnails(),
	}

	switch b.EdmType {
	case record.TypeSound, record.TypeVideo, record.Type3D:
		b.Embeddable = HasEmbeddableMedia(in)
		if b.Embeddable {
			b.Tier = tier.Floor(tier.MediaT4, LicenseTier(w.LicenseType()))
			return b
		}
	case record.TypeImage, record.TypeText:
	default:
		b.Tier = tier.MediaT0
		return b
	}

	entries := w.WebResourceEntries(record.LinkIsShownBy, record.LinkHasView)
	if len(entries) == 0 {
		b.Tier = m.withoutResources(b.EdmType, b.HasLandingPage)
		return b
	}

	b.Tier = tier.MediaT0
	for _, e := range entries {
		v := m.resource(in, e, b.EdmType, b.HasLandingPage)
		b.Resources = append(b.Resources, v)
		b.Tier = tier.Ceil(b.Tier, v.Tier)
	}
	return b
}

// Resource classifies one candidate resource on its own, capped by the
// license that holds for it.
func (m Media) Resource(in Input, e record.WebResourceEntry) ResourceVerdict {
	return m.resource(in, e, in.Record.EdmType(), HasLandingPage(in))
}

func (m Media) resource(in Input, e record.WebResourceEntry, edm record.EdmType, hasLandingPage bool) ResourceVerdict {
	v := m.classifyResource(edm, e, in.Probe(e.URL), hasLandingPage)
	v.License = in.Record.EntryLicenseType(e)
	v.Tier = tier.Floor(v.Tier, LicenseTier(v.License))
	return v
}

func (m Media) withoutResources(edm record.EdmType, hasLandingPage bool) tier.MediaTier {
	if edm != record.TypeImage && hasLandingPage {
		return tier.MediaT1
	}
	return tier.MediaT0
}

func (m Media) classifyResource(edm record.EdmType, e record.WebResourceEntry, probe *models.ProbeResult, hasLandingPage bool) ResourceVerdict {
	v := ResourceVerdict{Entry: e, Probe: probe}
	family := probe.Family()
	if !probe.OK() || !acceptsFamily(edm, family) {
		v.Tier = m.withoutResources(edm, hasLandingPage)
		return v
	}
	v.Usable = true

	switch edm {
	case record.TypeImage:
		v.Tier = imageTier(dimensions(e, probe))
	case record.TypeText:
		switch {
		case family == mimetable.FamilyImage:
			v.Tier = tier.Max(imageTier(dimensions(e, probe)), tier.MediaT1)
		case mimetable.IsDocument(probe.SniffedMimeType):
			v.Tier = tier.MediaT4
		case probe.ReadableTextLength >= m.minReadableText():
			v.Tier = tier.MediaT2
		default:
			v.Tier = tier.MediaT1
		}
	case record.TypeVideo:
		switch {
		case e.Height >= VideoHighHeight:
			v.Tier = tier.MediaT4
		case e.Height > 0:
			v.Tier = tier.MediaT2
		default:
			v.Tier = tier.MediaT3
		}
	case record.TypeSound, record.Type3D:
		v.Tier = tier.MediaT4
	}

	if probe.MimeMismatch(e.DeclaredMimeType) && !avContainers(e.DeclaredFamily(), family) {
		v.Mismatch = true
		v.Tier = tier.Min(v.Tier, tier.MediaT2)
	}
	return v
}

func (m Media) minReadableText() int {
	if m.MinReadableText > 0 {
		return m.MinReadableText
	}
	return DefaultMinReadableText
}

func acceptsFamily(edm record.EdmType, f mimetable.Family) bool {
	switch edm {
	case record.TypeImage:
		return f == mimetable.FamilyImage
	case record.TypeText:
		return f == mimetable.FamilyText || f == mimetable.FamilyImage
	case record.TypeSound:
		// mp4 and ogg containers sniff as video
		return f == mimetable.FamilyAudio || f == mimetable.FamilyVideo
	case record.TypeVideo:
		return f == mimetable.FamilyVideo
	case record.Type3D:
		return f == mimetable.FamilyModel
	}
	return false
}

// avContainers reports audio declared as video or the reverse, which shared
// containers such as mp4 make indistinguishable by sniffing.
func avContainers(a, b mimetable.Family) bool {
	av := func(f mimetable.Family) bool { return f == mimetable.FamilyAudio || f == mimetable.FamilyVideo }
	return av(a) && av(b)
}

// dimensions prefers decoded dimensions over declared ones.
func dimensions(e record.WebResourceEntry, probe *models.ProbeResult) (int, int) {
	if probe != nil && probe.Width > 0 && probe.Height > 0 {
		return probe.Width, probe.Height
	}
	return e.Width, e.Height
}

func imageTier(width, height int) tier.MediaTier {
	if width <= 0 || height <= 0 {
		return tier.MediaT1
	}
	switch px := width * height; {
	case px >= ResolutionHigh:
		return tier.MediaT4
	case px >= ResolutionMedium:
		return tier.MediaT2
	case px >= ResolutionLow:
		return tier.MediaT1
	}
	return tier.MediaT0
}

// HasLandingPage reports a described isShownAt resource, or one the network
// confirmed.
func HasLandingPage(in Input) bool {
	if in.Record.HasLandingPage() {
		return true
	}
	for _, e := range in.Record.WebResourceEntries(record.LinkIsShownAt) {
		if in.Probe(e.URL).OK() {
			return true
		}
	}
	return false
}

// HasEmbeddableMedia reports an isShownBy, hasView or isShownAt link to a
// hosted player.
func HasEmbeddableMedia(in Input) bool {
	for _, e := range in.Record.WebResourceEntries(record.LinkIsShownBy, record.LinkHasView, record.LinkIsShownAt) {
		opts := &detector.EmbedOptions{}
		if p := in.Probe(e.URL); p != nil {
			opts.HasOEmbed = p.HasOEmbed
			opts.FinalURL = p.FinalURL
			opts.PlayerURLs = p.PlayerURLs
		}
		if detector.Analyze(e.URL, opts).IsEmbeddable() {
			return true
		}
	}
	return false
}

// License caps the content tier by the most permissive rights statement of
// the whole record.
type License struct{}

func (License) Classify(in Input) tier.MediaTier { return LicenseTier(in.Record.LicenseType()) }

// LicenseTier maps a license type to the highest content tier it allows.
func LicenseTier(lt record.LicenseType) tier.MediaTier {
	switch lt {
	case record.LicenseOpen:
		return tier.MediaT4
	case record.LicenseRestricted:
		return tier.MediaT3
	}
	return tier.MediaT2
}

// NewContentClassifier combines media and license. On the shared T3/T4 rank
// T3 is reported.
func NewContentClassifier(media Media) (*Combined[tier.MediaTier], error) {
	return NewCombined[tier.MediaTier](media, License{})
}
