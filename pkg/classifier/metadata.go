package classifier

import (
	"slices"
	"sort"

	"github.com/dtnitsch/record-tiers/pkg/record"
	"github.com/dtnitsch/record-tiers/pkg/tier"
)

// Language grades the share of language tagged descriptive properties.
// A record without taggable properties is not held back by this dimension.
type Language struct{}

func (Language) Classify(in Input) tier.MetadataTier {
	ratio, ok := in.languageStats().Ratio()
	return LanguageTier(ratio, ok)
}

// LanguageTier maps a tagged ratio to a metadata tier. defined is false when
// there was nothing to tag.
func LanguageTier(ratio float64, defined bool) tier.MetadataTier {
	switch {
	case !defined:
		return tier.MetadataTC
	case ratio >= 0.75:
		return tier.MetadataTC
	case ratio >= 0.5:
		return tier.MetadataTB
	case ratio >= 0.25:
		return tier.MetadataTA
	}
	return tier.MetadataT0
}

// Group is a kind of information an enabling element provides.
type Group string

const (
	GroupTemporal     Group = "TEMPORAL"
	GroupConceptual   Group = "CONCEPTUAL"
	GroupPersonal     Group = "PERSONAL"
	GroupGeographical Group = "GEOGRAPHICAL"
)

// EnablingElement is a property that enables search and browsing.
// Fixed elements always contribute their group when present. The others
// contribute the group of each linked entity, restricted to Groups.
type EnablingElement struct {
	Property string
	Groups   []Group
	Fixed    bool
}

// EnablingElements lists the recognized elements.
var EnablingElements = []EnablingElement{
	{"dcterms:created", []Group{GroupTemporal}, true},
	{"dcterms:issued", []Group{GroupTemporal}, true},
	{"dcterms:temporal", []Group{GroupTemporal}, true},
	{"dc:format", []Group{GroupConceptual}, true},
	{"dc:type", []Group{GroupConceptual}, true},
	{"dcterms:medium", []Group{GroupConceptual}, true},
	{"dc:creator", []Group{GroupPersonal}, true},
	{"dc:contributor", []Group{GroupPersonal}, true},
	{"dc:publisher", []Group{GroupPersonal}, true},
	{"dcterms:spatial", []Group{GroupGeographical}, true},
	{"edm:currentLocation", []Group{GroupGeographical}, true},
	{"edm:hasMet", []Group{GroupTemporal, GroupPersonal}, false},
	{"dc:subject", []Group{GroupConceptual, GroupPersonal, GroupGeographical}, false},
}

var kindGroups = map[record.EntityKind]Group{
	record.KindTimeSpan: GroupTemporal,
	record.KindConcept:  GroupConceptual,
	record.KindAgent:    GroupPersonal,
	record.KindPlace:    GroupGeographical,
}

// Analyze returns the groups the element provides over proxies.
func (e EnablingElement) Analyze(w *record.Wrapper, proxies []record.Proxy) []Group {
	var out []Group
	add := func(g Group) {
		if slices.Contains(e.Groups, g) && !slices.Contains(out, g) {
			out = append(out, g)
		}
	}
	for _, p := range proxies {
		for _, v := range p.Properties[e.Property] {
			if e.Fixed {
				if v.Present() {
					add(e.Groups[0])
				}
				continue
			}
			if !v.IsLink() {
				continue
			}
			if ent, ok := w.Entity(v.Resource); ok {
				add(kindGroups[ent.Kind])
			}
		}
	}
	return out
}

// EnablingStats lists the elements and groups found.
type EnablingStats struct {
	Elements []string
	Groups   []Group
}

// AnalyzeEnablingElements inspects the provider proxies of w.
func AnalyzeEnablingElements(w *record.Wrapper) EnablingStats {
	var s EnablingStats
	proxies := w.ProviderProxies()
	for _, e := range EnablingElements {
		groups := e.Analyze(w, proxies)
		if len(groups) == 0 {
			continue
		}
		s.Elements = append(s.Elements, e.Property)
		for _, g := range groups {
			if !slices.Contains(s.Groups, g) {
				s.Groups = append(s.Groups, g)
			}
		}
	}
	sort.Slice(s.Groups, func(i, j int) bool { return s.Groups[i] < s.Groups[j] })
	return s
}

// EnablingTier grades element and group counts.
func EnablingTier(elements, groups int) tier.MetadataTier {
	switch {
	case elements < 1 || groups < 1:
		return tier.MetadataT0
	case elements >= 4 && groups >= 2:
		return tier.MetadataTC
	case elements >= 3 && groups >= 2:
		return tier.MetadataTB
	}
	return tier.MetadataTA
}

// Enabling grades enabling elements.
type Enabling struct{}

func (Enabling) Classify(in Input) tier.MetadataTier {
	s := AnalyzeEnablingElements(in.Record)
	return EnablingTier(len(s.Elements), len(s.Groups))
}

var (
	agentDetails   = []string{"edm:begin", "rdaGr2:dateOfBirth", "rdaGr2:placeOfBirth", "edm:end", "rdaGr2:dateOfDeath", "rdaGr2:placeOfDeath", "rdaGr2:professionOrOccupation"}
	conceptDetails = []string{"skos:note", "skos:broader", "skos:narrower", "skos:exactMatch", "skos:closeMatch", "skos:related"}
)

// EntityQualifies reports a contextual entity complete enough to count.
func EntityQualifies(e record.ContextualEntity) bool {
	switch e.Kind {
	case record.KindAgent:
		return e.HasPrefLabel() && slices.ContainsFunc(agentDetails, e.Properties.Has)
	case record.KindConcept:
		return e.HasPrefLabel() && slices.ContainsFunc(conceptDetails, e.Properties.Has)
	case record.KindPlace:
		return e.HasPrefLabel() && e.Properties.HasLiteral("wgs84_pos:lat") && e.Properties.HasLiteral("wgs84_pos:long")
	case record.KindTimeSpan:
		return e.Properties.Has("edm:begin") && e.Properties.Has("edm:end")
	}
	return false
}

// QualifyingContextualClasses returns the distinct kinds of qualifying
// entities linked from provider proxies, sorted.
func QualifyingContextualClasses(w *record.Wrapper) []record.EntityKind {
	var kinds []record.EntityKind
	for _, p := range w.ProviderProxies() {
		for _, link := range p.Links() {
			ent, ok := w.Entity(link)
			if !ok || slices.Contains(kinds, ent.Kind) || !EntityQualifies(ent) {
				continue
			}
			kinds = append(kinds, ent.Kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ContextualTier grades the number of qualifying contextual classes.
func ContextualTier(classes int) tier.MetadataTier {
	switch {
	case classes >= 2:
		return tier.MetadataTC
	case classes == 1:
		return tier.MetadataTB
	}
	return tier.MetadataTA
}

// Contextual grades contextual classes.
type Contextual struct{}

func (Contextual) Classify(in Input) tier.MetadataTier {
	return ContextualTier(len(QualifyingContextualClasses(in.Record)))
}

// NewMetadataClassifier combines language, enabling elements and contextual
// classes.
func NewMetadataClassifier() (*Combined[tier.MetadataTier], error) {
	return NewCombined[tier.MetadataTier](Language{}, Enabling{}, Contextual{})
}
