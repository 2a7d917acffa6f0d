// Package record is a read-only view over a deserialized metadata record.
package record

import (
	"slices"
	"strings"

	"github.com/dtnitsch/record-tiers/pkg/mimetable"
)

// PropertyValue is one occurrence of a descriptive property: either a literal
// (Value, optionally with Lang) or a reference to another resource.
type PropertyValue struct {
	Value    string `json:"value,omitempty"`
	Lang     string `json:"lang,omitempty"`
	Resource string `json:"resource,omitempty"`
}

// IsLiteral reports a non-blank literal value.
func (p PropertyValue) IsLiteral() bool { return strings.TrimSpace(p.Value) != "" }

// IsLink reports a non-blank resource reference.
func (p PropertyValue) IsLink() bool { return strings.TrimSpace(p.Resource) != "" }

// HasLang reports a non-blank language tag.
func (p PropertyValue) HasLang() bool { return strings.TrimSpace(p.Lang) != "" }

// Present reports a property that carries either a literal or a link.
func (p PropertyValue) Present() bool { return p.IsLiteral() || p.IsLink() }

// Properties are keyed by prefixed name, e.g. "dc:title" or "dcterms:spatial".
type Properties map[string][]PropertyValue

// Has reports whether any value of the property is present.
func (p Properties) Has(name string) bool {
	for _, v := range p[name] {
		if v.Present() {
			return true
		}
	}
	return false
}

// HasLiteral reports whether any value of the property is a non-blank literal.
func (p Properties) HasLiteral(name string) bool {
	for _, v := range p[name] {
		if v.IsLiteral() {
			return true
		}
	}
	return false
}

// Proxy describes the cultural heritage object from one point of view.
type Proxy struct {
	About      string     `json:"about"`
	Europeana  bool       `json:"europeana,omitempty"`
	Properties Properties `json:"properties"`
}

// Links returns every resource referenced by the proxy.
func (p Proxy) Links() []string {
	var out []string
	for _, values := range p.Properties {
		for _, v := range values {
			if v.IsLink() {
				out = append(out, strings.TrimSpace(v.Resource))
			}
		}
	}
	return out
}

// Aggregation ties the object to its digital representations.
type Aggregation struct {
	About     string   `json:"about"`
	IsShownBy string   `json:"is_shown_by,omitempty"`
	IsShownAt string   `json:"is_shown_at,omitempty"`
	Object    string   `json:"object,omitempty"`
	HasViews  []string `json:"has_views,omitempty"`
	Rights    string   `json:"rights,omitempty"`
}

// EuropeanaAggregation carries the aggregator generated preview.
type EuropeanaAggregation struct {
	About   string `json:"about"`
	Preview string `json:"preview,omitempty"`
}

// WebResource holds the technical metadata asserted for one resource URL.
type WebResource struct {
	About    string `json:"about"`
	MimeType string `json:"mime_type,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Duration int64  `json:"duration_ms,omitempty"`
	Rights   string `json:"rights,omitempty"`
}

// EntityKind is the class of a contextual entity.
type EntityKind string

const (
	KindAgent    EntityKind = "agent"
	KindPlace    EntityKind = "place"
	KindTimeSpan EntityKind = "timespan"
	KindConcept  EntityKind = "concept"
)

// ContextualEntity is an agent, place, time-span or concept described in the
// record and referenced from proxies.
type ContextualEntity struct {
	Kind       EntityKind      `json:"kind"`
	About      string          `json:"about"`
	PrefLabels []PropertyValue `json:"pref_labels,omitempty"`
	Properties Properties      `json:"properties,omitempty"`
}

// HasTaggedPrefLabel reports a pref label with both a value and a language.
func (e ContextualEntity) HasTaggedPrefLabel() bool {
	for _, l := range e.PrefLabels {
		if l.IsLiteral() && l.HasLang() {
			return true
		}
	}
	return false
}

// HasPrefLabel reports at least one non-blank pref label.
func (e ContextualEntity) HasPrefLabel() bool {
	for _, l := range e.PrefLabels {
		if l.IsLiteral() {
			return true
		}
	}
	return false
}

// EdmType is the object's declared media type.
type EdmType string

const (
	TypeText    EdmType = "TEXT"
	TypeImage   EdmType = "IMAGE"
	TypeSound   EdmType = "SOUND"
	TypeVideo   EdmType = "VIDEO"
	Type3D      EdmType = "3D"
	TypeUnknown EdmType = ""
)

// ParseEdmType normalizes a declared type; unrecognized values map to
// TypeUnknown.
func ParseEdmType(s string) EdmType {
	switch t := EdmType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeText, TypeImage, TypeSound, TypeVideo, Type3D:
		return t
	}
	return TypeUnknown
}

// Record is the deserialized form. Build a Wrapper from it.
type Record struct {
	ProvidedCHO          string                `json:"provided_cho"`
	Proxies              []Proxy               `json:"proxies"`
	Aggregations         []Aggregation         `json:"aggregations"`
	EuropeanaAggregation *EuropeanaAggregation `json:"europeana_aggregation,omitempty"`
	WebResources         []WebResource         `json:"web_resources"`
	Entities             []ContextualEntity    `json:"entities"`
}

// LinkType is the role a web resource plays for the object.
type LinkType string

const (
	LinkIsShownBy LinkType = "isShownBy"
	LinkHasView   LinkType = "hasView"
	LinkIsShownAt LinkType = "isShownAt"
	LinkObject    LinkType = "object"
)

// WebResourceEntry is a resource URL with its role(s) and the technical
// metadata the record asserts for it.
type WebResourceEntry struct {
	URL              string     `json:"url"`
	LinkTypes        []LinkType `json:"link_types"`
	DeclaredMimeType string     `json:"declared_mime_type,omitempty"`
	Width            int        `json:"width,omitempty"`
	Height           int        `json:"height,omitempty"`
	Duration         int64      `json:"duration_ms,omitempty"`
	Rights           string     `json:"rights,omitempty"`
}

// HasLinkType reports whether the entry plays role lt.
func (e WebResourceEntry) HasLinkType(lt LinkType) bool { return slices.Contains(e.LinkTypes, lt) }

// DeclaredFamily is the media family of the declared mime type.
func (e WebResourceEntry) DeclaredFamily() mimetable.Family { return mimetable.FamilyOf(e.DeclaredMimeType) }

// Wrapper is the read-only view classifiers consume. It is not mutated after
// construction.
type Wrapper struct {
	rec           Record
	resources     map[string]WebResource
	entities      map[string]ContextualEntity
	providerProxy []Proxy
}

// Wrap indexes rec for lookups.
func Wrap(rec Record) *Wrapper {
	w := &Wrapper{
		rec:       rec,
		resources: make(map[string]WebResource, len(rec.WebResources)),
		entities:  make(map[string]ContextualEntity, len(rec.Entities)),
	}
	for _, r := range rec.WebResources {
		if about := strings.TrimSpace(r.About); about != "" {
			w.resources[about] = r
		}
	}
	for _, e := range rec.Entities {
		if about := strings.TrimSpace(e.About); about != "" {
			w.entities[about] = e
		}
	}
	for _, p := range rec.Proxies {
		if !p.Europeana {
			w.providerProxy = append(w.providerProxy, p)
		}
	}
	return w
}

func (w *Wrapper) About() string { return w.rec.ProvidedCHO }

// ProviderProxies returns proxies not generated by the aggregator.
func (w *Wrapper) ProviderProxies() []Proxy { return w.providerProxy }

func (w *Wrapper) Aggregations() []Aggregation { return w.rec.Aggregations }

func (w *Wrapper) Entities() []ContextualEntity { return w.rec.Entities }

// Entity looks up a contextual entity by its about.
func (w *Wrapper) Entity(about string) (ContextualEntity, bool) {
	e, ok := w.entities[strings.TrimSpace(about)]
	return e, ok
}

// EntitiesOfKind returns entities of one class in record order.
func (w *Wrapper) EntitiesOfKind(kind EntityKind) []ContextualEntity {
	var out []ContextualEntity
	for _, e := range w.rec.Entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// EdmType returns the declared edm:type. Records that declare none, or more
// than one distinct type across their proxies, are TypeUnknown.
func (w *Wrapper) EdmType() EdmType {
	found := TypeUnknown
	for _, p := range w.rec.Proxies {
		for _, v := range p.Properties["edm:type"] {
			t := ParseEdmType(v.Value)
			if t == TypeUnknown {
				continue
			}
			if found != TypeUnknown && found != t {
				return TypeUnknown
			}
			found = t
		}
	}
	return found
}

// WebResourceEntries lists distinct resource URLs playing any of the given
// roles, in record order. With no roles every role is included.
func (w *Wrapper) WebResourceEntries(types ...LinkType) []WebResourceEntry {
	if len(types) == 0 {
		types = []LinkType{LinkIsShownBy, LinkHasView, LinkIsShownAt, LinkObject}
	}
	var order []string
	roles := map[string][]LinkType{}
	add := func(url string, lt LinkType) {
		url = strings.TrimSpace(url)
		if url == "" || !slices.Contains(types, lt) {
			return
		}
		if _, seen := roles[url]; !seen {
			order = append(order, url)
		}
		if !slices.Contains(roles[url], lt) {
			roles[url] = append(roles[url], lt)
		}
	}
	for _, a := range w.rec.Aggregations {
		add(a.IsShownBy, LinkIsShownBy)
		for _, v := range a.HasViews {
			add(v, LinkHasView)
		}
		add(a.IsShownAt, LinkIsShownAt)
		add(a.Object, LinkObject)
	}

	out := make([]WebResourceEntry, 0, len(order))
	for _, url := range order {
		entry := WebResourceEntry{URL: url, LinkTypes: roles[url]}
		if r, ok := w.resources[url]; ok {
			entry.DeclaredMimeType = mimetable.BaseType(r.MimeType)
			entry.Width = r.Width
			entry.Height = r.Height
			entry.Duration = r.Duration
			entry.Rights = strings.TrimSpace(r.Rights)
		}
		out = append(out, entry)
	}
	return out
}

// HasLandingPage reports an isShownAt resource with a declared mime type.
func (w *Wrapper) HasLandingPage() bool {
	for _, e := range w.WebResourceEntries(LinkIsShownAt) {
		if e.DeclaredMimeType != "" {
			return true
		}
	}
	return false
}

// HasThumbnails reports an aggregator preview that is itself a described web
// resource.
func (w *Wrapper) HasThumbnails() bool {
	ea := w.rec.EuropeanaAggregation
	if ea == nil || strings.TrimSpace(ea.Preview) == "" {
		return false
	}
	r, ok := w.resources[strings.TrimSpace(ea.Preview)]
	return ok && strings.TrimSpace(r.MimeType) != ""
}

// Rights returns the distinct rights statements of all aggregations and
// media resources.
func (w *Wrapper) Rights() []string {
	var out []string
	push := func(r string) {
		if r = strings.TrimSpace(r); r != "" && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	for _, a := range w.rec.Aggregations {
		push(a.Rights)
	}
	for _, e := range w.WebResourceEntries(LinkIsShownBy, LinkHasView) {
		push(e.Rights)
	}
	return out
}

// LicenseType is the most permissive license among the record's rights.
func (w *Wrapper) LicenseType() LicenseType {
	best := LicenseNone
	for _, r := range w.Rights() {
		best = max(best, ClassifyLicense(r))
	}
	return best
}

// AggregationLicenseType is the most permissive license among the
// aggregations' rights.
func (w *Wrapper) AggregationLicenseType() LicenseType {
	best := LicenseNone
	for _, a := range w.rec.Aggregations {
		best = max(best, ClassifyLicense(a.Rights))
	}
	return best
}

// EntryLicenseType is the license that holds for one resource: the more
// permissive of the aggregations' and the resource's own rights.
func (w *Wrapper) EntryLicenseType(e WebResourceEntry) LicenseType {
	return max(w.AggregationLicenseType(), ClassifyLicense(e.Rights))
}
