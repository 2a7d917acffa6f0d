package models

// TierClassificationSummary is the externally visible classification result.
type TierClassificationSummary struct {
	EuropeanaID  string `json:"europeanaId" yaml:"europeana_id"`
	ProviderID   string `json:"providerId" yaml:"provider_id"`
	ContentTier  string `json:"contentTier" yaml:"content_tier"`
	MetadataTier string `json:"metadataTier" yaml:"metadata_tier"`
	PortalLink   string `json:"portalLink" yaml:"portal_link"`
	ProviderLink string `json:"providerLink" yaml:"provider_link"`
}

// ResourceVerdict is the content classification of one media resource.
type ResourceVerdict struct {
	URL              string       `json:"url" yaml:"url"`
	LinkTypes        []string     `json:"link_types" yaml:"link_types"`
	DeclaredMimeType string       `json:"declared_mime_type,omitempty" yaml:"declared_mime_type,omitempty"`
	Probe            *ProbeResult `json:"probe,omitempty" yaml:"probe,omitempty"`
	MimeMismatch     bool         `json:"mime_mismatch,omitempty" yaml:"mime_mismatch,omitempty"`
	License          string       `json:"license" yaml:"license"`
	Tier             string       `json:"tier" yaml:"tier"`
}

// ContentBreakdown explains a content tier.
type ContentBreakdown struct {
	EdmType        string            `json:"edm_type" yaml:"edm_type"`
	License        string            `json:"license" yaml:"license"`
	LicenseTier    string            `json:"license_tier" yaml:"license_tier"`
	MediaTier      string            `json:"media_tier" yaml:"media_tier"`
	HasLandingPage bool              `json:"has_landing_page" yaml:"has_landing_page"`
	HasThumbnails  bool              `json:"has_thumbnails" yaml:"has_thumbnails"`
	Embeddable     bool              `json:"embeddable" yaml:"embeddable"`
	Resources      []ResourceVerdict `json:"resources" yaml:"resources"`
}

// MetadataBreakdown explains a metadata tier.
type MetadataBreakdown struct {
	LanguageRatio     float64        `json:"language_ratio" yaml:"language_ratio"`
	LanguageDefined   bool           `json:"language_defined" yaml:"language_defined"`
	LanguageTier      string         `json:"language_tier" yaml:"language_tier"`
	EnablingElements  []string       `json:"enabling_elements" yaml:"enabling_elements"`
	EnablingGroups    []string       `json:"enabling_groups" yaml:"enabling_groups"`
	EnablingTier      string         `json:"enabling_tier" yaml:"enabling_tier"`
	ContextualClasses []string       `json:"contextual_classes" yaml:"contextual_classes"`
	ContextualTier    string         `json:"contextual_tier" yaml:"contextual_tier"`
	UntaggedLanguages map[string]int `json:"untagged_languages,omitempty" yaml:"untagged_languages,omitempty"`
}

// TierReport is a summary plus the reasoning behind it.
type TierReport struct {
	RunID    string                    `json:"run_id" yaml:"run_id"`
	Summary  TierClassificationSummary `json:"summary" yaml:"summary"`
	Content  ContentBreakdown          `json:"content" yaml:"content"`
	Metadata MetadataBreakdown         `json:"metadata" yaml:"metadata"`
}
