// Package manifest writes the summary of a batch classification run.
package manifest

// BatchManifest is a lightweight overview of one batch: what was
// classified, how the tiers are distributed and which records failed.
type BatchManifest struct {
	GeneratedAt   string          `yaml:"generated_at"`
	Source        string          `yaml:"source"`
	TotalRecords  int             `yaml:"total_records"`
	Classified    int             `yaml:"classified"`
	Failed        int             `yaml:"failed"`
	ContentTiers  map[string]int  `yaml:"content_tiers"`
	MetadataTiers map[string]int  `yaml:"metadata_tiers"`
	TopCombined   []string        `yaml:"top_combined"`
	Results       []RecordSummary `yaml:"results"`
}

// RecordSummary is the manifest line of a single record file.
type RecordSummary struct {
	File         string `yaml:"file"`
	EuropeanaID  string `yaml:"europeana_id"`
	RunID        string `yaml:"run_id,omitempty"`
	Status       string `yaml:"status"` // "success" or "error"
	ContentTier  string `yaml:"content_tier,omitempty"`
	MetadataTier string `yaml:"metadata_tier,omitempty"`
	ErrorType    string `yaml:"error_type,omitempty"`
	ErrorMessage string `yaml:"error_message,omitempty"`
	SizeBytes    int64  `yaml:"size_bytes,omitempty"`
}
