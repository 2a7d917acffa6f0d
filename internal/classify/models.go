package classify

import (
	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/storage"
)

type Job struct {
	File         storage.RecordFile
	ProviderID   string
	ProviderLink string
}

// ResultOutput is the structured output for a single record file.
type ResultOutput struct {
	File      string                            `json:"file" yaml:"file"`
	Status    string                            `json:"status" yaml:"status"`
	Summary   *models.TierClassificationSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Report    *models.TierReport                `json:"report,omitempty" yaml:"report,omitempty"`
	Error     string                            `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType string                            `json:"error_type,omitempty" yaml:"error_type,omitempty"`
}

// FinalOutput is the structured output for the entire run.
type FinalOutput struct {
	Status  string         `json:"status" yaml:"status"`
	Results []ResultOutput `json:"results" yaml:"results"`
	Stats   Stats          `json:"stats" yaml:"stats"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	TotalRecords     int            `json:"total_records" yaml:"total_records"`
	Successful       int            `json:"successful" yaml:"successful"`
	Failed           int            `json:"failed" yaml:"failed"`
	TotalTimeSeconds float64        `json:"total_time_seconds" yaml:"total_time_seconds"`
	ContentTiers     map[string]int `json:"content_tiers,omitempty" yaml:"content_tiers,omitempty"`
	MetadataTiers    map[string]int `json:"metadata_tiers,omitempty" yaml:"metadata_tiers,omitempty"`
	TopCombined      []string       `json:"top_combined,omitempty" yaml:"top_combined,omitempty"`
}
