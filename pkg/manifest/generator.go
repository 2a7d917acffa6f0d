package manifest

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/mapreduce"
	"github.com/dtnitsch/record-tiers/pkg/storage"
)

// RecordResult is the outcome of classifying one record file.
type RecordResult struct {
	File          string
	EuropeanaID   string
	Report        *models.TierReport
	Error         error
	ErrorType     string
	FileSizeBytes int64
}

// Build assembles the manifest of results read from source.
func Build(source string, results []RecordResult, now time.Time) BatchManifest {
	m := BatchManifest{
		GeneratedAt:  now.Format(time.RFC3339),
		Source:       source,
		TotalRecords: len(results),
	}

	var tallies []mapreduce.Tally
	for _, result := range results {
		summary := RecordSummary{
			File:        result.File,
			EuropeanaID: result.EuropeanaID,
			SizeBytes:   result.FileSizeBytes,
		}
		if result.Error != nil || result.Report == nil {
			m.Failed++
			summary.Status = "error"
			summary.ErrorType = result.ErrorType
			if result.Error != nil {
				summary.ErrorMessage = result.Error.Error()
			}
		} else {
			m.Classified++
			summary.Status = "success"
			summary.RunID = result.Report.RunID
			summary.ContentTier = result.Report.Summary.ContentTier
			summary.MetadataTier = result.Report.Summary.MetadataTier
			tallies = append(tallies, mapreduce.Map(result.Report.Summary))
		}
		m.Results = append(m.Results, summary)
	}

	total := mapreduce.Reduce(tallies)
	m.ContentTiers = total.Content
	m.MetadataTiers = total.Metadata
	m.TopCombined = mapreduce.Top(total.Combined, 10)
	return m
}

// Write saves m as YAML to path.
func Write(path string, m BatchManifest, s *storage.Storage) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("error marshalling manifest: %w", err)
	}
	if err := s.SaveFile(path, data); err != nil {
		return fmt.Errorf("error saving manifest: %w", err)
	}
	return nil
}

// DefaultPath is where a run's manifest goes when no path is given.
func DefaultPath(now time.Time) string {
	return fmt.Sprintf("results/manifest-%s.yaml", now.Format("2006-01-02-150405"))
}
