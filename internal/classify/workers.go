package classify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/manifest"
	"github.com/dtnitsch/record-tiers/pkg/storage"
	"github.com/dtnitsch/record-tiers/pkg/tiercalc"
)

const portalBase = "https://www.europeana.eu/item"

// PortalLink is the public portal page of a record.
func PortalLink(europeanaID string) string {
	return portalBase + europeanaID
}

// Calculator is the part of tiercalc.Calculator the workers need.
type Calculator interface {
	CalculateReport(ctx context.Context, in tiercalc.Input) (*models.TierReport, error)
}

func run(ctx context.Context, logger *slog.Logger, calc Calculator, s *storage.Storage, workerCount int, jobs []Job) []manifest.RecordResult {
	logger.Info("Starting classification phase", "record_count", len(jobs), "workers", workerCount)

	var wg sync.WaitGroup
	jobCh := make(chan Job, len(jobs))
	results := make(chan manifest.RecordResult, len(jobs))

	for w := 1; w <= workerCount; w++ {
		wg.Add(1)
		go worker(ctx, w, logger, calc, s, &wg, jobCh, results)
	}
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	wg.Wait()
	close(results)
	logger.Info("All classification workers finished")

	// results arrive in completion order; keep the input order instead
	byFile := make(map[string]manifest.RecordResult, len(jobs))
	for r := range results {
		byFile[r.File] = r
	}
	ordered := make([]manifest.RecordResult, 0, len(jobs))
	for _, job := range jobs {
		ordered = append(ordered, byFile[job.File.Path])
	}
	return ordered
}

func worker(ctx context.Context, id int, logger *slog.Logger, calc Calculator, s *storage.Storage, wg *sync.WaitGroup, jobs <-chan Job, results chan<- manifest.RecordResult) {
	defer wg.Done()
	for job := range jobs {
		results <- process(ctx, id, logger, calc, s, job)
	}
}

func process(ctx context.Context, id int, logger *slog.Logger, calc Calculator, s *storage.Storage, job Job) manifest.RecordResult {
	result := manifest.RecordResult{File: job.File.Path, EuropeanaID: job.File.EuropeanaID}
	logger.Info("Worker started job", "worker_id", id, "file", job.File.Path)

	if err := ctx.Err(); err != nil {
		result.Error = err
		result.ErrorType = "canceled"
		return result
	}

	payload, err := s.ReadFile(job.File.Path)
	if err != nil {
		logger.Error("Error reading record", "worker_id", id, "file", job.File.Path, "error", err)
		result.Error = err
		result.ErrorType = "read_error"
		return result
	}
	result.FileSizeBytes = int64(len(payload))

	report, err := calc.CalculateReport(ctx, tiercalc.Input{
		Payload:      payload,
		EuropeanaID:  job.File.EuropeanaID,
		ProviderID:   job.ProviderID,
		ProviderLink: job.ProviderLink,
		PortalLink:   PortalLink(job.File.EuropeanaID),
	})
	if err != nil {
		logger.Error("Error classifying record", "worker_id", id, "file", job.File.Path, "error", err)
		result.Error = err
		result.ErrorType = errorType(err)
		return result
	}

	result.Report = report
	logger.Info("Worker finished processing", "worker_id", id, "file", job.File.Path,
		"content_tier", report.Summary.ContentTier, "metadata_tier", report.Summary.MetadataTier)
	return result
}

func errorType(err error) string {
	var tcErr *tiercalc.TierCalculationError
	if errors.As(err, &tcErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "canceled"
		}
		return tcErr.Op + "_error"
	}
	return "calculation_error"
}
