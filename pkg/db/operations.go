package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dtnitsch/record-tiers/models"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// InsertResource parses and inserts a resource URL, returning the resource_id.
// If the URL already exists, returns the existing resource_id.
func (db *DB) InsertResource(rawURL string) (int64, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}

	var existingID int64
	err = db.QueryRow("SELECT resource_id FROM resources WHERE url = ?", rawURL).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing resource: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO resources (url, scheme, domain, path)
		VALUES (?, ?, ?, ?)
	`, rawURL, parsed.Scheme, parsed.Host, parsed.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to insert resource: %w", err)
	}

	resourceID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get resource ID: %w", err)
	}
	return resourceID, nil
}

// RecordProbe records one probe of the run runID in probe_accesses.
func (db *DB) RecordProbe(runID string, probe *models.ProbeResult) error {
	if probe == nil {
		return nil
	}
	resourceID, err := db.InsertResource(probe.URL)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO probe_accesses (resource_id, run_id, outcome, status_code, error_kind,
		                            sniffed_mime_type, mime_code, width, height, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, resourceID, runID, string(probe.Outcome), probe.StatusCode, NewNullString(probe.ErrorKind),
		NewNullString(probe.SniffedMimeType), probe.MimeCode, probe.Width, probe.Height, probe.DurationMS)
	if err != nil {
		return fmt.Errorf("failed to record probe: %w", err)
	}
	return nil
}

// SaveReport stores the summary columns and the full report of one run.
func (db *DB) SaveReport(report *models.TierReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	s := report.Summary
	_, err = db.Exec(`
		INSERT INTO tier_results (run_id, europeana_id, provider_id, content_tier, metadata_tier,
		                          edm_type, license, portal_link, provider_link, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.RunID, s.EuropeanaID, NewNullString(s.ProviderID), s.ContentTier, s.MetadataTier,
		NewNullString(report.Content.EdmType), NewNullString(report.Content.License),
		NewNullString(s.PortalLink), NewNullString(s.ProviderLink), string(data))
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// StoredResult is one row of tier_results without the report body.
type StoredResult struct {
	ResultID  int64
	RunID     string
	CreatedAt time.Time
	EdmType   string
	License   string
	Summary   models.TierClassificationSummary
}

// ResultFilter narrows ListResults. Empty fields match everything.
type ResultFilter struct {
	EuropeanaID  string
	ProviderID   string
	ContentTier  string
	MetadataTier string
}

func (f ResultFilter) where() (string, []any) {
	var clauses []string
	var args []any
	add := func(col, v string) {
		if v != "" {
			clauses = append(clauses, col+" = ?")
			args = append(args, v)
		}
	}
	add("europeana_id", f.EuropeanaID)
	add("provider_id", f.ProviderID)
	add("content_tier", f.ContentTier)
	add("metadata_tier", f.MetadataTier)
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

const resultColumns = `result_id, run_id, created_at, europeana_id, provider_id,
	content_tier, metadata_tier, edm_type, license, portal_link, provider_link`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (StoredResult, error) {
	var r StoredResult
	var providerID, edmType, license, portal, provider sql.NullString
	err := row.Scan(&r.ResultID, &r.RunID, &r.CreatedAt, &r.Summary.EuropeanaID, &providerID,
		&r.Summary.ContentTier, &r.Summary.MetadataTier, &edmType, &license, &portal, &provider)
	if err != nil {
		return StoredResult{}, err
	}
	r.Summary.ProviderID = providerID.String
	r.EdmType = edmType.String
	r.License = license.String
	r.Summary.PortalLink = portal.String
	r.Summary.ProviderLink = provider.String
	return r, nil
}

// ListResults returns the newest results first.
func (db *DB) ListResults(limit int, filter ResultFilter) ([]StoredResult, error) {
	where, args := filter.where()
	query := "SELECT " + resultColumns + " FROM tier_results" + where +
		" ORDER BY created_at DESC, result_id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []StoredResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetResult returns the result of runID.
func (db *DB) GetResult(runID string) (*StoredResult, error) {
	row := db.QueryRow("SELECT "+resultColumns+" FROM tier_results WHERE run_id = ?", runID)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &r, nil
}

// GetReport decodes the full report stored for runID.
func (db *DB) GetReport(runID string) (*models.TierReport, error) {
	var data string
	err := db.QueryRow("SELECT report_json FROM tier_results WHERE run_id = ?", runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	var report models.TierReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

// TierDistribution counts stored results per content and metadata label.
func (db *DB) TierDistribution(filter ResultFilter) (content, metadata map[string]int, err error) {
	content, err = db.countBy("content_tier", filter)
	if err != nil {
		return nil, nil, err
	}
	metadata, err = db.countBy("metadata_tier", filter)
	if err != nil {
		return nil, nil, err
	}
	return content, metadata, nil
}

func (db *DB) countBy(column string, filter ResultFilter) (map[string]int, error) {
	where, args := filter.where()
	rows, err := db.Query("SELECT "+column+", COUNT(*) FROM tier_results"+where+" GROUP BY "+column, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", column, err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[label] = n
	}
	return counts, rows.Err()
}

// ProbeAccess is one stored probe.
type ProbeAccess struct {
	AccessID        int64
	RunID           string
	AccessedAt      time.Time
	Outcome         string
	StatusCode      int
	ErrorKind       string
	SniffedMimeType string
	MimeCode        int
	Width           int
	Height          int
	DurationMS      int64
}

// ProbeHistory returns the newest probes of rawURL first.
func (db *DB) ProbeHistory(rawURL string, limit int) ([]ProbeAccess, error) {
	query := `
		SELECT a.access_id, a.run_id, a.accessed_at, a.outcome, a.status_code, a.error_kind,
		       a.sniffed_mime_type, a.mime_code, a.width, a.height, a.duration_ms
		FROM probe_accesses a
		JOIN resources r ON r.resource_id = a.resource_id
		WHERE r.url = ?
		ORDER BY a.accessed_at DESC, a.access_id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to query probe history: %w", err)
	}
	defer rows.Close()

	var accesses []ProbeAccess
	for rows.Next() {
		var a ProbeAccess
		var errorKind, mime sql.NullString
		if err := rows.Scan(&a.AccessID, &a.RunID, &a.AccessedAt, &a.Outcome, &a.StatusCode, &errorKind,
			&mime, &a.MimeCode, &a.Width, &a.Height, &a.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan probe access: %w", err)
		}
		a.ErrorKind = errorKind.String
		a.SniffedMimeType = mime.String
		accesses = append(accesses, a)
	}
	return accesses, rows.Err()
}

// RunProbes returns the probes recorded by runID keyed by resource URL.
func (db *DB) RunProbes(runID string) (map[string]ProbeAccess, error) {
	rows, err := db.Query(`
		SELECT r.url, a.access_id, a.run_id, a.accessed_at, a.outcome, a.status_code, a.error_kind,
		       a.sniffed_mime_type, a.mime_code, a.width, a.height, a.duration_ms
		FROM probe_accesses a
		JOIN resources r ON r.resource_id = a.resource_id
		WHERE a.run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run probes: %w", err)
	}
	defer rows.Close()

	probes := map[string]ProbeAccess{}
	for rows.Next() {
		var u string
		var a ProbeAccess
		var errorKind, mime sql.NullString
		if err := rows.Scan(&u, &a.AccessID, &a.RunID, &a.AccessedAt, &a.Outcome, &a.StatusCode, &errorKind,
			&mime, &a.MimeCode, &a.Width, &a.Height, &a.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan probe access: %w", err)
		}
		a.ErrorKind = errorKind.String
		a.SniffedMimeType = mime.String
		probes[u] = a
	}
	return probes, rows.Err()
}

// NewNullString maps "" to NULL.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
