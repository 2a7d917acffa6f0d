package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/record-tiers/internal/common"
	"github.com/dtnitsch/record-tiers/pkg/db"
	"github.com/dtnitsch/record-tiers/pkg/mapreduce"
)

func openDB(c *cli.Context) (*db.DB, error) {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return nil, err
	}
	database, err := db.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

func filterFromFlags(c *cli.Context) db.ResultFilter {
	return db.ResultFilter{
		EuropeanaID:  c.String("record"),
		ProviderID:   c.String("provider"),
		ContentTier:  c.String("content"),
		MetadataTier: c.String("metadata"),
	}
}

// ListAction prints stored results, newest first.
func ListAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	results, err := database.ListResults(c.Int("limit"), filterFromFlags(c))
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No results found")
		return nil
	}

	fmt.Printf("%-36s %-20s %-7s %-8s %-6s %s\n",
		"Run", "Created", "Content", "Metadata", "Type", "Record")
	fmt.Println(strings.Repeat("-", 120))
	for _, r := range results {
		fmt.Printf("%-36s %-20s %-7s %-8s %-6s %s\n",
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Summary.ContentTier,
			r.Summary.MetadataTier,
			r.EdmType,
			r.Summary.EuropeanaID,
		)
	}

	fmt.Printf("\nTotal: %d results\n", len(results))
	fmt.Printf("\nTip: Use 'record-tiers history show <run>' to see the full report\n")
	return nil
}

// ShowAction prints the stored report of one run, or of the latest run when
// no run id is given.
func ShowAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID := c.Args().First()
	if runID == "" {
		latest, err := database.ListResults(1, filterFromFlags(c))
		if err != nil {
			return fmt.Errorf("failed to get latest result: %w", err)
		}
		if len(latest) == 0 {
			return fmt.Errorf("no results found. Run 'record-tiers classify --save <records>' first")
		}
		runID = latest[0].RunID
	}

	report, err := database.GetReport(runID)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("no result stored for run %s", runID)
	}
	if err != nil {
		return err
	}

	var data []byte
	if strings.ToLower(c.String("format")) == "json" {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = yaml.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	fmt.Println(strings.TrimSuffix(string(data), "\n"))
	return nil
}

// ProbesAction prints every stored probe of a resource URL.
func ProbesAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("usage: record-tiers history probes <url>")
	}
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	u := c.Args().First()
	accesses, err := database.ProbeHistory(u, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(accesses) == 0 {
		fmt.Printf("No probes recorded for %s\n", u)
		return nil
	}

	fmt.Printf("Probes of %s\n", u)
	fmt.Println(strings.Repeat("=", 60))
	for i, a := range accesses {
		fmt.Printf("%2d. [%s] %s run=%s\n", i+1, a.Outcome, a.AccessedAt.Format("2006-01-02 15:04:05"), a.RunID)
		if a.Outcome == "ok" {
			fmt.Printf("    Status: %d | Mime: %s (code %d) | Size: %dx%d | %dms\n",
				a.StatusCode, a.SniffedMimeType, a.MimeCode, a.Width, a.Height, a.DurationMS)
		} else {
			fmt.Printf("    Error: [%s] status %d | %dms\n", a.ErrorKind, a.StatusCode, a.DurationMS)
		}
	}
	return nil
}

// StatsAction prints the tier distribution of stored results.
func StatsAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	content, metadata, err := database.TierDistribution(filterFromFlags(c))
	if err != nil {
		return err
	}
	total := 0
	for _, n := range content {
		total += n
	}
	if total == 0 {
		fmt.Println("No results found")
		return nil
	}

	fmt.Printf("Results: %d\n", total)
	fmt.Println("\nContent tiers:")
	fmt.Println(strings.Repeat("-", 30))
	mapreduce.PrintTop(content, -1)
	fmt.Println("\nMetadata tiers:")
	fmt.Println(strings.Repeat("-", 30))
	mapreduce.PrintTop(metadata, -1)
	return nil
}
