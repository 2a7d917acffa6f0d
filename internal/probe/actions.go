package probe

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/record-tiers/internal/common"
	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/fetcher"
	"github.com/dtnitsch/record-tiers/pkg/mimetable"
)

// ProbeAction fetches each URL argument the way a classification would and
// prints what the bytes turned out to be.
func ProbeAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	if c.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: No URLs provided")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  record-tiers probe https://example.org/full.jpg`)
		fmt.Fprintln(os.Stderr, `  record-tiers probe --expect 3d --declared model/stl https://example.org/ship.stl`)
		os.Exit(1)
	}

	sanitized, invalid := common.SanitizeAndValidateURLs(c.Args().Slice())
	if len(invalid) > 0 {
		fmt.Fprintf(os.Stderr, "Error: %d URL(s) are malformed (even after cleanup):\n", len(invalid))
		for _, bad := range invalid {
			fmt.Fprintf(os.Stderr, "  - %s\n", bad)
		}
		os.Exit(1)
	}

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}
	expected, err := parseFamily(c.String("expect"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	f := fetcher.NewFetcher(cfg.Fetch, fetcher.WithLogger(logger))
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := make([]*models.ProbeResult, len(sanitized))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Classify.MaxConcurrentProbes)
	for i, u := range sanitized {
		g.Go(func() error {
			res, err := f.Probe(gctx, fetcher.ProbeRequest{
				URL:              u,
				Expected:         expected,
				DeclaredMimeType: c.String("declared"),
			})
			if res == nil {
				res = &models.ProbeResult{URL: u, Outcome: models.ProbeCanceled, ErrorMessage: err.Error()}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	var data []byte
	if c.Bool("mime-only") {
		var sb strings.Builder
		for _, r := range results {
			mime := r.SniffedMimeType
			if !r.OK() {
				mime = "-"
			}
			fmt.Fprintf(&sb, "%s\t%s\n", mime, r.URL)
		}
		data = []byte(strings.TrimSuffix(sb.String(), "\n"))
	} else if strings.ToLower(c.String("format")) == "yaml" {
		data, err = yaml.Marshal(results)
	} else {
		data, err = json.MarshalIndent(results, "", "  ")
	}
	if err != nil {
		logger.Error("failed to marshal probe results", "error", err)
		return cli.Exit("", 2)
	}
	fmt.Println(string(data))

	for _, r := range results {
		if !r.OK() {
			return cli.Exit("", 1)
		}
	}
	return nil
}

func parseFamily(s string) (mimetable.Family, error) {
	switch fam := mimetable.Family(strings.ToLower(strings.TrimSpace(s))); fam {
	case "":
		return mimetable.FamilyOther, nil
	case mimetable.FamilyImage, mimetable.FamilyAudio, mimetable.FamilyVideo, mimetable.FamilyText, mimetable.FamilyModel:
		return fam, nil
	}
	return "", fmt.Errorf("unknown media family %q (want image, audio, video, text or 3d)", s)
}

// MimeTypesAction prints the registered mime table.
func MimeTypesAction(c *cli.Context) error {
	family := strings.ToLower(c.String("family"))

	var entries []mimetable.Entry
	for _, e := range mimetable.Entries() {
		if family == "" || string(e.Family) == family {
			entries = append(entries, e)
		}
	}

	switch strings.ToLower(c.String("format")) {
	case "json":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal mime table: %w", err)
		}
		fmt.Println(string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to marshal mime table: %w", err)
		}
		fmt.Print(string(data))
		return nil
	}

	fmt.Printf("%-6s %-8s %s\n", "Code", "Family", "Mime Type")
	fmt.Println(strings.Repeat("-", 60))
	for _, e := range entries {
		fmt.Printf("%-6d %-8s %s\n", e.Code, e.Family, e.MimeType)
	}
	fmt.Printf("\nTotal: %d mime types\n", len(entries))
	return nil
}
