package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/record-tiers/internal/common"
	"github.com/dtnitsch/record-tiers/pkg/caching"
	"github.com/dtnitsch/record-tiers/pkg/db"
	"github.com/dtnitsch/record-tiers/pkg/fetcher"
	"github.com/dtnitsch/record-tiers/pkg/manifest"
	"github.com/dtnitsch/record-tiers/pkg/storage"
	"github.com/dtnitsch/record-tiers/pkg/tiercalc"
)

func ClassifyAction(c *cli.Context) error {
	logger := common.NewLogger(c)
	startTime := time.Now()

	if c.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: No record source provided")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  record-tiers classify record.xml                  # One record`)
		fmt.Fprintln(os.Stderr, `  record-tiers classify --save --manifest records/  # Every .xml/.rdf under records/`)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Need help? Run: record-tiers classify --help")
		os.Exit(1)
	}
	source := c.Args().First()

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}

	s := &storage.Storage{}
	files, err := s.ListRecords(source)
	if err != nil {
		logger.Error("failed to list records", "source", source, "error", err)
		os.Exit(2)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no record files (%s) found under %s\n", strings.Join(storage.RecordExtensions, ", "), source)
		os.Exit(1)
	}
	if c.IsSet("europeana-id") {
		if len(files) != 1 {
			fmt.Fprintln(os.Stderr, "Error: --europeana-id only applies to a single record file")
			os.Exit(1)
		}
		files[0].EuropeanaID = c.String("europeana-id")
	}

	reg := prometheus.NewRegistry()
	f := fetcher.NewFetcher(cfg.Fetch, fetcher.WithLogger(logger), fetcher.WithRegisterer(reg))

	opts := []tiercalc.Option{tiercalc.WithLogger(logger)}
	if cfg.Cache.Enabled {
		cache, err := caching.NewCache(cfg.Cache.Dir, cfg.Cache.TTL)
		if err != nil {
			logger.Error("failed to initialize probe cache", "error", err)
			os.Exit(2)
		}
		opts = append(opts, tiercalc.WithCache(cache))
	}
	if c.Bool("save") {
		database, err := db.Open(cfg.Store.Path)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(2)
		}
		defer database.Close()
		logger.Info("Saving results", "db", database.Path())
		opts = append(opts, tiercalc.WithStore(database))
	}

	calc, err := tiercalc.New(f, cfg.Classify, opts...)
	if err != nil {
		logger.Error("failed to build calculator", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := make([]Job, len(files))
	for i, file := range files {
		jobs[i] = Job{File: file, ProviderID: c.String("provider-id"), ProviderLink: c.String("provider-link")}
	}
	workers := min(cfg.Classify.WorkerCount, len(jobs))
	results := run(ctx, logger, calc, s, workers, jobs)

	now := time.Now()
	m := manifest.Build(source, results, now)
	if c.Bool("manifest") {
		path := c.String("manifest-path")
		if path == "" {
			path = manifest.DefaultPath(now)
		}
		if err := manifest.Write(path, m, s); err != nil {
			logger.Warn("Failed to write manifest", "path", path, "error", err)
		} else {
			logger.Info("Manifest written", "path", path)
		}
	}
	if path := c.String("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			logger.Warn("Failed to write metrics", "path", path, "error", err)
		}
	}

	output := buildOutput(results, m, c.Bool("report"), time.Since(startTime))
	data, err := marshal(c.String("format"), output)
	if err != nil {
		logger.Error("failed to marshal final output", "error", err)
		return cli.Exit("", 2)
	}
	fmt.Println(string(data))

	if output.Stats.Failed == output.Stats.TotalRecords {
		return cli.Exit("", 2)
	}
	if output.Stats.Failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func buildOutput(results []manifest.RecordResult, m manifest.BatchManifest, withReport bool, elapsed time.Duration) FinalOutput {
	out := FinalOutput{
		Results: make([]ResultOutput, 0, len(results)),
		Stats: Stats{
			TotalRecords:     m.TotalRecords,
			Successful:       m.Classified,
			Failed:           m.Failed,
			TotalTimeSeconds: elapsed.Seconds(),
			ContentTiers:     m.ContentTiers,
			MetadataTiers:    m.MetadataTiers,
			TopCombined:      m.TopCombined,
		},
	}
	for _, r := range results {
		ro := ResultOutput{File: r.File}
		if r.Error != nil || r.Report == nil {
			ro.Status = "failed"
			ro.ErrorType = r.ErrorType
			if r.Error != nil {
				ro.Error = r.Error.Error()
			}
		} else {
			ro.Status = "success"
			summary := r.Report.Summary
			ro.Summary = &summary
			if withReport {
				ro.Report = r.Report
			}
		}
		out.Results = append(out.Results, ro)
	}

	switch {
	case m.Failed == 0:
		out.Status = "success"
	case m.Classified == 0:
		out.Status = "failure"
	default:
		out.Status = "partial_failure"
	}
	return out
}

func marshal(format string, v any) ([]byte, error) {
	if strings.ToLower(format) == "yaml" {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
