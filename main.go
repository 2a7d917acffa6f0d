package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/record-tiers/internal/classify"
	"github.com/dtnitsch/record-tiers/internal/history"
	"github.com/dtnitsch/record-tiers/internal/probe"
)

var version = "dev"

func main() {
	configFlags := []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"},
		&cli.BoolFlag{Name: "verbose", Usage: "Log probe details"},
	}
	fetchFlags := []cli.Flag{
		&cli.DurationFlag{Name: "connect-timeout", Usage: "Connection timeout per probe"},
		&cli.DurationFlag{Name: "read-timeout", Usage: "Idle timeout between body reads"},
		&cli.DurationFlag{Name: "total-timeout", Usage: "Overall timeout per probe"},
		&cli.Float64Flag{Name: "rate", Usage: "Requests per second per host (0 disables)"},
		&cli.IntFlag{Name: "probes", Usage: "Concurrent probes per record"},
	}
	filterFlags := []cli.Flag{
		&cli.StringFlag{Name: "record", Usage: "Only this europeana id"},
		&cli.StringFlag{Name: "provider", Usage: "Only this provider id"},
		&cli.StringFlag{Name: "content", Usage: "Only this content tier (0-4)"},
		&cli.StringFlag{Name: "metadata", Usage: "Only this metadata tier (0, A, B, C)"},
	}
	dbFlag := &cli.StringFlag{Name: "db", Usage: "SQLite result database"}

	app := &cli.App{
		Name:    "record-tiers",
		Usage:   "Classify records into content and metadata quality tiers",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "classify",
				Usage:     "Classify a record file or every record under a directory",
				ArgsUsage: "<file|dir>",
				Action:    classify.ClassifyAction,
				Flags: join(configFlags, fetchFlags, []cli.Flag{
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Records classified in parallel"},
					&cli.BoolFlag{Name: "no-early-cancel", Usage: "Probe every resource even once the best tier is reached"},
					&cli.BoolFlag{Name: "guess-languages", Usage: "Guess the language of untagged literals"},
					&cli.BoolFlag{Name: "cache", Usage: "Reuse probe results between runs"},
					&cli.StringFlag{Name: "cache-dir", Usage: "Probe cache directory"},
					&cli.DurationFlag{Name: "cache-ttl", Usage: "Probe cache lifetime (0 never expires)"},
					&cli.BoolFlag{Name: "save", Usage: "Store results and probes in the database"},
					dbFlag,
					&cli.BoolFlag{Name: "report", Usage: "Include the per-resource and per-dimension breakdown"},
					&cli.BoolFlag{Name: "manifest", Usage: "Write a YAML batch manifest"},
					&cli.StringFlag{Name: "manifest-path", Usage: "Manifest location (default results/manifest-<time>.yaml)"},
					&cli.StringFlag{Name: "metrics-file", Usage: "Write probe metrics in Prometheus text format"},
					&cli.StringFlag{Name: "format", Value: "json", Usage: "Output format: json or yaml"},
					&cli.StringFlag{Name: "europeana-id", Usage: "Europeana id of a single record file"},
					&cli.StringFlag{Name: "provider-id", Usage: "Provider id reported in summaries"},
					&cli.StringFlag{Name: "provider-link", Usage: "Provider link reported in summaries"},
				}),
			},
			{
				Name:      "probe",
				Usage:     "Probe resource URLs and report the detected media",
				ArgsUsage: "<url>...",
				Action:    probe.ProbeAction,
				Flags: join(configFlags, fetchFlags, []cli.Flag{
					&cli.StringFlag{Name: "expect", Usage: "Expected family: image, audio, video, text or 3d"},
					&cli.StringFlag{Name: "declared", Usage: "Declared mime type"},
					&cli.BoolFlag{Name: "mime-only", Usage: "Print only the detected mime type per URL"},
					&cli.StringFlag{Name: "format", Value: "json", Usage: "Output format: json or yaml"},
				}),
			},
			{
				Name:  "history",
				Usage: "Inspect stored results",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List stored results",
						Action: history.ListAction,
						Flags: join(configFlags, filterFlags, []cli.Flag{
							dbFlag,
							&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum rows (0 for all)"},
						}),
					},
					{
						Name:      "show",
						Usage:     "Show the report of a run (latest by default)",
						ArgsUsage: "[run-id]",
						Action:    history.ShowAction,
						Flags: join(configFlags, filterFlags, []cli.Flag{
							dbFlag,
							&cli.StringFlag{Name: "format", Value: "yaml", Usage: "Output format: yaml or json"},
						}),
					},
					{
						Name:      "probes",
						Usage:     "Show the stored probes of a resource URL",
						ArgsUsage: "<url>",
						Action:    history.ProbesAction,
						Flags: join(configFlags, []cli.Flag{
							dbFlag,
							&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum rows (0 for all)"},
						}),
					},
					{
						Name:   "stats",
						Usage:  "Show the tier distribution of stored results",
						Action: history.StatsAction,
						Flags:  join(configFlags, filterFlags, []cli.Flag{dbFlag}),
					},
				},
			},
			{
				Name:   "mimetypes",
				Usage:  "Print the registered mime type table",
				Action: probe.MimeTypesAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "family", Usage: "Only this family"},
					&cli.StringFlag{Name: "format", Value: "table", Usage: "Output format: table, json or yaml"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func join(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
