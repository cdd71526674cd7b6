package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/internal/version"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/writer"
	"github.com/urfave/cli/v3"
)

func clientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"p"},
			Usage:   fmt.Sprintf("Data source to use (e.g., %s, %s, %s)", provider.SourceAlphaVantage, provider.SourcePolygon, provider.SourceSynthetic),
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   fmt.Sprintf("Output format (%s or %s)", writer.FormatCSV, writer.FormatParquet),
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Path to the data output directory",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Credentials passed to the data source",
			Sources: cli.EnvVars("ARGO_API_KEY"),
		},
		&cli.BoolFlag{
			Name:  "fail-fast",
			Usage: "Return fetch errors instead of falling back to synthetic data",
		},
		&cli.BoolFlag{
			Name:  "live",
			Usage: "Use the Polygon and Binance integrations instead of placeholders",
		},
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "marketdata",
		Usage:   "Download, export and inspect OHLC market data",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config `FILE`",
				Sources: cli.EnvVars("ARGO_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "fetch",
				Usage: "Download one instrument at one resolution",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "instrument",
						Aliases: []string{"i", "ticker"},
						Usage:   "Instrument symbol",
					},
					&cli.StringFlag{
						Name:    "resolution",
						Aliases: []string{"r"},
						Usage:   fmt.Sprintf("Resolution (%v)", types.Resolutions()),
						Value:   string(types.ResolutionOneDay),
					},
					&cli.StringFlag{
						Name:    "start",
						Aliases: []string{"s"},
						Usage:   "Start date in `YYYY-MM-DD` format",
					},
					&cli.StringFlag{
						Name:    "end",
						Aliases: []string{"e"},
						Usage:   "End date in `YYYY-MM-DD` format. Defaults to the start date.",
					},
					&cli.StringFlag{
						Name:  "json",
						Usage: "Download config as JSON (see `providers --schema`), replacing the other fetch flags",
					},
				}, clientFlags()...),
				Action: fetchAction,
			},
			{
				Name:  "batch",
				Usage: "Download every instrument × resolution pair of the configured matrix",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of pairs processed at once",
					},
					&cli.BoolFlag{
						Name:  "no-progress",
						Usage: "Disable the progress bar",
					},
				}, clientFlags()...),
				Action: batchAction,
			},
			{
				Name:  "schedule",
				Usage: "Run the batch on a cron schedule until interrupted",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "cron",
						Usage: "Cron expression with a seconds field",
					},
					&cli.BoolFlag{
						Name:  "run-now",
						Usage: "Run one batch immediately before waiting for the schedule",
					},
				}, clientFlags()...),
				Action: scheduleAction,
			},
			{
				Name:      "inspect",
				Usage:     "Print row count and time span of exported files",
				ArgsUsage: "[FILE...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "manifest",
						Usage: "Also inspect every file listed in the batch manifest of `DIR`",
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "Only count rows at or after `YYYY-MM-DD`",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Only count rows at or before `YYYY-MM-DD`",
					},
				},
				Action: inspectAction,
			},
			{
				Name:  "providers",
				Usage: "List data sources",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "schema",
						Usage: "Print the JSON schema of the download config instead",
					},
				},
				Action: providersAction,
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
