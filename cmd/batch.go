package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/batch"
	"github.com/sells-group/georef-cli/internal/fetcher"
)

var (
	batchInput       string
	batchOutput      string
	batchFormat      string
	batchConcurrency int
	batchLimit       int
	batchLookup      bool
	batchPredict     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Georeference every row of a CSV, TSV, or XLSX file",
	Long: `Reads a table with a locality column and optional kind, feature,
offset_value, offset_unit, heading, lat, lng, extent, precision, datum, source,
and id columns. Rows are georeferenced concurrently; failures are reported per
row and do not stop the run.

Examples:
  georef batch --input localities.csv --output results.csv
  georef batch --input sheet.xlsx --lookup --predict --format json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := validateModes(batchLookup, batchPredict, "batch"); err != nil {
			return err
		}
		env, err := initEnv(ctx, cfg, envOptions{Geocoder: batchLookup, Predictor: batchPredict})
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.Concurrency
		}

		out := cmd.OutOrStdout()
		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrap(err, "batch: create output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		format := batchFormat
		if format == "" {
			format = formatFromPath(batchOutput)
		}

		sum, err := runBatch(ctx, out, env.Resolver(cfg), batchInput, format, batch.Options{
			Concurrency: concurrency,
			Limit:       batchLimit,
		})
		if err != nil {
			return err
		}
		if env.Cache != nil {
			st := env.Cache.Stats()
			zap.L().Info("geocode cache",
				zap.Int64("hits", st.Hits),
				zap.Int64("misses", st.Misses),
				zap.Float64("hit_rate", st.HitRate),
			)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d rows: %d ok, %d failed (%s)\n",
			sum.Total, sum.OK, sum.Failed, sum.Duration.Round(time.Millisecond))
		return nil
	},
}

func runBatch(ctx context.Context, w io.Writer, r batch.Resolver, input, format string, opts batch.Options) (batch.Summary, error) {
	table, err := fetcher.ReadTable(input)
	if err != nil {
		return batch.Summary{}, err
	}
	records, err := batch.Records(table)
	if err != nil {
		return batch.Summary{}, err
	}

	results, sum, err := batch.Run(ctx, r, records, opts)
	if err != nil {
		return sum, err
	}

	switch format {
	case "json":
		err = batch.WriteJSON(w, results)
	case "csv":
		err = batch.WriteCSV(w, results)
	default:
		err = eris.Errorf("batch: unknown format %q", format)
	}
	return sum, err
}

func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "csv"
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchInput, "input", "", "input table (.csv, .tsv, .xlsx)")
	f.StringVar(&batchOutput, "output", "", "output file (default stdout)")
	f.StringVar(&batchFormat, "format", "", "output format: csv or json (default from --output extension)")
	f.IntVar(&batchConcurrency, "concurrency", 0, "rows in flight (default from config)")
	f.IntVar(&batchLimit, "limit", 0, "process at most this many rows")
	f.BoolVar(&batchLookup, "lookup", false, "geocode features of rows without lat/lng")
	f.BoolVar(&batchPredict, "predict", false, "predict the kind of rows without one")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
