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

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/db"
	"github.com/sells-group/georef-cli/internal/fetcher"
	"github.com/sells-group/georef-cli/pkg/geocode"
)

var gazetteerCmd = &cobra.Command{
	Use:   "gazetteer",
	Short: "Manage the local feature gazetteer",
}

var (
	gazLoadShapefile string
	gazLoadURL       string
	gazLoadTable     string
	gazLoadNameField string
	gazLoadDryRun    bool
)

var gazetteerLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load named features from a shapefile into PostGIS",
	Long: `Reads a point, line, or polygon shapefile (local, or a zipped download) and
upserts each named feature into the gazetteer table, creating the table and its
spatial index if needed. Feature names are matched case-insensitively.

Examples:
  georef gazetteer load --shapefile places.shp --name-field NAME
  georef gazetteer load --url https://example.org/places.zip --dry-run`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if (gazLoadShapefile == "") == (gazLoadURL == "") {
			return eris.New("gazetteer: exactly one of --shapefile or --url is required")
		}
		table := gazLoadTable
		if table == "" {
			table = cfg.Gazetteer.Table
		}
		nameField := gazLoadNameField
		if nameField == "" {
			nameField = cfg.Gazetteer.NameField
		}

		path := gazLoadShapefile
		if gazLoadURL != "" {
			dir, err := os.MkdirTemp("", "georef-gazetteer-*")
			if err != nil {
				return eris.Wrap(err, "gazetteer: temp dir")
			}
			defer os.RemoveAll(dir) //nolint:errcheck

			path, err = fetchShapefile(ctx, gazLoadURL, dir)
			if err != nil {
				return err
			}
		}

		features, err := geocode.ReadShapefile(path, nameField)
		if err != nil {
			return err
		}
		zap.L().Info("gazetteer: read features", zap.String("path", path), zap.Int("features", len(features)))

		if gazLoadDryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%d features read from %s (dry run)\n", len(features), path)
			return nil
		}

		if cfg.Gazetteer.DatabaseURL == "" {
			return eris.New("gazetteer: gazetteer.database_url is required")
		}
		pool, err := db.Connect(ctx, cfg.Gazetteer.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := loadFeatures(ctx, pool, table, features)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d features loaded into %s\n", n, table)
		return nil
	},
}

// fetchShapefile downloads a zipped shapefile into dir and returns the path
// of the .shp inside it.
func fetchShapefile(ctx context.Context, url, dir string) (string, error) {
	zipPath := filepath.Join(dir, "download.zip")
	if _, err := fetcher.NewDownloader(fetcher.HTTPOptions{}).DownloadToFile(ctx, url, zipPath); err != nil {
		return "", err
	}
	files, err := fetcher.ExtractZIP(zipPath, filepath.Join(dir, "extract"))
	if err != nil {
		return "", err
	}
	return fetcher.FindShapefile(files)
}

func loadFeatures(ctx context.Context, pool db.Pool, table string, features []geocode.Feature) (int64, error) {
	if err := geocode.EnsureGazetteer(ctx, pool, table); err != nil {
		return 0, err
	}
	return geocode.LoadGazetteer(ctx, pool, table, features)
}

var gazetteerLookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Look up a feature with the configured geocoders",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("geocode"); err != nil {
			return err
		}
		env, err := initEnv(cmd.Context(), cfg, envOptions{Geocoder: true})
		if err != nil {
			return err
		}
		defer env.Close()
		return runLookup(cmd.Context(), cmd.OutOrStdout(), env.Geocoder, strings.Join(args, " "))
	},
}

type lookupOutput struct {
	*geocode.Result
	Extent float64 `json:"extent"`
}

func runLookup(ctx context.Context, w io.Writer, p geocode.Provider, name string) error {
	res, err := p.Lookup(ctx, name)
	if err != nil {
		return err
	}
	return printJSON(w, lookupOutput{Result: res, Extent: res.Footprint().Extent})
}

func init() {
	f := gazetteerLoadCmd.Flags()
	f.StringVar(&gazLoadShapefile, "shapefile", "", "path to a .shp file")
	f.StringVar(&gazLoadURL, "url", "", "URL of a zipped shapefile")
	f.StringVar(&gazLoadTable, "table", "", "target table (default from config)")
	f.StringVar(&gazLoadNameField, "name-field", "", "attribute holding the feature name (default from config)")
	f.BoolVar(&gazLoadDryRun, "dry-run", false, "read features without loading them")

	gazetteerCmd.AddCommand(gazetteerLoadCmd, gazetteerLookupCmd)
	rootCmd.AddCommand(gazetteerCmd)
}
