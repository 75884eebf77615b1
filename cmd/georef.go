package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/georef"
	"github.com/sells-group/georef-cli/internal/resolve"
)

// footprintFlags are the ways a command can be given the feature footprint.
type footprintFlags struct {
	lat, lng    float64
	extent      float64
	precision   string
	datum       string
	source      string
	geocodeFile string
	lookup      bool
	predict     bool
	format      string
}

func (f *footprintFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&f.lat, "lat", 0, "feature latitude in decimal degrees")
	fs.Float64Var(&f.lng, "lng", 0, "feature longitude in decimal degrees")
	fs.Float64Var(&f.extent, "extent", 0, "feature extent in meters (default from precision)")
	fs.StringVar(&f.precision, "precision", "", "geocoder location class, e.g. ROOFTOP")
	fs.StringVar(&f.datum, "datum", "", "datum of --lat/--lng (default from config)")
	fs.StringVar(&f.source, "source", "", "coordinate source code whose error is added to the extent")
	fs.StringVar(&f.geocodeFile, "geocode-file", "", "saved Google Geocoding JSON response for the feature")
	fs.BoolVar(&f.lookup, "lookup", false, "geocode the feature with the configured gazetteer/geocoder")
	fs.StringVar(&f.format, "format", "json", "output format: json or geojson")
}

// apply fills the footprint part of req from whichever source was given.
func (f *footprintFlags) apply(fs *pflag.FlagSet, req *resolve.Request) error {
	switch {
	case f.geocodeFile != "":
		data, err := os.ReadFile(f.geocodeFile)
		if err != nil {
			return eris.Wrap(err, "read geocode file")
		}
		req.Geocode = json.RawMessage(data)
	case fs.Changed("lat") || fs.Changed("lng"):
		if !fs.Changed("lat") || !fs.Changed("lng") {
			return eris.New("--lat and --lng must be given together")
		}
		req.Footprint = &resolve.FootprintInput{
			Lat:       f.lat,
			Lng:       f.lng,
			Extent:    f.extent,
			Precision: f.precision,
			Datum:     f.datum,
			Source:    f.source,
		}
	case !f.lookup:
		return eris.New("a footprint is required: --lat/--lng, --geocode-file, or --lookup")
	}
	return nil
}

var featureFlags footprintFlags

var featureCmd = &cobra.Command{
	Use:   "feature <name>",
	Short: "Georeference a feature-only locality",
	Long: `Georeferences a locality that names a single feature. The point is the
feature's center and the uncertainty is its extent, plus any datum and
coordinate-source error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := resolve.Request{
			Locality: args[0],
			Kind:     string(georef.KindFeature),
			Parts:    georef.Parts{Feature: args[0]},
		}
		if err := featureFlags.apply(cmd.Flags(), &req); err != nil {
			return err
		}
		return runGeoreference(cmd.Context(), cmd.OutOrStdout(), req, &featureFlags)
	},
}

var (
	fohFlags   footprintFlags
	fohOffset  string
	fohUnit    string
	fohHeading string
	fohFeature string
)

var fohCmd = &cobra.Command{
	Use:   "foh <locality>",
	Short: "Georeference a feature-offset-heading locality",
	Long: `Georeferences a locality such as "5 mi W of Springfield": the point lies the
offset distance from the feature along the heading, and the uncertainty combines
the feature extent, the precision implied by the offset's wording, and the
heading's angular error.

Examples:
  georef foh "5 mi W of Origin" --feature Origin --offset 5 --unit mi --heading W \
    --lat 0 --lng 0 --extent 1000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := resolve.Request{
			Locality: args[0],
			Kind:     string(georef.KindFOH),
			Parts: georef.Parts{
				Feature:     fohFeature,
				OffsetValue: fohOffset,
				OffsetUnit:  fohUnit,
				Heading:     fohHeading,
			},
		}
		if err := fohFlags.apply(cmd.Flags(), &req); err != nil {
			return err
		}
		return runGeoreference(cmd.Context(), cmd.OutOrStdout(), req, &fohFlags)
	},
}

var (
	localityFlags footprintFlags
	localityKind  string
	localityParts georef.Parts
)

var localityCmd = &cobra.Command{
	Use:   "locality <text>",
	Short: "Georeference a locality of any supported kind",
	Long: `Georeferences a locality given its parts. Without --kind the kind is
predicted from the text when --predict is set, and treated as feature-only
otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := resolve.Request{Locality: args[0], Kind: localityKind, Parts: localityParts}
		if err := localityFlags.apply(cmd.Flags(), &req); err != nil {
			return err
		}
		return runGeoreference(cmd.Context(), cmd.OutOrStdout(), req, &localityFlags)
	},
}

func runGeoreference(ctx context.Context, w io.Writer, req resolve.Request, f *footprintFlags) error {
	if err := validateModes(f.lookup, f.predict, "georef"); err != nil {
		return err
	}
	env, err := initEnv(ctx, cfg, envOptions{Geocoder: f.lookup, Predictor: f.predict})
	if err != nil {
		return err
	}
	defer env.Close()

	resp, err := env.Resolver(cfg).Resolve(ctx, req)
	if err != nil {
		return err
	}
	return writeGeoreference(w, resp, env.Geodesy, f.format)
}

func writeGeoreference(w io.Writer, resp *resolve.Response, geo geodesy.Geodesy, format string) error {
	switch strings.ToLower(format) {
	case "", "json":
		return printJSON(w, resp)
	case "geojson":
		data, err := resp.GeoJSON(geo)
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return eris.Wrap(err, "write geojson")
	default:
		return eris.Errorf("unknown format %q", format)
	}
}

func init() {
	featureFlags.register(featureCmd.Flags())

	fohFlags.register(fohCmd.Flags())
	fohCmd.Flags().StringVar(&fohFeature, "feature", "", "feature name")
	fohCmd.Flags().StringVar(&fohOffset, "offset", "", "offset distance as written, e.g. 5.25")
	fohCmd.Flags().StringVar(&fohUnit, "unit", "", "offset unit, e.g. mi")
	fohCmd.Flags().StringVar(&fohHeading, "heading", "", "heading, e.g. NW")

	localityFlags.register(localityCmd.Flags())
	localityCmd.Flags().BoolVar(&localityFlags.predict, "predict", false, "predict the kind when --kind is empty")
	localityCmd.Flags().StringVar(&localityKind, "kind", "", "locality kind: f or foh")
	localityCmd.Flags().StringVar(&localityParts.Feature, "feature", "", "feature name")
	localityCmd.Flags().StringVar(&localityParts.OffsetValue, "offset", "", "offset distance as written")
	localityCmd.Flags().StringVar(&localityParts.OffsetUnit, "unit", "", "offset unit")
	localityCmd.Flags().StringVar(&localityParts.Heading, "heading", "", "heading")

	rootCmd.AddCommand(featureCmd, fohCmd, localityCmd)
}

// validateModes checks the config sections a command needs, adding the
// geocode and predict sections when those collaborators are used.
func validateModes(geocoder, predictor bool, modes ...string) error {
	if geocoder {
		modes = append(modes, "geocode")
	}
	if predictor {
		modes = append(modes, "predict")
	}
	for _, m := range modes {
		if err := cfg.Validate(m); err != nil {
			return err
		}
	}
	return nil
}
