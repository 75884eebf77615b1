package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/geoerr"
	"github.com/sells-group/georef-cli/internal/registry"
)

var (
	transformLat   string
	transformLng   string
	transformDatum string
	transformEPSG  int
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Shift a coordinate from a datum to WGS84",
	Long:  "Applies the Abridged Molodensky transformation for the given datum, selected by code or EPSG id.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		lat, lng, err := parseLatLng(transformLat, transformLng)
		if err != nil {
			return err
		}
		return runTransform(cmd.OutOrStdout(), reg, lng, lat, transformDatum, transformEPSG)
	},
}

type transformOutput struct {
	Input    geodesy.Point `json:"input"`
	Datum    string        `json:"datum"`
	Point    geodesy.Point `json:"point"`
	RMSError float64       `json:"rms_error"`
}

func runTransform(w io.Writer, reg *registry.Registry, lng, lat float64, code string, epsg int) error {
	in, err := geodesy.NewPoint(lng, lat)
	if err != nil {
		return err
	}

	var d registry.Datum
	switch {
	case epsg != 0:
		d, err = reg.Datums.LookupEPSG(epsg)
	case code != "":
		d, err = reg.Datums.Lookup(code)
	default:
		err = geoerr.Missing("datum")
	}
	if err != nil {
		return err
	}

	return printJSON(w, transformOutput{
		Input:    in,
		Datum:    d.Code,
		Point:    geodesy.ToWGS84(in, d),
		RMSError: d.RMSError,
	})
}

// loadRegistry loads the lookup tables, honoring config overrides.
func loadRegistry() (*registry.Registry, error) {
	return registry.Load(registryOptions(cfg))
}

func init() {
	transformCmd.Flags().StringVar(&transformLat, "lat", "", "latitude, decimal or DMS (e.g. 37:48:00S)")
	transformCmd.Flags().StringVar(&transformLng, "lng", "", "longitude, decimal or DMS (e.g. 144:58:00E)")
	transformCmd.Flags().StringVar(&transformDatum, "datum", "", "source datum code, e.g. NAD27")
	transformCmd.Flags().IntVar(&transformEPSG, "epsg", 0, "source datum EPSG id, e.g. 4267")
	_ = transformCmd.MarkFlagRequired("lat")
	_ = transformCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(transformCmd)
}
