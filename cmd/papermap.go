package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/registry"
)

var (
	paperLat, paperLng string
	paperUnit          string
	paperDatum         string
	paperOffsets       geodesy.Offsets
)

var papermapCmd = &cobra.Command{
	Use:   "papermap",
	Short: "Locate a point measured from a map corner",
	Long: `Offsets a map corner by distances measured along the map grid, e.g. 3.2 km
north and 1.5 km east of the lower-left corner. The result stays in the map's
datum; use transform to bring it to WGS84.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		lat, lng, err := parseLatLng(paperLat, paperLng)
		if err != nil {
			return err
		}
		return runPaperMap(cmd.OutOrStdout(), reg, lng, lat, paperUnit, paperDatum, paperOffsets)
	},
}

type paperMapOutput struct {
	Corner geodesy.Point           `json:"corner"`
	Datum  string                  `json:"datum"`
	Unit   string                  `json:"unit"`
	Point  geodesy.Point           `json:"point"`
	Scale  geodesy.MetersPerDegree `json:"meters_per_degree"`
}

func runPaperMap(w io.Writer, reg *registry.Registry, lng, lat float64, unit, datum string, o geodesy.Offsets) error {
	corner, err := geodesy.NewPoint(lng, lat)
	if err != nil {
		return err
	}
	u, err := reg.Units.Lookup(unit)
	if err != nil {
		return err
	}
	d, err := reg.Datums.Lookup(datum)
	if err != nil {
		return err
	}

	p, err := geodesy.PaperMap{Unit: u, Datum: d}.Point(corner, o)
	if err != nil {
		return err
	}
	return printJSON(w, paperMapOutput{
		Corner: corner,
		Datum:  d.Code,
		Unit:   u.Code,
		Point:  p,
		Scale:  geodesy.NewMetersPerDegree(corner, d),
	})
}

func init() {
	f := papermapCmd.Flags()
	f.StringVar(&paperLat, "lat", "", "corner latitude, decimal or DMS")
	f.StringVar(&paperLng, "lng", "", "corner longitude, decimal or DMS")
	f.StringVar(&paperUnit, "unit", "km", "unit of the grid distances")
	f.StringVar(&paperDatum, "datum", "WGS84", "map datum")
	f.Float64Var(&paperOffsets.North, "north", 0, "distance north of the corner")
	f.Float64Var(&paperOffsets.South, "south", 0, "distance south of the corner")
	f.Float64Var(&paperOffsets.East, "east", 0, "distance east of the corner")
	f.Float64Var(&paperOffsets.West, "west", 0, "distance west of the corner")
	_ = papermapCmd.MarkFlagRequired("lat")
	_ = papermapCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(papermapCmd)
}
