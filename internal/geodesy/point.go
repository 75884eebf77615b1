// Package geodesy implements the coordinate math behind georeferencing:
// great-circle distance and destination on a WGS84-radius sphere, the Abridged
// Molodensky datum shift to WGS84, and paper-map grid offsets.
//
// Everything here is a pure function of its inputs.
package geodesy

import (
	"fmt"
	"math"

	"github.com/sells-group/georef-cli/internal/geoerr"
)

// Point is a position in decimal degrees.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// NewPoint validates lat and normalizes lng into (-180, 180].
func NewPoint(lng, lat float64) (Point, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.Abs(lat) > 90 {
		return Point{}, geoerr.Invalid("lat", fmt.Sprint(lat), "must be within [-90, 90]")
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return Point{}, geoerr.Invalid("lng", fmt.Sprint(lng), "must be finite")
	}
	return Point{Lng: NormalizeLng(lng), Lat: lat}, nil
}

// Valid reports whether the point lies within the ±90/±180 degree box.
func (p Point) Valid() bool {
	return math.Abs(p.Lat) <= 90 && math.Abs(p.Lng) <= 180
}

func (p Point) String() string {
	return fmt.Sprintf("(%.7f, %.7f)", p.Lng, p.Lat)
}

// NormalizeLng maps a longitude in degrees into (-180, 180]. NaN and ±Inf
// are returned unchanged.
func NormalizeLng(lng float64) float64 {
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return lng
	}
	if lng <= -540 || lng > 540 {
		lng = math.Mod(lng, 360)
	}
	switch {
	case lng <= -180:
		return lng + 360
	case lng > 180:
		return lng - 360
	}
	return lng
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// truncate7 drops everything past the seventh decimal (about 1 cm). Adding
// zero turns a negative zero into +0.
func truncate7(v float64) float64 {
	return math.Trunc(v*1e7)/1e7 + 0
}

// round7 rounds half away from zero at the seventh decimal.
func round7(v float64) float64 {
	return math.Round(v*1e7)/1e7 + 0
}
