package geodesy

import (
	"math"

	"github.com/sells-group/georef-cli/internal/registry"
)

// MetersPerDegree holds the ground length of one degree of latitude and of
// longitude at a point on a datum's ellipsoid.
type MetersPerDegree struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewMetersPerDegree computes meters per degree at p from the meridional and
// prime-vertical radii of curvature of d's ellipsoid.
func NewMetersPerDegree(p Point, d registry.Datum) MetersPerDegree {
	a := d.SemiMajorAxis
	f := d.Flattening()
	e2 := 2*f - f*f

	sinLat, cosLat := math.Sincos(radians(p.Lat))
	w := 1 - e2*sinLat*sinLat
	n := a / math.Sqrt(w)
	m := a * (1 - e2) / math.Pow(w, 1.5)

	return MetersPerDegree{
		Lat: math.Pi * m / 180,
		Lng: math.Pi * n * cosLat / 180,
	}
}
