package geodesy

import (
	"math"

	"github.com/sells-group/georef-cli/internal/registry"
)

// ToWGS84 shifts p from datum d to WGS84 with the Abridged Molodensky
// formulae. Points already in WGS84 are returned unchanged.
func ToWGS84(p Point, d registry.Datum) Point {
	if d.IsWGS84() {
		return p
	}

	lat := radians(p.Lat)
	lng := radians(p.Lng)
	sinLat, cosLat := math.Sincos(lat)
	sinLng, cosLng := math.Sincos(lng)

	a := d.SemiMajorAxis
	f := d.Flattening()
	da := registry.WGS84SemiMajorAxis - a
	df := 1/registry.WGS84InverseFlattening - f

	e2 := f * (2 - f)
	w := 1 - e2*sinLat*sinLat
	rho := a * (1 - e2) / math.Pow(w, 1.5)
	nu := a / math.Sqrt(w)

	dlat := (-d.DX*sinLat*cosLng - d.DY*sinLat*sinLng + d.DZ*cosLat +
		(f*da+a*df)*math.Sin(2*lat)) / rho
	dlng := (-d.DX*sinLng + d.DY*cosLng) / (nu * cosLat)

	return Point{
		Lng: NormalizeLng(degrees(lng + dlng)),
		Lat: degrees(lat + dlat),
	}
}
