package geodesy

import "math"

// EarthRadius is the sphere radius used for distance and destination, the
// WGS84 semi-major axis in meters.
const EarthRadius = 6378137.0

// Default footprint radii used when a geocode carries no bounding box.
const (
	DefaultRadiusRooftop = 100.0
	DefaultRadiusOther   = 1000.0
)

// PrecisionRooftop is the location-precision class of a geocode resolved to a
// specific structure.
const PrecisionRooftop = "ROOFTOP"

// Bounds is a bounding box given by its northeast and southwest corners.
type Bounds struct {
	NE Point `json:"northeast"`
	SW Point `json:"southwest"`
}

// Haversine returns the great-circle distance in meters between p1 and p2.
func Haversine(p1, p2 Point) float64 {
	dlng := radians(p2.Lng - p1.Lng)
	dlat := radians(p2.Lat - p1.Lat)

	sdlat := math.Sin(dlat / 2)
	sdlng := math.Sin(dlng / 2)
	a := sdlat*sdlat + math.Cos(radians(p1.Lat))*math.Cos(radians(p2.Lat))*sdlng*sdlng
	// a can overshoot 1 by rounding for antipodal points.
	if math.Abs(1-a) < 1e-10 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadius * c
}

// Destination returns the point reached by travelling meters from p along the
// great circle leaving at bearing (degrees clockwise from north). Coordinates
// are truncated to seven decimals.
func Destination(p Point, meters, bearing float64) Point {
	lat1 := radians(p.Lat)
	lng1 := radians(p.Lng)
	theta := radians(bearing)
	delta := meters / EarthRadius

	sinLat2 := math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta)
	sinLat2 = math.Max(-1, math.Min(1, sinLat2))
	lat2 := math.Asin(sinLat2)

	y := math.Sin(theta) * math.Sin(delta) * math.Cos(lat1)
	x := math.Cos(delta) - math.Sin(lat1)*sinLat2
	if math.Abs(x) < 1e-10 {
		x = 0
	}
	lng2 := lng1 + math.Atan2(y, x)

	return Point{
		Lng: truncate7(NormalizeLng(degrees(lng2))),
		Lat: truncate7(degrees(lat2)),
	}
}

// FootprintRadius returns the extent in meters of a geocoded feature. With a
// bounding box it is the distance from center to the farther of the two
// corners; without one it falls back to a fixed radius chosen by precision.
func FootprintRadius(center Point, bounds *Bounds, precision string) float64 {
	if bounds == nil {
		if precision == PrecisionRooftop {
			return DefaultRadiusRooftop
		}
		return DefaultRadiusOther
	}
	return math.Max(Haversine(center, bounds.NE), Haversine(center, bounds.SW))
}
