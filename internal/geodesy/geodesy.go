package geodesy

import (
	"github.com/StefanSchroeder/Golang-Ellipsoid/ellipsoid"
)

// Method names accepted by New.
const (
	MethodSpherical   = "spherical"
	MethodEllipsoidal = "ellipsoidal"
)

// Geodesy solves the direct and inverse geodesic problems.
type Geodesy interface {
	Distance(p1, p2 Point) float64
	Destination(p Point, meters, bearing float64) Point
}

// Spherical uses great circles on a sphere of radius EarthRadius.
type Spherical struct{}

// Distance implements Geodesy.
func (Spherical) Distance(p1, p2 Point) float64 { return Haversine(p1, p2) }

// Destination implements Geodesy.
func (Spherical) Destination(p Point, meters, bearing float64) Point {
	return Destination(p, meters, bearing)
}

// Ellipsoidal solves geodesics on the WGS84 ellipsoid with Vincenty's
// formulae.
type Ellipsoidal struct {
	geo ellipsoid.Ellipsoid
}

// NewEllipsoidal returns an Ellipsoidal geodesy in degrees and meters.
func NewEllipsoidal() *Ellipsoidal {
	return &Ellipsoidal{
		geo: ellipsoid.Init("WGS84", ellipsoid.Degrees, ellipsoid.Meter,
			ellipsoid.LongitudeIsSymmetric, ellipsoid.BearingIsSymmetric),
	}
}

// Distance implements Geodesy.
func (e *Ellipsoidal) Distance(p1, p2 Point) float64 {
	if p1 == p2 {
		return 0
	}
	d, _ := e.geo.To(p1.Lat, p1.Lng, p2.Lat, p2.Lng)
	return d
}

// Destination implements Geodesy. Results are truncated to seven decimals
// like the spherical solution.
func (e *Ellipsoidal) Destination(p Point, meters, bearing float64) Point {
	if meters == 0 {
		return p
	}
	lat, lng := e.geo.At(p.Lat, p.Lng, meters, bearing)
	return Point{Lng: truncate7(NormalizeLng(lng)), Lat: truncate7(lat)}
}

// New returns the geodesy for method. An empty method selects Spherical.
func New(method string) (Geodesy, bool) {
	switch method {
	case "", MethodSpherical:
		return Spherical{}, true
	case MethodEllipsoidal:
		return NewEllipsoidal(), true
	}
	return nil, false
}
