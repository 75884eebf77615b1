package geodesy

import (
	"github.com/sells-group/georef-cli/internal/geoerr"
	"github.com/sells-group/georef-cli/internal/registry"
)

// PaperMap offsets map corners by distances measured along a map's grid.
type PaperMap struct {
	Unit  registry.DistanceUnit
	Datum registry.Datum
}

// Offsets are grid distances from a corner in the map's unit. Exactly one of
// North/South and one of East/West must be non-zero.
type Offsets struct {
	North float64 `json:"north,omitempty"`
	South float64 `json:"south,omitempty"`
	East  float64 `json:"east,omitempty"`
	West  float64 `json:"west,omitempty"`
}

// Point returns the position reached from corner by the given offsets,
// rounded to seven decimals.
func (m PaperMap) Point(corner Point, o Offsets) (Point, error) {
	if o.North == 0 && o.South == 0 {
		return Point{}, geoerr.Missing("north|south")
	}
	if o.East == 0 && o.West == 0 {
		return Point{}, geoerr.Missing("east|west")
	}

	mpd := NewMetersPerDegree(corner, m.Datum)

	var latDelta, lngDelta float64
	if o.North != 0 {
		latDelta = m.Unit.ToMeters(o.North) / mpd.Lat
	} else {
		latDelta = -m.Unit.ToMeters(o.South) / mpd.Lat
	}
	if o.East != 0 {
		lngDelta = m.Unit.ToMeters(o.East) / mpd.Lng
	} else {
		lngDelta = -m.Unit.ToMeters(o.West) / mpd.Lng
	}

	return Point{
		Lng: round7(corner.Lng + lngDelta),
		Lat: round7(corner.Lat + latDelta),
	}, nil
}
