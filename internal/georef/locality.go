// Package georef turns a described locality plus the footprint of its named
// feature into a WGS84 point with an uncertainty radius.
package georef

import (
	"strings"

	"github.com/sells-group/georef-cli/internal/geodesy"
)

// Kind classifies how a locality description relates to its feature.
type Kind string

// Supported locality kinds. An empty kind is treated as feature-only.
const (
	KindFeature Kind = "f"
	KindFOH     Kind = "foh"
)

// ParseKind canonicalizes a kind label. The empty label maps to KindFeature.
func ParseKind(s string) Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return KindFeature
	}
	return k
}

// Parts are the structured components of a locality description, e.g.
// "5 mi W of Springfield" is {Springfield, 5, mi, W}.
type Parts struct {
	Feature     string `json:"feature,omitempty"`
	OffsetValue string `json:"offset_value,omitempty"`
	OffsetUnit  string `json:"offset_unit,omitempty"`
	Heading     string `json:"heading,omitempty"`
}

// Footprint is the geocoded extent of a named feature: a center and the radius
// in meters that covers it.
type Footprint struct {
	Center geodesy.Point `json:"center"`
	Extent float64       `json:"extent"`

	// Datum is the datum Center is expressed in; empty means WGS84.
	Datum string `json:"datum,omitempty"`
	// Source is a coordinate-source code whose positional error is added
	// to the extent.
	Source string `json:"source,omitempty"`
}

// NewFootprint builds a footprint from a geocoded center and optional bounding
// box. precision is the geocoder's location class, e.g. "ROOFTOP".
func NewFootprint(center geodesy.Point, bounds *geodesy.Bounds, precision string) Footprint {
	return Footprint{
		Center: center,
		Extent: geodesy.FootprintRadius(center, bounds, precision),
	}
}

// Locality is a place description awaiting georeferencing.
type Locality struct {
	Text  string `json:"text"`
	Kind  string `json:"kind,omitempty"`
	Parts *Parts `json:"parts,omitempty"`

	footprint *Footprint
}

// WithFootprint returns a copy of l carrying the resolved footprint of its
// feature.
func (l Locality) WithFootprint(fp Footprint) Locality {
	l.footprint = &fp
	return l
}

// Footprint returns the attached feature footprint, if any.
func (l Locality) Footprint() (Footprint, bool) {
	if l.footprint == nil {
		return Footprint{}, false
	}
	return *l.footprint, true
}

// Interpretation records how the parts of a locality were understood.
type Interpretation struct {
	Feature     string `json:"feature,omitempty"`
	OffsetUnit  string `json:"offset_unit,omitempty"`
	OffsetValue string `json:"offset_value,omitempty"`
	Heading     string `json:"heading,omitempty"`
}

// Georeference is a WGS84 point and its uncertainty radius in meters.
type Georeference struct {
	Point          geodesy.Point   `json:"point"`
	Error          float64         `json:"error"`
	Interpretation *Interpretation `json:"interpretation,omitempty"`
}
