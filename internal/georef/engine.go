package georef

import (
	"strings"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/geoerr"
	"github.com/sells-group/georef-cli/internal/registry"
	"github.com/sells-group/georef-cli/internal/uncertainty"
)

// Option configures an Engine.
type Option func(*Engine)

// WithGeodesy replaces the default spherical geodesy.
func WithGeodesy(g geodesy.Geodesy) Option {
	return func(e *Engine) {
		e.geo = g
	}
}

// Engine georeferences localities against a registry. It holds no mutable
// state and may be shared between goroutines.
type Engine struct {
	reg *registry.Registry
	geo geodesy.Geodesy
}

// NewEngine creates an Engine over reg.
func NewEngine(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{reg: reg, geo: geodesy.Spherical{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the lookup tables the engine resolves codes against.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Georeference computes the point and uncertainty for loc. Missing or
// unknown inputs yield a *geoerr.InvalidInputError naming the field; a kind
// with no method yields a *geoerr.UnsupportedKindError.
func (e *Engine) Georeference(loc Locality) (*Georeference, error) {
	switch ParseKind(loc.Kind) {
	case KindFeature:
		return e.feature(loc)
	case KindFOH:
		return e.foh(loc)
	default:
		return nil, &geoerr.UnsupportedKindError{Kind: loc.Kind}
	}
}

func (e *Engine) feature(loc Locality) (*Georeference, error) {
	fp, ok := loc.Footprint()
	if !ok {
		return nil, geoerr.Missing("feature")
	}
	base, err := e.resolve(fp)
	if err != nil {
		return nil, err
	}

	g := &Georeference{Point: base.Center, Error: base.Extent}
	if loc.Parts != nil && loc.Parts.Feature != "" {
		g.Interpretation = &Interpretation{Feature: loc.Parts.Feature}
	}
	return g, nil
}

func (e *Engine) foh(loc Locality) (*Georeference, error) {
	parts := loc.Parts
	if parts == nil {
		parts = &Parts{}
	}
	switch {
	case strings.TrimSpace(parts.OffsetValue) == "":
		return nil, geoerr.Missing("offset_value")
	case strings.TrimSpace(parts.OffsetUnit) == "":
		return nil, geoerr.Missing("offset_unit")
	case strings.TrimSpace(parts.Heading) == "":
		return nil, geoerr.Missing("heading")
	}
	fp, ok := loc.Footprint()
	if !ok {
		return nil, geoerr.Missing("feature")
	}
	base, err := e.resolve(fp)
	if err != nil {
		return nil, err
	}

	unit, err := e.reg.Units.Lookup(parts.OffsetUnit)
	if err != nil {
		return nil, geoerr.WithField(err, "offset_unit")
	}
	heading, err := e.reg.Headings.Lookup(parts.Heading)
	if err != nil {
		return nil, geoerr.WithField(err, "heading")
	}
	offset, err := uncertainty.ParseOffset(parts.OffsetValue)
	if err != nil {
		return nil, err
	}
	radius, err := uncertainty.FOHError(e.reg.Units, e.reg.Headings,
		base.Extent, parts.OffsetValue, unit.Code, heading.Code)
	if err != nil {
		return nil, err
	}

	return &Georeference{
		Point: e.geo.Destination(base.Center, unit.ToMeters(offset), heading.Bearing),
		Error: radius,
		Interpretation: &Interpretation{
			Feature:     parts.Feature,
			OffsetUnit:  unit.Code,
			OffsetValue: strings.TrimSpace(parts.OffsetValue),
			Heading:     heading.Code,
		},
	}, nil
}

// resolve brings a footprint into WGS84 and folds the datum residual and
// coordinate-source error into its extent.
func (e *Engine) resolve(fp Footprint) (Footprint, error) {
	if !fp.Center.Valid() {
		return Footprint{}, geoerr.Invalid("feature", fp.Center.String(), "center outside the coordinate range")
	}
	if fp.Extent < 0 {
		return Footprint{}, geoerr.Invalid("extent", "", "must not be negative")
	}

	if fp.Datum != "" {
		d, err := e.reg.Datums.Lookup(fp.Datum)
		if err != nil {
			return Footprint{}, err
		}
		fp.Center = geodesy.ToWGS84(fp.Center, d)
		fp.Extent += d.RMSError
		fp.Datum = ""
	}
	if fp.Source != "" {
		s, err := e.reg.Sources.Lookup(fp.Source)
		if err != nil {
			return Footprint{}, err
		}
		fp.Extent += s.Meters
		fp.Source = ""
	}
	return fp, nil
}
