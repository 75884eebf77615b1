package registry

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/georef-cli/internal/geoerr"
)

// CoordinateSource is where a coordinate was read from, with the positional
// error that source carries.
type CoordinateSource struct {
	Code   string  `yaml:"code" json:"code"`
	Name   string  `yaml:"name" json:"name"`
	Error  float64 `yaml:"error" json:"error"`
	Unit   string  `yaml:"unit" json:"unit"`
	Meters float64 `yaml:"-" json:"error_meters"`
}

// SourceRegistry indexes coordinate sources by code.
type SourceRegistry struct {
	sources []CoordinateSource
	byCode  map[string]*CoordinateSource
	codes   formIndex
}

// NewSourceRegistry validates sources and resolves each error into meters
// through units.
func NewSourceRegistry(sources []CoordinateSource, units *UnitRegistry) (*SourceRegistry, error) {
	r := &SourceRegistry{
		sources: sources,
		byCode:  make(map[string]*CoordinateSource, len(sources)),
		codes:   make(formIndex),
	}
	for i := range r.sources {
		s := &r.sources[i]
		if s.Code == "" {
			return nil, eris.Errorf("registry: source row %d has no code", i)
		}
		if s.Error < 0 {
			return nil, eris.Errorf("registry: source %q: error must not be negative", s.Code)
		}
		u, err := units.Lookup(s.Unit)
		if err != nil {
			return nil, eris.Wrapf(err, "registry: source %q", s.Code)
		}
		s.Meters = u.ToMeters(s.Error)
		if _, dup := r.byCode[s.Code]; dup {
			return nil, eris.Errorf("registry: duplicate source %q", s.Code)
		}
		r.byCode[s.Code] = s
		if err := r.codes.add("source", s.Code, s.Code); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Lookup resolves a coordinate source code.
func (r *SourceRegistry) Lookup(s string) (CoordinateSource, error) {
	code, ok := r.codes.resolve(s)
	if !ok {
		return CoordinateSource{}, geoerr.NotFound("coordinate_source", s)
	}
	return *r.byCode[code], nil
}

// All returns the sources in table order.
func (r *SourceRegistry) All() []CoordinateSource {
	out := make([]CoordinateSource, len(r.sources))
	copy(out, r.sources)
	return out
}
