package registry

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/georef-cli/internal/geoerr"
)

// DistanceUnit is a unit accepted in offset descriptions.
type DistanceUnit struct {
	Code   string   `yaml:"code" json:"code"`
	Meters float64  `yaml:"meters" json:"meters_per_unit"`
	Forms  []string `yaml:"forms" json:"forms"`
}

// ToMeters converts v in this unit to meters.
func (u DistanceUnit) ToMeters(v float64) float64 {
	return v * u.Meters
}

// UnitRegistry indexes distance units by code and by every accepted form.
type UnitRegistry struct {
	units  []DistanceUnit
	byCode map[string]*DistanceUnit
	forms  formIndex
}

// NewUnitRegistry validates and indexes units.
func NewUnitRegistry(units []DistanceUnit) (*UnitRegistry, error) {
	r := &UnitRegistry{
		units:  units,
		byCode: make(map[string]*DistanceUnit, len(units)),
		forms:  make(formIndex),
	}
	for i := range r.units {
		u := &r.units[i]
		if u.Code == "" {
			return nil, eris.Errorf("registry: unit row %d has no code", i)
		}
		if u.Meters <= 0 {
			return nil, eris.Errorf("registry: unit %q: meters must be positive", u.Code)
		}
		if _, dup := r.byCode[u.Code]; dup {
			return nil, eris.Errorf("registry: duplicate unit %q", u.Code)
		}
		r.byCode[u.Code] = u
		if err := r.forms.add("unit", u.Code, u.Code); err != nil {
			return nil, err
		}
		for _, f := range u.Forms {
			if err := r.forms.add("unit", f, u.Code); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Lookup resolves a unit code or any of its textual forms.
func (r *UnitRegistry) Lookup(s string) (DistanceUnit, error) {
	code, ok := r.forms.resolve(s)
	if !ok {
		return DistanceUnit{}, geoerr.NotFound("unit", s)
	}
	return *r.byCode[code], nil
}

// Convert expresses value, given in unit from, in unit to.
func (r *UnitRegistry) Convert(value float64, from, to string) (float64, error) {
	uf, err := r.Lookup(from)
	if err != nil {
		return 0, err
	}
	ut, err := r.Lookup(to)
	if err != nil {
		return 0, err
	}
	if uf.Code == ut.Code {
		return value, nil
	}
	return value * uf.Meters / ut.Meters, nil
}

// All returns the units in table order.
func (r *UnitRegistry) All() []DistanceUnit {
	out := make([]DistanceUnit, len(r.units))
	copy(out, r.units)
	return out
}
