package registry

import (
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/georef-cli/internal/geoerr"
)

// WGS84 ellipsoid constants. The datum table must carry a WGS84 row with
// exactly these values.
const (
	WGS84Code              = "WGS84"
	WGS84SemiMajorAxis     = 6378137.0
	WGS84InverseFlattening = 298.257223563
	WGS84EPSG              = 4326
)

// Datum describes a geodetic datum: its reference ellipsoid and the origin
// shift to WGS84.
type Datum struct {
	Code              string  `yaml:"code" json:"code"`
	Name              string  `yaml:"name" json:"name"`
	Ellipsoid         string  `yaml:"ellipsoid" json:"ellipsoid"`
	EllipsoidCode     string  `yaml:"ellipsoid_code" json:"ellipsoid_code"`
	SemiMajorAxis     float64 `yaml:"semi_major_axis" json:"semi_major_axis"`
	InverseFlattening float64 `yaml:"inverse_flattening" json:"inverse_flattening"`
	DX                float64 `yaml:"dx" json:"dx"`
	DY                float64 `yaml:"dy" json:"dy"`
	DZ                float64 `yaml:"dz" json:"dz"`
	EPSG              int     `yaml:"epsg,omitempty" json:"epsg,omitempty"` // 0 when the datum has no EPSG code
	RMSError          float64 `yaml:"rms_error" json:"rms_error"`
}

// Flattening returns f = 1/inverse flattening.
func (d Datum) Flattening() float64 {
	return 1.0 / d.InverseFlattening
}

// IsWGS84 reports whether d is the WGS84 datum itself.
func (d Datum) IsWGS84() bool {
	return d.Code == WGS84Code
}

// DatumRegistry indexes datums by code, name, and EPSG id.
type DatumRegistry struct {
	datums []Datum
	byCode map[string]*Datum
	byEPSG map[int]*Datum
	names  formIndex
	wgs84  *Datum
}

// NewDatumRegistry validates and indexes datums. Exactly one WGS84 row with
// the authoritative ellipsoid parameters is required.
func NewDatumRegistry(datums []Datum) (*DatumRegistry, error) {
	r := &DatumRegistry{
		datums: datums,
		byCode: make(map[string]*Datum, len(datums)),
		byEPSG: make(map[int]*Datum, len(datums)),
		names:  make(formIndex),
	}
	for i := range r.datums {
		d := &r.datums[i]
		if err := validateDatum(i, d); err != nil {
			return nil, err
		}
		if _, dup := r.byCode[d.Code]; dup {
			return nil, eris.Errorf("registry: duplicate datum %q", d.Code)
		}
		r.byCode[d.Code] = d
		if d.EPSG != 0 {
			if prev, dup := r.byEPSG[d.EPSG]; dup {
				return nil, eris.Errorf("registry: datums %q and %q share EPSG %d", prev.Code, d.Code, d.EPSG)
			}
			r.byEPSG[d.EPSG] = d
		}
		if err := r.names.add("datum", d.Code, d.Code); err != nil {
			return nil, err
		}
		if err := r.names.add("datum", d.Name, d.Code); err != nil {
			return nil, err
		}
		if d.IsWGS84() {
			r.wgs84 = d
		}
	}

	if r.wgs84 == nil {
		return nil, eris.New("registry: datum table has no WGS84 row")
	}
	w := r.wgs84
	if w.SemiMajorAxis != WGS84SemiMajorAxis || w.InverseFlattening != WGS84InverseFlattening ||
		w.DX != 0 || w.DY != 0 || w.DZ != 0 {
		return nil, eris.New("registry: WGS84 row does not match the WGS84 ellipsoid")
	}
	return r, nil
}

func validateDatum(row int, d *Datum) error {
	if d.Code == "" {
		return eris.Errorf("registry: datum row %d has no code", row)
	}
	if d.SemiMajorAxis <= 0 {
		return eris.Errorf("registry: datum %q: semi_major_axis must be positive", d.Code)
	}
	if d.InverseFlattening <= 1 {
		return eris.Errorf("registry: datum %q: inverse_flattening must be greater than 1", d.Code)
	}
	if d.RMSError < 0 {
		return eris.Errorf("registry: datum %q: rms_error must not be negative", d.Code)
	}
	return nil
}

// Lookup resolves a datum by code or name, ignoring case and punctuation.
func (r *DatumRegistry) Lookup(s string) (Datum, error) {
	code, ok := r.names.resolve(s)
	if !ok {
		return Datum{}, geoerr.NotFound("datum", s)
	}
	return *r.byCode[code], nil
}

// LookupEPSG resolves a datum by its EPSG geographic CRS id.
func (r *DatumRegistry) LookupEPSG(id int) (Datum, error) {
	d, ok := r.byEPSG[id]
	if !ok {
		return Datum{}, geoerr.NotFound("epsg", strconv.Itoa(id))
	}
	return *d, nil
}

// WGS84 returns the authoritative WGS84 entry.
func (r *DatumRegistry) WGS84() Datum {
	return *r.wgs84
}

// All returns the datums in table order.
func (r *DatumRegistry) All() []Datum {
	out := make([]Datum, len(r.datums))
	copy(out, r.datums)
	return out
}
