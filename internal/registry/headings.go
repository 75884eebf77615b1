package registry

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/georef-cli/internal/geoerr"
)

// Heading is a compass direction with the angular uncertainty inherent in
// naming it.
type Heading struct {
	Code    string   `yaml:"code" json:"code"`
	Name    string   `yaml:"name" json:"name"`
	Bearing float64  `yaml:"bearing" json:"bearing"`
	Error   float64  `yaml:"error" json:"error"`
	Forms   []string `yaml:"forms" json:"forms"`
}

// HeadingRegistry indexes headings by code and form.
type HeadingRegistry struct {
	headings []Heading
	byCode   map[string]*Heading
	forms    formIndex
}

// NewHeadingRegistry validates and indexes headings.
func NewHeadingRegistry(headings []Heading) (*HeadingRegistry, error) {
	r := &HeadingRegistry{
		headings: headings,
		byCode:   make(map[string]*Heading, len(headings)),
		forms:    make(formIndex),
	}
	for i := range r.headings {
		h := &r.headings[i]
		if h.Code == "" {
			return nil, eris.Errorf("registry: heading row %d has no code", i)
		}
		if h.Bearing < 0 || h.Bearing >= 360 {
			return nil, eris.Errorf("registry: heading %q: bearing %v outside [0, 360)", h.Code, h.Bearing)
		}
		if h.Error < 0 || h.Error > 180 {
			return nil, eris.Errorf("registry: heading %q: error %v outside [0, 180]", h.Code, h.Error)
		}
		if _, dup := r.byCode[h.Code]; dup {
			return nil, eris.Errorf("registry: duplicate heading %q", h.Code)
		}
		r.byCode[h.Code] = h
		for _, f := range append([]string{h.Code, h.Name}, h.Forms...) {
			if err := r.forms.add("heading", f, h.Code); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Lookup resolves a heading code or textual form ("WSW", "west-southwest").
func (r *HeadingRegistry) Lookup(s string) (Heading, error) {
	code, ok := r.forms.resolve(s)
	if !ok {
		return Heading{}, geoerr.NotFound("heading", s)
	}
	return *r.byCode[code], nil
}

// All returns the headings in table order.
func (r *HeadingRegistry) All() []Heading {
	out := make([]Heading, len(r.headings))
	copy(out, r.headings)
	return out
}
