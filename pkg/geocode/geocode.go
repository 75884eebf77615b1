// Package geocode resolves feature names to footprints. Providers cover the
// Google Geocoding API and local PostGIS or shapefile gazetteers; a Cascade
// tries them in order behind per-provider circuit breakers.
package geocode

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/geoerr"
	"github.com/sells-group/georef-cli/internal/georef"
)

// ErrNoMatch is returned when a provider answered but knows no such feature.
var ErrNoMatch = eris.New("geocode: no match")

// Location precision classes, as reported by Google in location_type.
const (
	PrecisionRooftop     = geodesy.PrecisionRooftop
	PrecisionApproximate = "APPROXIMATE"
)

// Provider resolves a feature name.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, query string) (*Result, error)
}

// Result is a geocoded feature.
type Result struct {
	Name      string          `json:"name"`
	Center    geodesy.Point   `json:"center"`
	Bounds    *geodesy.Bounds `json:"bounds,omitempty"`
	Precision string          `json:"precision"`
	Source    string          `json:"source"`
}

// Footprint converts the result into the footprint the georeferencing engine
// consumes.
func (r *Result) Footprint() georef.Footprint {
	return georef.NewFootprint(r.Center, r.Bounds, r.Precision)
}

// NameKey is the lookup key for a feature name: case-folded with runs of
// whitespace collapsed.
func NameKey(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

func checkQuery(query string) error {
	if NameKey(query) == "" {
		return geoerr.Missing("feature")
	}
	return nil
}
