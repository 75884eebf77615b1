// Package resolve assembles a locality from a request, obtains its feature
// footprint (given inline, from a raw geocoder response, or by lookup), and
// runs the georeferencing engine.
package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/geoerr"
	"github.com/sells-group/georef-cli/internal/georef"
	"github.com/sells-group/georef-cli/pkg/geocode"
	"github.com/sells-group/georef-cli/pkg/predict"
)

// Request describes one locality to georeference.
type Request struct {
	Locality string `json:"locality"`
	Kind     string `json:"kind,omitempty"`
	georef.Parts

	// Footprint supplies the feature's coordinates directly.
	Footprint *FootprintInput `json:"footprint,omitempty"`
	// Geocode is a raw Google Geocoding response for the feature.
	Geocode json.RawMessage `json:"geocode,omitempty"`
}

// FootprintInput is a caller-supplied feature footprint. Extent, when zero,
// falls back to the bounds or the precision default.
type FootprintInput struct {
	Lat       float64         `json:"lat"`
	Lng       float64         `json:"lng"`
	Extent    float64         `json:"extent,omitempty"`
	Bounds    *geodesy.Bounds `json:"bounds,omitempty"`
	Precision string          `json:"precision,omitempty"`
	Datum     string          `json:"datum,omitempty"`
	Source    string          `json:"source,omitempty"`
}

// Response is a georeference plus how it was reached.
type Response struct {
	georef.Georeference
	Kind       string              `json:"kind"`
	Footprint  georef.Footprint    `json:"footprint"`
	Prediction *predict.Prediction `json:"prediction,omitempty"`
}

// KindPredictor guesses a locality kind from raw text.
type KindPredictor interface {
	Predict(ctx context.Context, text string) (*predict.Prediction, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGeocoder sets the provider used when a request carries no footprint.
func WithGeocoder(p geocode.Provider) Option {
	return func(r *Resolver) { r.geocoder = p }
}

// WithPredictor sets the predictor used when a request has no kind.
func WithPredictor(p KindPredictor) Option {
	return func(r *Resolver) { r.predictor = p }
}

// WithDefaultDatum sets the datum assumed for inline footprints that name none.
func WithDefaultDatum(code string) Option {
	return func(r *Resolver) { r.defaultDatum = code }
}

// Resolver turns requests into georeferences. It is safe for concurrent use
// when its collaborators are.
type Resolver struct {
	engine       *georef.Engine
	geocoder     geocode.Provider
	predictor    KindPredictor
	defaultDatum string
}

// New creates a Resolver around engine.
func New(engine *georef.Engine, opts ...Option) *Resolver {
	r := &Resolver{engine: engine}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Engine returns the underlying engine.
func (r *Resolver) Engine() *georef.Engine { return r.engine }

// Resolve georeferences req.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Response, error) {
	resp := &Response{Kind: string(georef.ParseKind(req.Kind))}

	if strings.TrimSpace(req.Kind) == "" && r.predictor != nil && strings.TrimSpace(req.Locality) != "" {
		pred, err := r.predictor.Predict(ctx, req.Locality)
		if err != nil {
			return nil, err
		}
		resp.Prediction = pred
		resp.Kind = pred.Kind
	}

	parts := req.Parts
	loc := georef.Locality{Text: req.Locality, Kind: resp.Kind, Parts: &parts}

	fp, ok, err := r.footprint(ctx, req, resp.Kind)
	if err != nil {
		return nil, err
	}
	if ok {
		loc = loc.WithFootprint(fp)
		resp.Footprint = fp
	}

	g, err := r.engine.Georeference(loc)
	if err != nil {
		return nil, err
	}
	resp.Georeference = *g
	return resp, nil
}

func (r *Resolver) footprint(ctx context.Context, req Request, kind string) (georef.Footprint, bool, error) {
	switch {
	case req.Footprint != nil:
		return r.inline(*req.Footprint)
	case len(req.Geocode) > 0:
		res, err := geocode.ParseGoogleResponse(req.Geocode)
		if errors.Is(err, geocode.ErrNoMatch) {
			return georef.Footprint{}, false, geoerr.Invalid("feature", featureName(req, kind), "geocoder found no match")
		}
		if err != nil {
			return georef.Footprint{}, false, geoerr.Invalid("geocode", "", err.Error())
		}
		return res.Footprint(), true, nil
	case r.geocoder != nil:
		name := featureName(req, kind)
		if name == "" {
			return georef.Footprint{}, false, nil
		}
		res, err := r.geocoder.Lookup(ctx, name)
		if errors.Is(err, geocode.ErrNoMatch) {
			return georef.Footprint{}, false, geoerr.Invalid("feature", name, "geocoder found no match")
		}
		if err != nil {
			return georef.Footprint{}, false, err
		}
		zap.L().Debug("feature geocoded",
			zap.String("feature", name),
			zap.String("source", res.Source),
			zap.String("precision", res.Precision),
		)
		return res.Footprint(), true, nil
	default:
		return georef.Footprint{}, false, nil
	}
}

func (r *Resolver) inline(in FootprintInput) (georef.Footprint, bool, error) {
	raw := geodesy.Point{Lng: in.Lng, Lat: in.Lat}
	if !raw.Valid() {
		return georef.Footprint{}, false, geoerr.Invalid("footprint", raw.String(), "outside the coordinate range")
	}
	// Brings -180 onto 180 so the output stays within (-180, 180].
	center, err := geodesy.NewPoint(in.Lng, in.Lat)
	if err != nil {
		return georef.Footprint{}, false, geoerr.WithField(err, "footprint")
	}
	if in.Extent < 0 {
		return georef.Footprint{}, false, geoerr.Invalid("extent", "", "must not be negative")
	}

	fp := georef.NewFootprint(center, in.Bounds, in.Precision)
	if in.Extent > 0 {
		fp.Extent = in.Extent
	}
	fp.Datum = in.Datum
	if fp.Datum == "" {
		fp.Datum = r.defaultDatum
	}
	fp.Source = in.Source
	return fp, true, nil
}

// featureName is the name to geocode: the feature part, or the whole
// locality text for a feature-only description.
func featureName(req Request, kind string) string {
	if name := strings.TrimSpace(req.Feature); name != "" {
		return name
	}
	if georef.ParseKind(kind) == georef.KindFeature {
		return strings.TrimSpace(req.Locality)
	}
	return ""
}
