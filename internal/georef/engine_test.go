package georef

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/geoerr"
	"github.com/sells-group/georef-cli/internal/registry"
)

func newTestEngine() *Engine {
	return NewEngine(registry.MustDefault())
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindFeature, ParseKind(""))
	assert.Equal(t, KindFeature, ParseKind(" F "))
	assert.Equal(t, KindFOH, ParseKind("FOH"))
	assert.Equal(t, Kind("paths"), ParseKind("paths"))
}

func TestLocality_WithFootprintCopies(t *testing.T) {
	loc := Locality{Text: "Springfield"}
	withFP := loc.WithFootprint(Footprint{Center: geodesy.Point{Lng: 1, Lat: 2}, Extent: 30})

	_, ok := loc.Footprint()
	assert.False(t, ok)

	fp, ok := withFP.Footprint()
	require.True(t, ok)
	assert.Equal(t, 30.0, fp.Extent)
}

func TestGeoreference_FeatureOnly(t *testing.T) {
	e := newTestEngine()
	center := geodesy.Point{Lng: -89.65, Lat: 39.78}

	for _, kind := range []string{"", "f"} {
		loc := Locality{Text: "Springfield", Kind: kind, Parts: &Parts{Feature: "Springfield"}}.
			WithFootprint(Footprint{Center: center, Extent: 12000})

		g, err := e.Georeference(loc)
		require.NoError(t, err)
		assert.Equal(t, center, g.Point)
		assert.Equal(t, 12000.0, g.Error)
		require.NotNil(t, g.Interpretation)
		assert.Equal(t, "Springfield", g.Interpretation.Feature)
	}
}

func TestGeoreference_FeatureMissingFootprint(t *testing.T) {
	_, err := newTestEngine().Georeference(Locality{Text: "Springfield"})
	var ie *geoerr.InvalidInputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "feature", ie.Field)
}

func TestGeoreference_FOHWestOfOrigin(t *testing.T) {
	origin := geodesy.Point{Lng: 0, Lat: 0}
	loc := Locality{
		Text:  "5 mi W of Null Island",
		Kind:  "foh",
		Parts: &Parts{Feature: "Null Island", OffsetValue: "5", OffsetUnit: "mile", Heading: "west"},
	}.WithFootprint(Footprint{Center: origin, Extent: 1000})

	g, err := newTestEngine().Georeference(loc)
	require.NoError(t, err)

	assert.Less(t, g.Point.Lng, 0.0)
	assert.InDelta(t, 0, g.Point.Lat, 1e-7)
	assert.InDelta(t, 5*1609.344, geodesy.Haversine(origin, g.Point), 0.5)

	assert.Greater(t, g.Error, 0.0)
	assert.False(t, math.IsInf(g.Error, 0) || math.IsNaN(g.Error))
	assert.InDelta(t, 7049.322517719961, g.Error, 1e-6)

	require.NotNil(t, g.Interpretation)
	assert.Equal(t, Interpretation{
		Feature:     "Null Island",
		OffsetUnit:  "mile",
		OffsetValue: "5",
		Heading:     "W",
	}, *g.Interpretation)
}

func TestGeoreference_FOHMissingFields(t *testing.T) {
	fp := Footprint{Center: geodesy.Point{Lng: 10, Lat: 10}, Extent: 100}
	full := Parts{Feature: "X", OffsetValue: "3", OffsetUnit: "km", Heading: "N"}

	tests := []struct {
		name   string
		mutate func(p *Parts)
		noFP   bool
		field  string
	}{
		{"offset", func(p *Parts) { p.OffsetValue = "" }, false, "offset_value"},
		{"unit", func(p *Parts) { p.OffsetUnit = "" }, false, "offset_unit"},
		{"heading", func(p *Parts) { p.Heading = "" }, false, "heading"},
		{"footprint", func(p *Parts) {}, true, "feature"},
		{"unknown unit", func(p *Parts) { p.OffsetUnit = "furlong" }, false, "offset_unit"},
		{"unknown heading", func(p *Parts) { p.Heading = "sideways" }, false, "heading"},
		{"bad offset", func(p *Parts) { p.OffsetValue = "-2" }, false, "offset_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := full
			tt.mutate(&parts)
			loc := Locality{Kind: "foh", Parts: &parts}
			if !tt.noFP {
				loc = loc.WithFootprint(fp)
			}

			_, err := newTestEngine().Georeference(loc)
			var ie *geoerr.InvalidInputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)
		})
	}

	_, err := newTestEngine().Georeference(Locality{Kind: "foh"}.WithFootprint(fp))
	assert.True(t, geoerr.IsInvalidInput(err))
}

func TestGeoreference_UnsupportedKind(t *testing.T) {
	loc := Locality{Text: "between A and B", Kind: "paths"}.
		WithFootprint(Footprint{Center: geodesy.Point{}, Extent: 10})

	_, err := newTestEngine().Georeference(loc)
	var ue *geoerr.UnsupportedKindError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "paths", ue.Kind)
	assert.False(t, geoerr.IsInvalidInput(err))
}

func TestGeoreference_DatumAndSource(t *testing.T) {
	reg := registry.MustDefault()
	center := geodesy.Point{Lng: 144.966666667, Lat: -37.8}

	loc := Locality{}.WithFootprint(Footprint{
		Center: center,
		Extent: 100,
		Datum:  "AGD84",
		Source: "usgs 1:24000",
	})
	g, err := NewEngine(reg).Georeference(loc)
	require.NoError(t, err)

	d, err := reg.Datums.Lookup("AGD84")
	require.NoError(t, err)
	assert.InDelta(t, 144.96798636, g.Point.Lng, 1e-7)
	assert.InDelta(t, -37.79848035, g.Point.Lat, 1e-7)
	assert.InDelta(t, 100+d.RMSError+40*0.3048, g.Error, 1e-9)

	_, err = NewEngine(reg).Georeference(Locality{}.WithFootprint(Footprint{Center: center, Datum: "MARS"}))
	assert.True(t, geoerr.IsInvalidInput(err))
}

func TestGeoreference_Deterministic(t *testing.T) {
	loc := Locality{Kind: "foh", Parts: &Parts{OffsetValue: "2.5", OffsetUnit: "km", Heading: "NE"}}.
		WithFootprint(Footprint{Center: geodesy.Point{Lng: -70.1, Lat: 42.3}, Extent: 350})

	e := newTestEngine()
	a, err := e.Georeference(loc)
	require.NoError(t, err)
	b, err := e.Georeference(loc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGeoreference_Ellipsoidal(t *testing.T) {
	e := NewEngine(registry.MustDefault(), WithGeodesy(geodesy.NewEllipsoidal()))
	loc := Locality{Kind: "foh", Parts: &Parts{OffsetValue: "10", OffsetUnit: "km", Heading: "E"}}.
		WithFootprint(Footprint{Center: geodesy.Point{Lng: 0, Lat: 0}, Extent: 10})

	g, err := e.Georeference(loc)
	require.NoError(t, err)
	assert.Greater(t, g.Point.Lng, 0.0)
	assert.InDelta(t, 10000, geodesy.Haversine(geodesy.Point{}, g.Point), 50)
}

func TestGeoreference_JSONShape(t *testing.T) {
	g := &Georeference{Point: geodesy.Point{Lng: 1.5, Lat: -2.25}, Error: 42}
	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"point":{"lat":-2.25,"lng":1.5},"error":42}`, string(data))

	g.Interpretation = &Interpretation{Feature: "X", OffsetUnit: "mile", OffsetValue: "5", Heading: "W"}
	data, err = json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"point":{"lat":-2.25,"lng":1.5},"error":42,
		"interpretation":{"feature":"X","offset_unit":"mile","offset_value":"5","heading":"W"}}`, string(data))
}

func TestNewFootprint(t *testing.T) {
	center := geodesy.Point{Lng: 5, Lat: 5}
	assert.Equal(t, geodesy.DefaultRadiusRooftop, NewFootprint(center, nil, geodesy.PrecisionRooftop).Extent)
	assert.Equal(t, geodesy.DefaultRadiusOther, NewFootprint(center, nil, "GEOMETRIC_CENTER").Extent)

	b := &geodesy.Bounds{NE: geodesy.Point{Lng: 5.01, Lat: 5.01}, SW: geodesy.Point{Lng: 4.99, Lat: 4.99}}
	assert.InDelta(t, geodesy.Haversine(center, b.NE), NewFootprint(center, b, "").Extent, 1e-6)
}
