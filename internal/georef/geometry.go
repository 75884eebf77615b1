package georef

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/georef-cli/internal/geodesy"
)

// SRID of every geometry produced here.
const SRID = 4326

// DefaultCircleSegments is the vertex count of an error circle polygon.
const DefaultCircleSegments = 64

// PointGeom returns the georeferenced point as a go-geom point.
func (g *Georeference) PointGeom() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{g.Point.Lng, g.Point.Lat}).SetSRID(SRID)
}

// ErrorCircle approximates the uncertainty circle as a closed polygon whose
// vertices lie Error meters from the point along geodesics of geo.
func (g *Georeference) ErrorCircle(geo geodesy.Geodesy, segments int) (*geom.Polygon, error) {
	if segments < 3 {
		segments = DefaultCircleSegments
	}
	if g.Error <= 0 {
		return nil, eris.New("georef: error circle needs a positive radius")
	}

	flat := make([]float64, 0, (segments+1)*2)
	for i := 0; i < segments; i++ {
		bearing := 360 * float64(i) / float64(segments)
		v := geo.Destination(g.Point, g.Error, bearing)
		flat = append(flat, v.Lng, v.Lat)
	}
	flat = append(flat, flat[0], flat[1])

	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(SRID), nil
}

// GeoJSON renders the georeference as a FeatureCollection holding the point
// and, when the radius is positive, its error circle. Both features carry the
// radius and interpretation as properties.
func (g *Georeference) GeoJSON(geo geodesy.Geodesy) ([]byte, error) {
	props := map[string]interface{}{
		"error": g.Error,
	}
	if g.Interpretation != nil {
		props["interpretation"] = g.Interpretation
	}

	fc := &geojson.FeatureCollection{
		Features: []*geojson.Feature{{
			ID:         "point",
			Geometry:   g.PointGeom(),
			Properties: props,
		}},
	}
	if g.Error > 0 {
		circle, err := g.ErrorCircle(geo, DefaultCircleSegments)
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         "error_circle",
			Geometry:   circle,
			Properties: props,
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "georef: encode GeoJSON")
	}
	return data, nil
}
