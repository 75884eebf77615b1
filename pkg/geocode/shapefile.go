package geocode

import (
	"context"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/geodesy"
)

// Feature is a named gazetteer geometry in WGS84 longitude/latitude.
type Feature struct {
	Name      string
	Precision string
	Geometry  orb.Geometry
}

// Result derives the feature's center and bounding box. Lines and polygons
// are centered on their planar centroid; a single point has no bounds.
func (f Feature) Result(source string) (*Result, error) {
	c, _ := planar.CentroidArea(f.Geometry)
	center, err := geodesy.NewPoint(c.X(), c.Y())
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: centroid of %q", f.Name)
	}

	r := &Result{
		Name:      f.Name,
		Center:    center,
		Precision: f.Precision,
		Source:    source,
	}
	if b := f.Geometry.Bound(); b.Min != b.Max {
		r.Bounds = &geodesy.Bounds{
			NE: geodesy.Point{Lng: b.Max.X(), Lat: b.Max.Y()},
			SW: geodesy.Point{Lng: b.Min.X(), Lat: b.Min.Y()},
		}
	}
	return r, nil
}

// ReadShapefile reads every named shape from a shapefile whose coordinates are
// WGS84 longitude/latitude. Records with an empty name or an unsupported shape
// type are skipped.
func ReadShapefile(path, nameField string) ([]Feature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, nameField)
	if nameIdx < 0 {
		return nil, eris.Errorf("geocode: shapefile %s has no field %q", path, nameField)
	}

	var features []Feature
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		g := shapeToOrb(shape)
		if name == "" || g == nil {
			skipped++
			continue
		}
		features = append(features, Feature{
			Name:      name,
			Precision: PrecisionApproximate,
			Geometry:  g,
		})
	}

	zap.L().Debug("geocode: read shapefile",
		zap.String("path", path),
		zap.Int("features", len(features)),
		zap.Int("skipped", skipped),
	)
	return features, nil
}

func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// shapeToOrb converts a go-shp shape. Each polygon part becomes its own
// polygon, matching how TIGER-style shapefiles store one ring per part.
func shapeToOrb(shape shp.Shape) orb.Geometry {
	switch s := shape.(type) {
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	case *shp.MultiPoint:
		if len(s.Points) == 0 {
			return nil
		}
		mp := make(orb.MultiPoint, len(s.Points))
		for i, p := range s.Points {
			mp[i] = orb.Point{p.X, p.Y}
		}
		return mp
	case *shp.PolyLine:
		var mls orb.MultiLineString
		for _, part := range splitParts(s.Parts, s.Points) {
			if len(part) >= 2 {
				mls = append(mls, orb.LineString(part))
			}
		}
		if len(mls) == 0 {
			return nil
		}
		return mls
	case *shp.Polygon:
		var mp orb.MultiPolygon
		for _, part := range splitParts(s.Parts, s.Points) {
			if len(part) >= 4 {
				mp = append(mp, orb.Polygon{orb.Ring(part)})
			}
		}
		if len(mp) == 0 {
			return nil
		}
		return mp
	default:
		return nil
	}
}

func splitParts(parts []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || end > int32(len(points)) {
			continue
		}
		pts := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			pts = append(pts, orb.Point{p.X, p.Y})
		}
		out = append(out, pts)
	}
	return out
}

// ShapefileProvider answers lookups from a shapefile held in memory.
type ShapefileProvider struct {
	path  string
	index map[string]*Result
}

// OpenShapefile loads a shapefile gazetteer keyed by nameField. When two
// records share a name the first one wins.
func OpenShapefile(path, nameField string) (*ShapefileProvider, error) {
	features, err := ReadShapefile(path, nameField)
	if err != nil {
		return nil, err
	}

	p := &ShapefileProvider{path: path, index: make(map[string]*Result, len(features))}
	for _, f := range features {
		key := NameKey(f.Name)
		if _, dup := p.index[key]; dup {
			continue
		}
		r, err := f.Result("shapefile")
		if err != nil {
			zap.L().Debug("geocode: skipping shapefile feature", zap.String("name", f.Name), zap.Error(err))
			continue
		}
		p.index[key] = r
	}
	return p, nil
}

// Name implements Provider.
func (p *ShapefileProvider) Name() string { return "shapefile" }

// Len returns the number of indexed names.
func (p *ShapefileProvider) Len() int { return len(p.index) }

// Lookup implements Provider.
func (p *ShapefileProvider) Lookup(_ context.Context, query string) (*Result, error) {
	if err := checkQuery(query); err != nil {
		return nil, err
	}
	r, ok := p.index[NameKey(query)]
	if !ok {
		return nil, ErrNoMatch
	}
	out := *r
	return &out, nil
}
