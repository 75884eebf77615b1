package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/db"
	"github.com/sells-group/georef-cli/internal/geodesy"
)

const gazetteerSRID = 4326

// PostGISProvider looks features up in a PostGIS gazetteer table created by
// EnsureGazetteer.
type PostGISProvider struct {
	pool  db.Pool
	table string
}

// NewPostGISProvider creates a provider over the given table.
func NewPostGISProvider(pool db.Pool, table string) *PostGISProvider {
	return &PostGISProvider{pool: pool, table: table}
}

// Name implements Provider.
func (p *PostGISProvider) Name() string { return "postgis" }

// Lookup implements Provider.
func (p *PostGISProvider) Lookup(ctx context.Context, query string) (*Result, error) {
	if err := checkQuery(query); err != nil {
		return nil, err
	}

	row := p.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT name, precision,
			ST_X(ST_Centroid(geom)), ST_Y(ST_Centroid(geom)),
			ST_XMin(geom), ST_YMin(geom), ST_XMax(geom), ST_YMax(geom)
		FROM %s
		WHERE name_key = $1`, db.QuoteTable(p.table)),
		NameKey(query),
	)

	var (
		name, precision        string
		lng, lat               float64
		minX, minY, maxX, maxY float64
	)
	if err := row.Scan(&name, &precision, &lng, &lat, &minX, &minY, &maxX, &maxY); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoMatch
		}
		return nil, eris.Wrapf(err, "geocode: postgis lookup %q", query)
	}

	center, err := geodesy.NewPoint(lng, lat)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: postgis centroid of %q", name)
	}
	r := &Result{Name: name, Center: center, Precision: precision, Source: "postgis"}
	if minX != maxX || minY != maxY {
		r.Bounds = &geodesy.Bounds{
			NE: geodesy.Point{Lng: maxX, Lat: maxY},
			SW: geodesy.Point{Lng: minX, Lat: minY},
		}
	}
	return r, nil
}

// EnsureGazetteer creates the gazetteer table and its spatial index.
func EnsureGazetteer(ctx context.Context, pool db.Pool, table string) error {
	quoted := db.QuoteTable(table)
	if _, err := pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name_key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			precision TEXT NOT NULL DEFAULT 'APPROXIMATE',
			geom geometry(Geometry, 4326) NOT NULL
		)`, quoted)); err != nil {
		return eris.Wrapf(err, "geocode: create gazetteer table %s", table)
	}

	index := pgx.Identifier{"idx_" + sanitizeIndexName(table) + "_geom"}.Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s USING gist (geom)", index, quoted)); err != nil {
		return eris.Wrapf(err, "geocode: create gazetteer index on %s", table)
	}
	return nil
}

func sanitizeIndexName(table string) string {
	out := []byte(table)
	for i, c := range out {
		if c == '.' {
			out[i] = '_'
		}
	}
	return string(out)
}

// LoadGazetteer upserts features into the gazetteer table keyed by NameKey.
// Later features with the same key overwrite earlier ones.
func LoadGazetteer(ctx context.Context, pool db.Pool, table string, features []Feature) (int64, error) {
	rows := make([][]any, 0, len(features))
	seen := make(map[string]int, len(features))
	for _, f := range features {
		wkb, err := EncodeEWKB(f.Geometry)
		if err != nil {
			return 0, eris.Wrapf(err, "geocode: encode %q", f.Name)
		}
		if wkb == nil {
			continue
		}
		precision := f.Precision
		if precision == "" {
			precision = PrecisionApproximate
		}
		key := NameKey(f.Name)
		row := []any{key, f.Name, precision, wkb}
		// COPY into a staging table cannot carry duplicate conflict keys
		// into one INSERT ... ON CONFLICT statement.
		if i, ok := seen[key]; ok {
			rows[i] = row
			continue
		}
		seen[key] = len(rows)
		rows = append(rows, row)
	}

	n, err := db.BulkUpsert(ctx, pool, db.UpsertConfig{
		Table:        table,
		Columns:      []string{"name_key", "name", "precision", "geom"},
		ConflictKeys: []string{"name_key"},
		Staging:      []string{"name_key text", "name text", "precision text", "wkb bytea"},
		Select:       []string{`"name_key"`, `"name"`, `"precision"`, `ST_GeomFromEWKB("wkb")`},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "geocode: load gazetteer")
	}

	zap.L().Info("gazetteer loaded",
		zap.String("table", table),
		zap.Int("features", len(features)),
		zap.Int64("rows", n),
	)
	return n, nil
}

// EncodeEWKB converts an orb geometry to EWKB with SRID 4326. Unsupported or
// empty geometries encode to nil.
func EncodeEWKB(g orb.Geometry) ([]byte, error) {
	t := toGeom(g)
	if t == nil {
		return nil, nil
	}
	data, err := ewkb.Marshal(t, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: encode EWKB")
	}
	return data, nil
}

func toGeom(g orb.Geometry) geom.T {
	switch v := g.(type) {
	case orb.Point:
		return geom.NewPointFlat(geom.XY, []float64{v.X(), v.Y()}).SetSRID(gazetteerSRID)
	case orb.MultiPoint:
		if len(v) == 0 {
			return nil
		}
		return geom.NewMultiPointFlat(geom.XY, flatten(v)).SetSRID(gazetteerSRID)
	case orb.MultiLineString:
		mls := geom.NewMultiLineString(geom.XY).SetSRID(gazetteerSRID)
		for i, ls := range v {
			if err := mls.Push(geom.NewLineStringFlat(geom.XY, flatten(ls))); err != nil {
				zap.L().Debug("geocode: skipping malformed linestring", zap.Int("part", i), zap.Error(err))
			}
		}
		if mls.NumLineStrings() == 0 {
			return nil
		}
		return mls
	case orb.MultiPolygon:
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(gazetteerSRID)
		for i, poly := range v {
			p := geom.NewPolygon(geom.XY)
			for _, ring := range poly {
				if err := p.Push(geom.NewLinearRingFlat(geom.XY, flatten(ring))); err != nil {
					zap.L().Debug("geocode: skipping malformed ring", zap.Int("part", i), zap.Error(err))
				}
			}
			if p.NumLinearRings() == 0 {
				continue
			}
			if err := mp.Push(p); err != nil {
				zap.L().Debug("geocode: skipping malformed polygon", zap.Int("part", i), zap.Error(err))
			}
		}
		if mp.NumPolygons() == 0 {
			return nil
		}
		return mp
	default:
		return nil
	}
}

func flatten[P ~[]orb.Point](pts P) []float64 {
	flat := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		flat = append(flat, p.X(), p.Y())
	}
	return flat
}
