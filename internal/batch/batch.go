// Package batch georeferences every row of a locality table.
package batch

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/georef-cli/internal/fetcher"
	"github.com/sells-group/georef-cli/internal/geoerr"
	"github.com/sells-group/georef-cli/internal/georef"
	"github.com/sells-group/georef-cli/internal/resolve"
)

// Row statuses.
const (
	StatusOK          = "ok"
	StatusInvalid     = "invalid"
	StatusUnsupported = "unsupported"
	StatusUpstream    = "upstream"
	StatusError       = "error"
)

// DefaultConcurrency bounds in-flight rows when Options leaves it unset.
const DefaultConcurrency = 4

// Input column names, matched case-insensitively.
const (
	ColID          = "id"
	ColLocality    = "locality"
	ColKind        = "kind"
	ColFeature     = "feature"
	ColOffsetValue = "offset_value"
	ColOffsetUnit  = "offset_unit"
	ColHeading     = "heading"
	ColLat         = "lat"
	ColLng         = "lng"
	ColExtent      = "extent"
	ColPrecision   = "precision"
	ColDatum       = "datum"
	ColSource      = "source"
)

// Resolver georeferences one request.
type Resolver interface {
	Resolve(ctx context.Context, req resolve.Request) (*resolve.Response, error)
}

// Record is one input row ready to resolve.
type Record struct {
	ID      string
	Line    int
	Request resolve.Request
	// Err is set when the row itself could not be parsed.
	Err error
}

// Result is the outcome for one record.
type Result struct {
	ID       string            `json:"id"`
	Line     int               `json:"line"`
	Locality string            `json:"locality"`
	Status   string            `json:"status"`
	Message  string            `json:"message,omitempty"`
	Response *resolve.Response `json:"result,omitempty"`
}

// Summary counts results by status.
type Summary struct {
	Total    int           `json:"total"`
	OK       int64         `json:"ok"`
	Failed   int64         `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Options tune a batch run.
type Options struct {
	Concurrency int
	// Limit caps the number of records processed; zero means all.
	Limit int
}

// Records maps table rows to records. A locality column is required. Rows
// without an id get a generated one; line numbers count the header as 1.
func Records(t *fetcher.Table) ([]Record, error) {
	cols := make(map[string]int)
	for _, name := range []string{
		ColID, ColLocality, ColKind, ColFeature, ColOffsetValue, ColOffsetUnit,
		ColHeading, ColLat, ColLng, ColExtent, ColPrecision, ColDatum, ColSource,
	} {
		cols[name] = t.Column(name)
	}
	if cols[ColLocality] < 0 {
		return nil, eris.New("batch: input has no locality column")
	}

	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		get := func(name string) string {
			idx := cols[name]
			if idx < 0 || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		rec := Record{ID: get(ColID), Line: i + 2}
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		rec.Request = resolve.Request{
			Locality: get(ColLocality),
			Kind:     get(ColKind),
			Parts: georef.Parts{
				Feature:     get(ColFeature),
				OffsetValue: get(ColOffsetValue),
				OffsetUnit:  get(ColOffsetUnit),
				Heading:     get(ColHeading),
			},
		}
		rec.Request.Footprint, rec.Err = footprint(get)
		records = append(records, rec)
	}
	return records, nil
}

// footprint reads the optional inline footprint columns. Both lat and lng
// must be present for a footprint to be used.
func footprint(get func(string) string) (*resolve.FootprintInput, error) {
	lat, lng := get(ColLat), get(ColLng)
	if lat == "" && lng == "" {
		return nil, nil
	}
	if lat == "" {
		return nil, geoerr.Missing(ColLat)
	}
	if lng == "" {
		return nil, geoerr.Missing(ColLng)
	}

	fp := &resolve.FootprintInput{
		Precision: get(ColPrecision),
		Datum:     get(ColDatum),
		Source:    get(ColSource),
	}
	var err error
	if fp.Lat, err = parseFloat(ColLat, lat); err != nil {
		return nil, err
	}
	if fp.Lng, err = parseFloat(ColLng, lng); err != nil {
		return nil, err
	}
	if ext := get(ColExtent); ext != "" {
		if fp.Extent, err = parseFloat(ColExtent, ext); err != nil {
			return nil, err
		}
	}
	return fp, nil
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, geoerr.Invalid(field, s, "not a number")
	}
	return v, nil
}

// Run resolves records concurrently. Per-record failures are reported in
// the results, which keep input order; only cancellation fails the run.
func Run(ctx context.Context, r Resolver, records []Record, opts Options) ([]Result, Summary, error) {
	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	start := time.Now()
	log := zap.L().With(zap.Int("records", len(records)), zap.Int("concurrency", concurrency))
	log.Info("batch: starting")

	results := make([]Result, len(records))
	var ok, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res := Result{ID: rec.ID, Line: rec.Line, Locality: rec.Request.Locality}
			err := rec.Err
			if err == nil {
				res.Response, err = r.Resolve(gctx, rec.Request)
			}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				res.Status = Status(err)
				res.Message = err.Error()
				failed.Add(1)
				log.Warn("batch: record failed",
					zap.String("id", rec.ID),
					zap.Int("line", rec.Line),
					zap.String("status", res.Status),
					zap.Error(err),
				)
			} else {
				res.Status = StatusOK
				ok.Add(1)
			}
			results[i] = res
			return nil
		})
	}

	sum := Summary{Total: len(records)}
	if err := g.Wait(); err != nil {
		return nil, sum, eris.Wrap(err, "batch: run")
	}

	sum.OK = ok.Load()
	sum.Failed = failed.Load()
	sum.Duration = time.Since(start)
	log.Info("batch: complete",
		zap.Int64("ok", sum.OK),
		zap.Int64("failed", sum.Failed),
		zap.Duration("duration", sum.Duration),
	)
	return results, sum, nil
}

// Status classifies a resolve error.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case geoerr.IsInvalidInput(err):
		return StatusInvalid
	case geoerr.IsUnsupportedKind(err):
		return StatusUnsupported
	case geoerr.IsUpstream(err):
		return StatusUpstream
	default:
		return StatusError
	}
}
