package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/sells-group/georef-cli/internal/batch"
	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/geoerr"
	"github.com/sells-group/georef-cli/internal/registry"
	"github.com/sells-group/georef-cli/internal/resolve"
	"github.com/sells-group/georef-cli/internal/uncertainty"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConstants(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.reg.Constants())
}

// TransformResponse is the reply of GET /v1/transform.
type TransformResponse struct {
	Input    geodesy.Point `json:"input"`
	Datum    string        `json:"datum"`
	Point    geodesy.Point `json:"point"`
	RMSError float64       `json:"rms_error"`
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := geodesy.ParseLat(q.Get("lat"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	lng, err := geodesy.ParseLng(q.Get("lng"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	in, err := geodesy.NewPoint(lng, lat)
	if err != nil {
		respondError(w, r, err)
		return
	}

	d, err := s.lookupDatum(q.Get("datum"), q.Get("epsg"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, TransformResponse{
		Input:    in,
		Datum:    d.Code,
		Point:    geodesy.ToWGS84(in, d),
		RMSError: d.RMSError,
	})
}

func (s *Server) lookupDatum(code, epsg string) (registry.Datum, error) {
	if epsg != "" {
		id, err := strconv.Atoi(epsg)
		if err != nil {
			return registry.Datum{}, geoerr.Invalid("epsg", epsg, "not an integer")
		}
		return s.reg.Datums.LookupEPSG(id)
	}
	if code == "" {
		return registry.Datum{}, geoerr.Missing("datum")
	}
	return s.reg.Datums.Lookup(code)
}

// PrecisionResponse is the reply of GET /v1/precision.
type PrecisionResponse struct {
	Value     string  `json:"value"`
	Precision float64 `json:"precision"`
	Unit      string  `json:"unit,omitempty"`
	Meters    float64 `json:"meters,omitempty"`
}

func (s *Server) handlePrecision(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	value := q.Get("value")
	if strings.TrimSpace(value) == "" {
		respondError(w, r, geoerr.Missing("value"))
		return
	}
	p, err := uncertainty.InferPrecision(value)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := PrecisionResponse{Value: value, Precision: p}
	if code := q.Get("unit"); code != "" {
		u, err := s.reg.Units.Lookup(code)
		if err != nil {
			respondError(w, r, geoerr.WithField(err, "unit"))
			return
		}
		resp.Unit = u.Code
		resp.Meters = u.ToMeters(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGeoreference(w http.ResponseWriter, r *http.Request) {
	var req resolve.Request
	if err := decodeBody(w, r, maxBodyBytes, &req); err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := s.resolver.Resolve(r.Context(), req)
	if err != nil {
		s.metrics.observeGeoreference(req.Kind, batch.Status(err))
		respondError(w, r, err)
		return
	}
	s.metrics.observeGeoreference(resp.Kind, batch.StatusOK)

	if r.URL.Query().Get("format") == "geojson" {
		data, err := resp.GeoJSON(s.geo)
		if err != nil {
			respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// BatchResponse is the reply of POST /v1/georeference/batch.
type BatchResponse struct {
	Summary batch.Summary  `json:"summary"`
	Results []batch.Result `json:"results"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []resolve.Request
	if err := decodeBody(w, r, maxBatchBytes, &reqs); err != nil {
		respondError(w, r, err)
		return
	}
	if len(reqs) == 0 {
		respondError(w, r, geoerr.Missing("records"))
		return
	}
	if len(reqs) > s.opts.MaxBatch {
		respondError(w, r, geoerr.Invalid("records", strconv.Itoa(len(reqs)),
			"more than "+strconv.Itoa(s.opts.MaxBatch)+" records"))
		return
	}
	s.metrics.batchRecords.Add(float64(len(reqs)))

	records := make([]batch.Record, len(reqs))
	for i, req := range reqs {
		records[i] = batch.Record{ID: strconv.Itoa(i + 1), Line: i + 1, Request: req}
	}

	results, sum, err := batch.Run(r.Context(), s.resolver, records, batch.Options{
		Concurrency: s.opts.BatchConcurrency,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	for _, res := range results {
		kind := ""
		if res.Response != nil {
			kind = res.Response.Kind
		}
		s.metrics.observeGeoreference(kind, res.Status)
	}
	respondJSON(w, http.StatusOK, BatchResponse{Summary: sum, Results: results})
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return geoerr.Invalid("body", "", err.Error())
	}
	return nil
}
