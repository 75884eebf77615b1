package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/geoerr"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// Error codes.
const (
	CodeInvalidInput    = "invalid_input"
	CodeUnsupportedKind = "unsupported_kind"
	CodeUpstream        = "upstream_unavailable"
	CodeInternal        = "internal"
)

// classify maps an error to its HTTP status and reply body.
func classify(err error) (int, ErrorResponse) {
	var (
		ie *geoerr.InvalidInputError
		ke *geoerr.UnsupportedKindError
		ue *geoerr.UpstreamError
	)
	switch {
	case errors.As(err, &ie):
		return http.StatusBadRequest, ErrorResponse{Error: ie.Error(), Code: CodeInvalidInput, Field: ie.Field}
	case errors.As(err, &ke):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: ke.Error(), Code: CodeUnsupportedKind, Kind: ke.Kind}
	case errors.As(err, &ue):
		return http.StatusBadGateway, ErrorResponse{Error: ue.Service + " unavailable", Code: CodeUpstream}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: CodeInternal}
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)

	log := zap.L().With(
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	if status >= http.StatusInternalServerError {
		log.Error("api: request failed")
	} else {
		log.Debug("api: request rejected")
	}

	respondJSON(w, status, body)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
