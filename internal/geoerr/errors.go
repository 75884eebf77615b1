// Package geoerr defines the typed error taxonomy shared by the georeferencing
// engine and its collaborators.
package geoerr

import (
	"errors"
	"fmt"
)

// InvalidInputError reports a malformed or missing request field. Field names
// the offending input so callers can surface it directly.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// Invalid builds an InvalidInputError for field.
func Invalid(field, value, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Value: value, Reason: reason}
}

// Missing reports a required field that was not supplied.
func Missing(field string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: "required"}
}

// NotFound reports a registry code that has no entry.
func NotFound(field, code string) *InvalidInputError {
	return &InvalidInputError{Field: field, Value: code, Reason: "not registered"}
}

// WithField re-labels an InvalidInputError with the caller's field name, so a
// registry miss on "unit" surfaces as "offset_unit". Other errors pass through.
func WithField(err error, field string) error {
	var ie *InvalidInputError
	if !errors.As(err, &ie) {
		return err
	}
	relabeled := *ie
	relabeled.Field = field
	return &relabeled
}

// UnsupportedKindError is returned for a recognized locality kind that has no
// georeferencing method.
type UnsupportedKindError struct {
	Kind string
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported locality kind %q", e.Kind)
}

// UpstreamError wraps a failure of a geocoding or prediction collaborator.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream wraps err as an UpstreamError for service.
func Upstream(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}

// IsInvalidInput reports whether err carries an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}

// IsUnsupportedKind reports whether err carries an UnsupportedKindError.
func IsUnsupportedKind(err error) bool {
	var ue *UnsupportedKindError
	return errors.As(err, &ue)
}

// IsUpstream reports whether err carries an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
