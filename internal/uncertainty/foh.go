package uncertainty

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/georef-cli/internal/geoerr"
	"github.com/sells-group/georef-cli/internal/registry"
)

// FOHError returns the uncertainty radius in meters of a point offset from a
// feature: the feature extent plus the offset's textual precision, swept
// through the heading's angular error.
func FOHError(units *registry.UnitRegistry, headings *registry.HeadingRegistry,
	extent float64, offsetText, unitCode, headingCode string) (float64, error) {
	if strings.TrimSpace(offsetText) == "" {
		return 0, geoerr.Missing("offset_value")
	}
	if strings.TrimSpace(unitCode) == "" {
		return 0, geoerr.Missing("offset_unit")
	}
	if strings.TrimSpace(headingCode) == "" {
		return 0, geoerr.Missing("heading")
	}
	if extent < 0 || math.IsNaN(extent) || math.IsInf(extent, 0) {
		return 0, geoerr.Invalid("extent", strconv.FormatFloat(extent, 'g', -1, 64), "must be a non-negative number")
	}

	unit, err := units.Lookup(unitCode)
	if err != nil {
		return 0, geoerr.WithField(err, "offset_unit")
	}
	heading, err := headings.Lookup(headingCode)
	if err != nil {
		return 0, geoerr.WithField(err, "heading")
	}
	precision, err := InferPrecision(offsetText)
	if err != nil {
		return 0, err
	}
	offset, err := ParseOffset(offsetText)
	if err != nil {
		return 0, err
	}

	start := extent + unit.ToMeters(precision)
	return DirectionError(start, unit.ToMeters(offset), heading.Error), nil
}

// DirectionError spreads startError along an offset of offsetMeters whose
// direction is uncertain by headingError degrees either way. The result is the
// distance from the nominal point to the far corner of the error wedge.
func DirectionError(startError, offsetMeters, headingError float64) float64 {
	theta := headingError * math.Pi / 180
	x := offsetMeters * math.Cos(theta)
	y := offsetMeters * math.Sin(theta)
	xp := offsetMeters + startError
	return math.Hypot(xp-x, y)
}

// ParseOffset reads a non-negative decimal offset magnitude. Commas are
// rejected: "1,000" and "1,5" are ambiguous between a thousands separator and
// a decimal comma.
func ParseOffset(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, geoerr.Invalid("offset_value", text, "not a decimal number")
	}
	if v < 0 {
		return 0, geoerr.Invalid("offset_value", text, "must not be negative")
	}
	return v, nil
}
