// Package uncertainty derives georeference error radii: the precision implied
// by how a distance was written, and the combined error of a
// feature-offset-heading locality.
package uncertainty

import (
	"math"
	"strings"
)

// Denominators tried, in order, when a fractional distance could be a
// fraction such as 1/2 or 3/8.
var fractionDenominators = []float64{2, 3, 4, 8, 10, 100, 1000}

// InferPrecision returns the uncertainty, in the distance's own unit, implied
// by the way text writes a distance: "10.0" is good to a tenth, "10.00" to a
// hundredth, "150" to ten, "2.5" to a half. The result is half the implied
// precision.
//
// text must be the distance as originally written. Non-numeric or negative
// input yields an InvalidInputError for field "offset_value".
func InferPrecision(text string) (float64, error) {
	v, err := ParseOffset(text)
	if err != nil {
		return 0, err
	}
	if v < 0.001 {
		return 0, nil
	}

	s := strings.TrimSpace(text)
	var digits int
	if i := strings.IndexByte(s, '.'); i >= 0 {
		digits = len(s) - i - 1
	}

	var u float64
	switch {
	case digits > 0 && s[len(s)-1] == '0':
		u = math.Pow(10, -float64(digits))
	case digits > 0:
		u = fractionPrecision(v)
	default:
		u = wholePrecision(v)
	}
	return u * 0.5, nil
}

// fractionPrecision returns 1/d for the first denominator d that turns the
// fractional part of v into a whole number, or 1 when none does.
func fractionPrecision(v float64) float64 {
	_, frac := math.Modf(v)
	for _, d := range fractionDenominators {
		_, num := math.Modf(frac * d)
		if num < 0.001 || math.Abs(num-1) < 0.001 {
			return 1 / d
		}
	}
	return 1
}

// wholePrecision returns the largest power of ten not above v that divides it.
func wholePrecision(v float64) float64 {
	p := math.Floor(math.Log10(v))
	for p > 0 && math.Mod(v, math.Pow(10, p)) > 0 {
		p--
	}
	return math.Pow(10, p)
}
