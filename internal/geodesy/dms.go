package geodesy

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/georef-cli/internal/geoerr"
)

// DegreesFromDMS converts degrees, minutes and seconds to decimal degrees.
// The sign of the result follows deg, including a negative zero.
func DegreesFromDMS(deg, min, sec float64) float64 {
	v := math.Abs(deg) + min/60 + sec/3600
	if math.Signbit(deg) {
		return -v
	}
	return v
}

// DegreesFromDM converts degrees and decimal minutes to decimal degrees.
func DegreesFromDM(deg, min float64) float64 {
	return DegreesFromDMS(deg, min, 0)
}

// LatFromDMS returns a signed latitude; hemisphere is N or S.
func LatFromDMS(deg, min, sec float64, hemisphere string) (float64, error) {
	return fromDMS(deg, min, sec, hemisphere, latAxis)
}

// LngFromDMS returns a signed longitude; hemisphere is E or W.
func LngFromDMS(deg, min, sec float64, hemisphere string) (float64, error) {
	return fromDMS(deg, min, sec, hemisphere, lngAxis)
}

// ParseLat reads a latitude written either as signed decimal degrees
// ("-37.8") or as degrees, minutes and seconds with a hemisphere letter
// ("37:48:00S", "37°48'0\" S", "S 37 48.0").
func ParseLat(s string) (float64, error) {
	return parseCoord(s, latAxis)
}

// ParseLng is ParseLat for longitudes; the hemisphere letter is E or W.
func ParseLng(s string) (float64, error) {
	return parseCoord(s, lngAxis)
}

type axis struct {
	field    string
	pos, neg string
	limit    float64
}

var (
	latAxis = axis{field: "lat", pos: "N", neg: "S", limit: 90}
	lngAxis = axis{field: "lng", pos: "E", neg: "W", limit: 180}
)

func fromDMS(deg, min, sec float64, hemisphere string, a axis) (float64, error) {
	if min < 0 || min >= 60 || sec < 0 || sec >= 60 {
		return 0, geoerr.Invalid(a.field, "", "minutes and seconds must be within [0, 60)")
	}
	v := DegreesFromDMS(math.Abs(deg), min, sec)
	switch strings.ToUpper(strings.TrimSpace(hemisphere)) {
	case a.pos:
	case a.neg:
		v = -v
	default:
		return 0, geoerr.Invalid("hemisphere", hemisphere, a.field+" hemisphere must be "+a.pos+" or "+a.neg)
	}
	if math.Abs(v) > a.limit {
		return 0, geoerr.Invalid(a.field, strconv.FormatFloat(v, 'f', -1, 64), "must be within ±"+strconv.FormatFloat(a.limit, 'f', -1, 64))
	}
	return v, nil
}

var dmsSeparators = strings.NewReplacer("°", " ", "º", " ", "'", " ", "′", " ", "\"", " ", "″", " ", ":", " ")

func parseCoord(s string, a axis) (float64, error) {
	text := strings.ToUpper(strings.TrimSpace(s))
	if text == "" {
		return 0, geoerr.Missing(a.field)
	}

	var hemisphere string
	for _, h := range []string{a.pos, a.neg} {
		if strings.HasPrefix(text, h) {
			hemisphere, text = h, text[len(h):]
		} else if strings.HasSuffix(text, h) {
			hemisphere, text = h, text[:len(text)-len(h)]
		}
		if hemisphere != "" {
			break
		}
	}

	fields := strings.Fields(dmsSeparators.Replace(text))
	if len(fields) == 0 || len(fields) > 3 {
		return 0, geoerr.Invalid(a.field, s, "not a coordinate")
	}
	parts := make([]float64, 3)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, geoerr.Invalid(a.field, s, "not a coordinate")
		}
		parts[i] = v
	}

	if hemisphere == "" {
		if len(fields) > 1 {
			return 0, geoerr.Invalid(a.field, s, "degrees and minutes need a hemisphere letter")
		}
		if math.Abs(parts[0]) > a.limit {
			return 0, geoerr.Invalid(a.field, s, "must be within ±"+strconv.FormatFloat(a.limit, 'f', -1, 64))
		}
		return parts[0], nil
	}
	if math.Signbit(parts[0]) {
		return 0, geoerr.Invalid(a.field, s, "a signed degree conflicts with the hemisphere letter")
	}
	return fromDMS(parts[0], parts[1], parts[2], hemisphere, a)
}
