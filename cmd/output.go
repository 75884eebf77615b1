package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/georef-cli/internal/geodesy"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseLatLng reads coordinate flags given in decimal degrees or as
// degrees/minutes/seconds with a hemisphere letter, e.g. 37:48:00S.
func parseLatLng(lat, lng string) (float64, float64, error) {
	la, err := geodesy.ParseLat(lat)
	if err != nil {
		return 0, 0, err
	}
	lo, err := geodesy.ParseLng(lng)
	if err != nil {
		return 0, 0, err
	}
	return la, lo, nil
}
