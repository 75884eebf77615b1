package batch

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
)

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{
	"id", "line", "locality", "kind", "lat", "lng", "error",
	"interpretation_feature", "interpretation_offset_value",
	"interpretation_offset_unit", "interpretation_heading",
	"status", "message",
}

// WriteCSV writes one row per result. Coordinates keep seven decimals and
// errors are rounded to whole meters.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return eris.Wrap(err, "batch: write csv header")
	}
	for _, r := range results {
		row := []string{r.ID, strconv.Itoa(r.Line), r.Locality, "", "", "", "", "", "", "", "", r.Status, r.Message}
		if resp := r.Response; resp != nil {
			row[3] = resp.Kind
			row[4] = strconv.FormatFloat(resp.Point.Lat, 'f', 7, 64)
			row[5] = strconv.FormatFloat(resp.Point.Lng, 'f', 7, 64)
			row[6] = strconv.FormatFloat(resp.Error, 'f', 0, 64)
			if in := resp.Interpretation; in != nil {
				row[7] = in.Feature
				row[8] = in.OffsetValue
				row[9] = in.OffsetUnit
				row[10] = in.Heading
			}
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "batch: write csv row %s", r.ID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "batch: flush csv")
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if results == nil {
		results = []Result{}
	}
	return eris.Wrap(enc.Encode(results), "batch: write json")
}
