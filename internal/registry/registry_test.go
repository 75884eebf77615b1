package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/georef-cli/internal/geoerr"
)

func TestDefault_LoadsEmbeddedTables(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	assert.Len(t, reg.Units.All(), 6)
	assert.Len(t, reg.Headings.All(), 32)
	assert.Len(t, reg.Datums.All(), 38)
	assert.Len(t, reg.Sources.All(), 27)

	again := MustDefault()
	assert.Same(t, reg, again)
}

func TestUnitLookup(t *testing.T) {
	units := MustDefault().Units

	tests := []struct {
		input  string
		code   string
		meters float64
	}{
		{"mi", "mile", 1609.344},
		{"Miles", "mile", 1609.344},
		{"km", "kilometer", 1000},
		{"  M ", "meter", 1},
		{"ft", "foot", 0.3048},
		{"yds", "yard", 0.9144},
		{"nautical mile", "nautical mile", 1852},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			u, err := units.Lookup(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.code, u.Code)
			assert.InDelta(t, tt.meters, u.Meters, 1e-9)
		})
	}
}

func TestUnitLookup_Unknown(t *testing.T) {
	_, err := MustDefault().Units.Lookup("furlong")
	require.Error(t, err)

	var ie *geoerr.InvalidInputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "unit", ie.Field)
	assert.Equal(t, "furlong", ie.Value)
}

func TestUnitConvert(t *testing.T) {
	units := MustDefault().Units

	v, err := units.Convert(1, "mile", "foot")
	require.NoError(t, err)
	assert.InDelta(t, 5280, v, 1e-9)

	v, err = units.Convert(2.5, "km", "km")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = units.Convert(1, "mile", "league")
	assert.True(t, geoerr.IsInvalidInput(err))
}

func TestHeadingLookup(t *testing.T) {
	headings := MustDefault().Headings

	tests := []struct {
		input   string
		code    string
		bearing float64
		errDeg  float64
	}{
		{"W", "W", 270, 45},
		{"west", "W", 270, 45},
		{"N.N.E.", "NNE", 22.5, 11.25},
		{"north-northeast", "NNE", 22.5, 11.25},
		{"North Northeast", "NNE", 22.5, 11.25},
		{"se", "SE", 135, 22.5},
		{"NbE", "NbE", 11.25, 5.625},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h, err := headings.Lookup(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.code, h.Code)
			assert.InDelta(t, tt.bearing, h.Bearing, 1e-9)
			assert.InDelta(t, tt.errDeg, h.Error, 1e-9)
		})
	}

	_, err := headings.Lookup("up")
	assert.True(t, geoerr.IsInvalidInput(err))
}

func TestHeadings_EvenlySpaced(t *testing.T) {
	all := MustDefault().Headings.All()
	for i, h := range all {
		assert.InDelta(t, float64(i)*11.25, h.Bearing, 1e-9, h.Code)
	}
}

func TestDatumLookup(t *testing.T) {
	datums := MustDefault().Datums

	d, err := datums.Lookup("agd66")
	require.NoError(t, err)
	assert.Equal(t, "AGD66", d.Code)
	assert.Equal(t, 4202, d.EPSG)
	assert.Equal(t, []float64{-133, -48, 148}, []float64{d.DX, d.DY, d.DZ})

	byName, err := datums.Lookup("north american datum 1927 (conus)")
	require.NoError(t, err)
	assert.Equal(t, "NAD27", byName.Code)

	byEPSG, err := datums.LookupEPSG(4203)
	require.NoError(t, err)
	assert.Equal(t, "AGD84", byEPSG.Code)

	_, err = datums.LookupEPSG(9999)
	var ie *geoerr.InvalidInputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "epsg", ie.Field)

	_, err = datums.Lookup("MARS2000")
	assert.True(t, geoerr.IsInvalidInput(err))
}

func TestDatumWGS84(t *testing.T) {
	w := MustDefault().Datums.WGS84()
	assert.True(t, w.IsWGS84())
	assert.Equal(t, WGS84SemiMajorAxis, w.SemiMajorAxis)
	assert.Equal(t, WGS84InverseFlattening, w.InverseFlattening)
	assert.Equal(t, WGS84EPSG, w.EPSG)
	assert.InDelta(t, 1/298.257223563, w.Flattening(), 1e-15)
}

func TestNewDatumRegistry_Validation(t *testing.T) {
	wgs := Datum{Code: "WGS84", SemiMajorAxis: WGS84SemiMajorAxis, InverseFlattening: WGS84InverseFlattening, EPSG: 4326}

	tests := []struct {
		name   string
		datums []Datum
	}{
		{"missing wgs84", []Datum{{Code: "X", SemiMajorAxis: 1, InverseFlattening: 300}}},
		{"bad wgs84 params", []Datum{{Code: "WGS84", SemiMajorAxis: 6378135, InverseFlattening: WGS84InverseFlattening}}},
		{"zero axis", []Datum{wgs, {Code: "X", InverseFlattening: 300}}},
		{"bad flattening", []Datum{wgs, {Code: "X", SemiMajorAxis: 6378000, InverseFlattening: 0}}},
		{"no code", []Datum{wgs, {SemiMajorAxis: 6378000, InverseFlattening: 300}}},
		{"duplicate code", []Datum{wgs, wgs}},
		{"duplicate epsg", []Datum{wgs, {Code: "X", SemiMajorAxis: 6378000, InverseFlattening: 300, EPSG: 4326}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDatumRegistry(tt.datums)
			assert.Error(t, err)
		})
	}
}

func TestSources_MetersFromUnit(t *testing.T) {
	sources := MustDefault().Sources

	s, err := sources.Lookup("USGS 1:24000")
	require.NoError(t, err)
	assert.InDelta(t, 40*0.3048, s.Meters, 1e-9)

	gps, err := sources.Lookup("gps")
	require.NoError(t, err)
	assert.Zero(t, gps.Meters)

	nts, err := sources.Lookup("nts c 1:250000")
	require.NoError(t, err)
	assert.InDelta(t, 375, nts.Meters, 1e-9)

	_, err = sources.Lookup("satellite")
	assert.True(t, geoerr.IsInvalidInput(err))
}

func TestNewSourceRegistry_UnknownUnit(t *testing.T) {
	_, err := NewSourceRegistry([]CoordinateSource{{Code: "x", Error: 1, Unit: "cubit"}}, MustDefault().Units)
	assert.Error(t, err)
}

func TestNewUnitRegistry_FormConflict(t *testing.T) {
	_, err := NewUnitRegistry([]DistanceUnit{
		{Code: "meter", Meters: 1, Forms: []string{"m"}},
		{Code: "mile", Meters: 1609.344, Forms: []string{"M."}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claimed by both")
}

func TestNewHeadingRegistry_Validation(t *testing.T) {
	_, err := NewHeadingRegistry([]Heading{{Code: "X", Bearing: 360, Error: 1}})
	assert.Error(t, err)

	_, err = NewHeadingRegistry([]Heading{{Code: "X", Bearing: 10, Error: -1}})
	assert.Error(t, err)
}

func TestLoad_ExternalOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.yaml")
	body := "units:\n  - {code: meter, meters: 1, forms: [m]}\n  - {code: foot, meters: 0.3048, forms: [ft]}\n  - {code: chain, meters: 20.1168, forms: [ch, chains]}\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	reg, err := Load(Options{UnitsPath: path})
	require.NoError(t, err)

	u, err := reg.Units.Lookup("chains")
	require.NoError(t, err)
	assert.InDelta(t, 20.1168, u.Meters, 1e-9)

	_, err = reg.Units.Lookup("mile")
	assert.Error(t, err)
}

func TestLoad_ExternalOverrideErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(Options{DatumsPath: filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("units:\n  - {code: meter, meters: 1, colour: red}\n"), 0o644))
	_, err = Load(Options{UnitsPath: unknown})
	assert.Error(t, err)
}

func TestNormalizeForm(t *testing.T) {
	assert.Equal(t, "nne", normalizeForm(" N.N.E. "))
	assert.Equal(t, "northnortheast", normalizeForm("North-Northeast"))
	assert.Equal(t, "usgs1:24000", normalizeForm("USGS 1:24000"))
}

func TestConstants(t *testing.T) {
	reg := MustDefault()
	c := reg.Constants()

	assert.Len(t, c.Datums, len(reg.Datums.All()))
	assert.Len(t, c.Units, len(reg.Units.All()))
	assert.Len(t, c.Headings, len(reg.Headings.All()))
	assert.NotEmpty(t, c.Sources)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"code":"WGS84"`)
	assert.Contains(t, string(data), `"meters_per_unit"`)
}
