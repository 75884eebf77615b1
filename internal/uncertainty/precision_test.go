package uncertainty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/georef-cli/internal/geoerr"
)

func TestInferPrecision(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"10.0", 0.05},
		{"10.00", 0.005},
		{"100", 50},
		{"12", 0.5},
		{"150", 5},
		{"5", 0.5},
		{"1000", 500},
		{"2.5", 0.25},
		{"1.75", 0.125},
		{"1.375", 0.0625},
		{"2.05", 0.005},
		{"3.14159", 0.5},
		{" 7 ", 0.5},
		{"0", 0},
		{"0.0005", 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := InferPrecision(tt.text)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestInferPrecision_Invalid(t *testing.T) {
	for _, text := range []string{"-5", "abc", "", "NaN", "Inf", "5 mi", "1,000", "1,5"} {
		t.Run(text, func(t *testing.T) {
			_, err := InferPrecision(text)
			require.Error(t, err)

			var ie *geoerr.InvalidInputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, "offset_value", ie.Field)
		})
	}
}

func TestParseOffset(t *testing.T) {
	v, err := ParseOffset(" 2.25 ")
	require.NoError(t, err)
	assert.Equal(t, 2.25, v)

	// A thousands separator must not silently shrink the offset.
	for _, text := range []string{"1,000", "2,25"} {
		_, err = ParseOffset(text)
		var ie *geoerr.InvalidInputError
		require.ErrorAs(t, err, &ie, text)
		assert.Equal(t, "offset_value", ie.Field)
	}

	_, err = ParseOffset("-1")
	assert.True(t, geoerr.IsInvalidInput(err))
}
