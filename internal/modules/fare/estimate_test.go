package fare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"farcal/internal/types"
)

func TestFormatEstimate_Band(t *testing.T) {
	cases := []struct {
		scalar    float64
		price     int64
		wantRange string
	}{
		{2346.0, 2346, "2111 - 2697 FCFA"},
		{2345.5, 2346, "2111 - 2697 FCFA"},
		{2345.4, 2345, "2110 - 2696 FCFA"},
		{1000, 1000, "900 - 1150 FCFA"},
		{0.4, 0, "0 - 0 FCFA"},
	}
	for _, tc := range cases {
		got := FormatEstimate(tc.scalar, CanonicalFeatures{DepartOSM: "Mvan", DestinationOSM: "Bastos"})
		assert.Equal(t, types.FCFA(tc.price), got.Price, "scalar %v", tc.scalar)
		assert.Equal(t, tc.wantRange, got.Range, "scalar %v", tc.scalar)
		assert.Equal(t, MessageSuccess, got.Message)
	}
}

func TestFormatEstimate_TruncatesBounds(t *testing.T) {
	got := FormatEstimate(2346, CanonicalFeatures{})
	assert.EqualValues(t, 2111, got.Low)  // 2111.4
	assert.EqualValues(t, 2697, got.High) // 2697.9
}

func TestFormatEstimate_Advisory(t *testing.T) {
	cases := []struct {
		name        string
		depart      string
		destination string
		unknown     bool
	}{
		{"both known", "Centre-ville", "Bastos", false},
		{"unknown depart", "unknown_place", "Bastos", true},
		{"unknown destination", "Mvan", "lieu unknown", true},
		{"marker is case sensitive", "UNKNOWN", "Unknown", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatEstimate(2346, CanonicalFeatures{DepartOSM: tc.depart, DestinationOSM: tc.destination})
			assert.Equal(t, tc.unknown, got.UnknownPlaces)
			if tc.unknown {
				assert.Equal(t, MessageUnknownPlaces, got.Places)
			} else {
				assert.Equal(t, MessageAllKnown, got.Places)
			}
		})
	}
}
