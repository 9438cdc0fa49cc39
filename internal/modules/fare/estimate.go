package fare

import (
	"fmt"
	"math"
	"strings"

	"farcal/internal/types"
)

// FormatEstimate turns the raw model output into the client-facing estimate.
// Band bounds are truncated toward zero, not rounded.
func FormatEstimate(scalar float64, c CanonicalFeatures) PriceEstimate {
	price := int64(math.Round(scalar))
	low := int64(float64(price) * bandLowFactor)
	high := int64(float64(price) * bandHighFactor)

	est := PriceEstimate{
		Price:   types.FCFA(price),
		Low:     low,
		High:    high,
		Range:   fmt.Sprintf("%d - %d %s", low, high, types.CurrencyFCFA),
		Message: MessageSuccess,
		Places:  MessageAllKnown,
	}
	if hasUnknownPlace(c) {
		est.UnknownPlaces = true
		est.Places = MessageUnknownPlaces
	}
	return est
}

func hasUnknownPlace(c CanonicalFeatures) bool {
	return strings.Contains(c.DepartOSM, unknownPlaceMarker) ||
		strings.Contains(c.DestinationOSM, unknownPlaceMarker)
}
