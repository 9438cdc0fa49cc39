// README: Rewrites client input into the token vocabulary used at training time.
package fare

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize maps raw client input onto the canonical feature set. It only
// fails when the hour is neither "HH:MM" nor an integer.
func Normalize(raw RawFeatures) (CanonicalFeatures, error) {
	heure, err := normalizeHour(raw.Heure)
	if err != nil {
		return CanonicalFeatures{}, &NormalizationError{Field: "heure", Value: raw.Heure, Err: err}
	}
	return CanonicalFeatures{
		Pluie:          normalizeYesNo(raw.Pluie),
		EtatRoute:      strings.ToLower(raw.EtatRoute),
		Heure:          heure,
		JourSemaine:    normalizeDay(raw.JourSemaine),
		JourFerie:      normalizeYesNo(raw.JourFerie),
		Bagages:        normalizeYesNo(raw.Bagages),
		RoutesLarges:   normalizeYesNo(raw.RoutesLarges),
		RoutesTravaux:  normalizeYesNo(raw.RoutesTravaux),
		Accident:       normalizeYesNo(raw.Accident),
		DepartOSM:      raw.DepartOSM,
		DestinationOSM: raw.DestinationOSM,
		DistanceKm:     raw.DistanceKm,
	}, nil
}

func normalizeYesNo(v string) string {
	return lookupYesNo(strings.ToLower(v))
}

func normalizeDay(v string) string {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n >= len(weekdays) {
		return strings.ToLower(v)
	}
	return weekdays[n]
}

func normalizeHour(v string) (string, error) {
	v = strings.TrimSpace(v)
	if strings.Contains(v, ":") {
		return v, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:00", n), nil
}
