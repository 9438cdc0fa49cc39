// README: Trip feature sets and the price estimate returned to clients.
package fare

import "farcal/internal/types"

// RawFeatures is the trip context as supplied by the client.
type RawFeatures struct {
	Pluie          string
	EtatRoute      string
	Heure          string
	JourSemaine    string
	JourFerie      string
	Bagages        string
	RoutesLarges   string
	RoutesTravaux  string
	Accident       string
	DepartOSM      string
	DestinationOSM string
	DistanceKm     float64
}

// CanonicalFeatures holds the same fields rewritten into the vocabulary the
// model was trained on. Place identifiers and distance are carried as-is.
type CanonicalFeatures struct {
	Pluie          string
	EtatRoute      string
	Heure          string
	JourSemaine    string
	JourFerie      string
	Bagages        string
	RoutesLarges   string
	RoutesTravaux  string
	Accident       string
	DepartOSM      string
	DestinationOSM string
	DistanceKm     float64
}

// Raw turns a canonical set back into client input. Normalizing the result
// yields the same canonical set.
func (c CanonicalFeatures) Raw() RawFeatures {
	return RawFeatures(c)
}

const (
	MessageSuccess       = "Prédiction réussie"
	MessageAllKnown      = "Tout connu"
	MessageUnknownPlaces = "⚠️ Certains lieux peuvent être inconnus → prix approximatif"
	unknownPlaceMarker   = "unknown"
	bandLowFactor        = 0.9
	bandHighFactor       = 1.15
)

type PriceEstimate struct {
	Price   types.Money
	Low     int64
	High    int64
	Range   string
	Message string
	// Places is the advisory shown to the client; UnknownPlaces is set when an
	// endpoint was not resolved upstream.
	Places        string
	UnknownPlaces bool
}
