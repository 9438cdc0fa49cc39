// README: Maps canonical features onto the named inputs of the fare model graph.
package fare

// Model input names. The set and order are fixed by the exported artifact;
// changing them requires a new model.
const (
	InputPluie          = "pluie"
	InputEtatRoute      = "etat_route"
	InputHeure          = "heure"
	InputJourSemaine    = "jour_semaine"
	InputJourFerie      = "jour_ferie"
	InputBagages        = "bagages"
	InputRoutesLarges   = "routes_larges"
	InputRoutesTravaux  = "routes_travaux"
	InputAccident       = "accident"
	InputDepartOSM      = "depart_osm"
	InputDestinationOSM = "destination_osm"
	InputDistanceKm     = "distance_km"
)

// InputNames lists every model input in graph order.
var InputNames = []string{
	InputPluie,
	InputEtatRoute,
	InputHeure,
	InputJourSemaine,
	InputJourFerie,
	InputBagages,
	InputRoutesLarges,
	InputRoutesTravaux,
	InputAccident,
	InputDepartOSM,
	InputDestinationOSM,
	InputDistanceKm,
}

// TensorSink receives one single-row tensor per model input. The sink owns
// whatever it allocated, including on error.
type TensorSink interface {
	AddString(name, value string) error
	AddFloat(name string, value float32) error
}

// Encode writes the 11 categorical inputs and the distance into sink.
func Encode(c CanonicalFeatures, sink TensorSink) error {
	text := []struct {
		name  string
		value string
	}{
		{InputPluie, c.Pluie},
		{InputEtatRoute, c.EtatRoute},
		{InputHeure, c.Heure},
		{InputJourSemaine, c.JourSemaine},
		{InputJourFerie, c.JourFerie},
		{InputBagages, c.Bagages},
		{InputRoutesLarges, c.RoutesLarges},
		{InputRoutesTravaux, c.RoutesTravaux},
		{InputAccident, c.Accident},
		{InputDepartOSM, c.DepartOSM},
		{InputDestinationOSM, c.DestinationOSM},
	}
	for _, in := range text {
		if err := sink.AddString(in.name, in.value); err != nil {
			return &EncodingError{Input: in.name, Err: err}
		}
	}
	if err := sink.AddFloat(InputDistanceKm, float32(c.DistanceKm)); err != nil {
		return &EncodingError{Input: InputDistanceKm, Err: err}
	}
	return nil
}
