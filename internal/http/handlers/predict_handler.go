// README: Fare prediction handler for POST /predict.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"farcal/internal/modules/fare"
)

// Estimator is what the handler needs from the fare service.
type Estimator interface {
	Estimate(ctx context.Context, raw fare.RawFeatures) (fare.PriceEstimate, error)
}

type PredictHandler struct {
	fare Estimator
}

func NewPredictHandler(svc Estimator) *PredictHandler {
	return &PredictHandler{fare: svc}
}

type predictReq struct {
	Pluie          string  `json:"pluie" binding:"required,notblank"`
	EtatRoute      string  `json:"etat_route" binding:"required,notblank"`
	Heure          string  `json:"heure" binding:"required,notblank"`
	JourSemaine    string  `json:"jour_semaine" binding:"required,notblank"`
	JourFerie      string  `json:"jour_ferie" binding:"required,notblank"`
	Bagages        string  `json:"bagages" binding:"required,notblank"`
	RoutesLarges   string  `json:"routes_larges" binding:"required,notblank"`
	RoutesTravaux  string  `json:"routes_travaux" binding:"required,notblank"`
	Accident       string  `json:"accident" binding:"required,notblank"`
	DepartOSM      string  `json:"depart_osm" binding:"required,notblank"`
	DestinationOSM string  `json:"destination_osm" binding:"required,notblank"`
	DistanceKm     float64 `json:"distance_km" binding:"required,gt=0"`
}

func (r predictReq) raw() fare.RawFeatures {
	return fare.RawFeatures{
		Pluie:          r.Pluie,
		EtatRoute:      r.EtatRoute,
		Heure:          r.Heure,
		JourSemaine:    r.JourSemaine,
		JourFerie:      r.JourFerie,
		Bagages:        r.Bagages,
		RoutesLarges:   r.RoutesLarges,
		RoutesTravaux:  r.RoutesTravaux,
		Accident:       r.Accident,
		DepartOSM:      r.DepartOSM,
		DestinationOSM: r.DestinationOSM,
		DistanceKm:     r.DistanceKm,
	}
}

type predictResp struct {
	PrixEstimeFcfa  int64  `json:"prixEstimeFcfa"`
	PrixEstimeRange string `json:"prixEstimeRange"`
	Message         string `json:"message"`
	LieuxConnus     string `json:"lieuxConnus"`
}

// Predict handles POST /predict.
func (h *PredictHandler) Predict(c *gin.Context) {
	var req predictReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	est, err := h.fare.Estimate(c.Request.Context(), req.raw())
	if err != nil {
		writeFareError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, predictResp{
		PrixEstimeFcfa:  est.Price.Amount,
		PrixEstimeRange: est.Range,
		Message:         est.Message,
		LieuxConnus:     est.Places,
	})
}

// bindingMessage names the first offending field, or reports bad JSON.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required", "notblank":
			return fmt.Sprintf("missing field %s", jsonName(fe.Field()))
		case "gt":
			return fmt.Sprintf("field %s must be greater than %s", jsonName(fe.Field()), fe.Param())
		default:
			return fmt.Sprintf("invalid field %s", jsonName(fe.Field()))
		}
	}
	return "invalid json"
}

var jsonNames = map[string]string{
	"Pluie":          "pluie",
	"EtatRoute":      "etat_route",
	"Heure":          "heure",
	"JourSemaine":    "jour_semaine",
	"JourFerie":      "jour_ferie",
	"Bagages":        "bagages",
	"RoutesLarges":   "routes_larges",
	"RoutesTravaux":  "routes_travaux",
	"Accident":       "accident",
	"DepartOSM":      "depart_osm",
	"DestinationOSM": "destination_osm",
	"DistanceKm":     "distance_km",
}

func jsonName(field string) string {
	if n, ok := jsonNames[field]; ok {
		return n
	}
	return field
}
