package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farcal/internal/http/handlers"
	"farcal/internal/inference"
	"farcal/internal/modules/fare"
	"farcal/internal/types"
)

type stubEstimator struct {
	est  fare.PriceEstimate
	err  error
	got  fare.RawFeatures
	hits int
}

func (s *stubEstimator) Estimate(_ context.Context, raw fare.RawFeatures) (fare.PriceEstimate, error) {
	s.hits++
	s.got = raw
	return s.est, s.err
}

type stubModel struct {
	ready bool
	info  inference.ModelInfo
}

func (s stubModel) Ready() bool               { return s.ready }
func (s stubModel) Info() inference.ModelInfo { return s.info }

func buildTestRouter(t *testing.T, est handlers.Estimator, model handlers.ModelStatus) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handlers.RegisterValidators())
	r := gin.New()
	ph := handlers.NewPredictHandler(est)
	sh := handlers.NewStatusHandler(model)
	r.GET("/", sh.Root)
	r.GET("/health", sh.Health)
	r.GET("/model-info", sh.ModelInfo)
	r.POST("/predict", ph.Predict)
	return r
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody() map[string]any {
	return map[string]any{
		"pluie":           "1",
		"etat_route":      "Bon",
		"heure":           "7",
		"jour_semaine":    "0",
		"jour_ferie":      "non",
		"bagages":         "non",
		"routes_larges":   "oui",
		"routes_travaux":  "non",
		"accident":        "non",
		"depart_osm":      "Centre-ville",
		"destination_osm": "Bastos",
		"distance_km":     5.2,
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPredict_OK(t *testing.T) {
	est := &stubEstimator{est: fare.PriceEstimate{
		Price:   types.FCFA(2346),
		Range:   "2111 - 2697 FCFA",
		Message: fare.MessageSuccess,
		Places:  fare.MessageAllKnown,
	}}
	r := buildTestRouter(t, est, stubModel{ready: true})

	w := doRequest(r, http.MethodPost, "/predict", validBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.EqualValues(t, 2346, body["prixEstimeFcfa"])
	assert.Equal(t, "2111 - 2697 FCFA", body["prixEstimeRange"])
	assert.Equal(t, fare.MessageSuccess, body["message"])
	assert.Equal(t, fare.MessageAllKnown, body["lieuxConnus"])

	assert.Equal(t, "Bon", est.got.EtatRoute)
	assert.Equal(t, "7", est.got.Heure)
	assert.Equal(t, 5.2, est.got.DistanceKm)
}

func TestPredict_BadRequest(t *testing.T) {
	cases := []struct {
		name string
		body any
		want string
	}{
		{"malformed json", `{"pluie":`, "invalid json"},
		{"wrong type", `{"distance_km":"far"}`, "invalid json"},
		{"missing field", func() any { b := validBody(); delete(b, "heure"); return b }(), "missing field heure"},
		{"blank field", func() any { b := validBody(); b["depart_osm"] = "  "; return b }(), "missing field depart_osm"},
		{"zero distance", func() any { b := validBody(); b["distance_km"] = 0; return b }(), "missing field distance_km"},
		{"negative distance", func() any { b := validBody(); b["distance_km"] = -3; return b }(), "field distance_km must be greater than 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			est := &stubEstimator{}
			r := buildTestRouter(t, est, stubModel{ready: true})
			w := doRequest(r, http.MethodPost, "/predict", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, decode(t, w)["error"])
			assert.Zero(t, est.hits, "core must not run on invalid input")
		})
	}
}

func TestPredict_NormalizationError(t *testing.T) {
	est := &stubEstimator{err: &fare.NormalizationError{Field: "heure", Value: "abc", Err: errors.New("not a number")}}
	r := buildTestRouter(t, est, stubModel{ready: true})

	w := doRequest(r, http.MethodPost, "/predict", validBody())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w)["error"], "invalid heure")
}

func TestPredict_InternalErrorsHideDetail(t *testing.T) {
	for _, err := range []error{
		&fare.EncodingError{Input: fare.InputHeure, Err: errors.New("allocation failed")},
		&inference.RunError{Err: errors.New("graph execution failed")},
		errors.New("anything else"),
	} {
		r := buildTestRouter(t, &stubEstimator{err: err}, stubModel{ready: true})
		w := doRequest(r, http.MethodPost, "/predict", validBody())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, map[string]any{"error": "internal error"}, decode(t, w))
	}
}

func TestRoot(t *testing.T) {
	r := buildTestRouter(t, &stubEstimator{}, stubModel{ready: true})
	w := doRequest(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"message": "API Yaoundé v2 opérationnelle", "docs": "/docs"}, decode(t, w))
}

func TestHealth(t *testing.T) {
	r := buildTestRouter(t, &stubEstimator{}, stubModel{ready: true})
	w := doRequest(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"status": "OK", "model": "loaded"}, decode(t, w))

	r = buildTestRouter(t, &stubEstimator{}, stubModel{ready: false})
	w = doRequest(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, map[string]any{"status": "DOWN", "model": "unloaded"}, decode(t, w))
}

func TestModelInfo(t *testing.T) {
	model := stubModel{ready: true, info: inference.ModelInfo{
		Loaded:  true,
		Path:    "models/fare.onnx",
		Type:    "RandomForestRegressor",
		Inputs:  fare.InputNames,
		Outputs: []string{"variable"},
	}}
	r := buildTestRouter(t, &stubEstimator{}, model)

	w := doRequest(r, http.MethodGet, "/model-info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["model_loaded"])
	assert.Equal(t, "RandomForestRegressor", body["model_type"])
	assert.Equal(t, "models/fare.onnx", body["model_path"])
	assert.Len(t, body["features"], 12)
	assert.Equal(t, []any{"variable"}, body["outputs"])
}
