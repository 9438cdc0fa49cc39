// README: Root banner, liveness and model metadata endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farcal/internal/inference"
)

// ModelStatus reports the state of the loaded model.
type ModelStatus interface {
	Ready() bool
	Info() inference.ModelInfo
}

type StatusHandler struct {
	model ModelStatus
}

func NewStatusHandler(model ModelStatus) *StatusHandler {
	return &StatusHandler{model: model}
}

// Root handles GET /.
func (h *StatusHandler) Root(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{
		"message": "API Yaoundé v2 opérationnelle",
		"docs":    "/docs",
	})
}

// Health handles GET /health.
func (h *StatusHandler) Health(c *gin.Context) {
	if !h.model.Ready() {
		writeJSON(c, http.StatusServiceUnavailable, gin.H{"status": "DOWN", "model": "unloaded"})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "OK", "model": "loaded"})
}

type modelInfoResp struct {
	ModelLoaded bool     `json:"model_loaded"`
	ModelType   string   `json:"model_type"`
	ModelPath   string   `json:"model_path"`
	Features    []string `json:"features"`
	Outputs     []string `json:"outputs"`
}

// ModelInfo handles GET /model-info.
func (h *StatusHandler) ModelInfo(c *gin.Context) {
	info := h.model.Info()
	writeJSON(c, http.StatusOK, modelInfoResp{
		ModelLoaded: info.Loaded,
		ModelType:   info.Type,
		ModelPath:   info.Path,
		Features:    info.Inputs,
		Outputs:     info.Outputs,
	})
}
