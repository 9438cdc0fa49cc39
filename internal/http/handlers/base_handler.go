// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"farcal/internal/modules/fare"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeFareError maps estimate failures to a status. Only client-caused
// errors carry their message back.
func writeFareError(c *gin.Context, err error) {
	var nerr *fare.NormalizationError
	switch {
	case errors.As(err, &nerr):
		writeError(c, http.StatusUnprocessableEntity, nerr.Error())
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("fare estimate failed")
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
