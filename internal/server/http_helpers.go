package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rank-it/internal/game"
)

var kindStatus = map[game.Kind]int{
	game.KindNotFound:     http.StatusNotFound,
	game.KindInvalidState: http.StatusConflict,
	game.KindUnauthorized: http.StatusForbidden,
	game.KindValidation:   http.StatusBadRequest,
	game.KindConflict:     http.StatusConflict,
}

// writeError maps domain errors onto status codes. Anything untyped is logged
// and reported as an internal error.
func (s *Server) writeError(c *gin.Context, err error) {
	var typed game.Error
	if errors.As(err, &typed) {
		entity, id := typed.Ref()
		status, ok := kindStatus[typed.Kind()]
		if !ok {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":  typed.Error(),
			"kind":   string(typed.Kind()),
			"entity": entity,
			"id":     id,
		})
		return
	}
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "kind": "internal"})
}
