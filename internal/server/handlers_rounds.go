package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rank-it/internal/game"
)

// placementsRequest accepts either explicit placements or an ordered list of
// item ids where the index is the position.
type placementsRequest struct {
	Order      []uint           `json:"order"`
	Placements []game.Placement `json:"placements"`
}

func (r placementsRequest) resolve() []game.Placement {
	if len(r.Placements) > 0 {
		return r.Placements
	}
	return game.PlacementsFromOrder(r.Order)
}

func (s *Server) bindPlacements(c *gin.Context) ([]game.Placement, bool) {
	var req placementsRequest
	if !bindJSON(c, &req, nil, "invalid placements") {
		return nil, false
	}
	placements := req.resolve()
	if len(placements) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order or placements is required", "kind": "validation"})
		return nil, false
	}
	return placements, true
}

func (s *Server) handleGetRound(c *gin.Context) {
	roundID, ok := bindID(c)
	if !ok {
		return
	}
	round, err := s.svc.Round(c.Request.Context(), roundID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (s *Server) handleSubmitRanking(c *gin.Context) {
	roundID, ok := bindID(c)
	if !ok {
		return
	}
	ident, ok := s.requireIdentity(c)
	if !ok {
		return
	}
	placements, ok := s.bindPlacements(c)
	if !ok {
		return
	}
	round, err := s.svc.SubmitRanking(c.Request.Context(), roundID, ident, placements)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (s *Server) handleSubmitGuess(c *gin.Context) {
	roundID, ok := bindID(c)
	if !ok {
		return
	}
	ident, ok := s.requireIdentity(c)
	if !ok {
		return
	}
	placements, ok := s.bindPlacements(c)
	if !ok {
		return
	}
	round, err := s.svc.SubmitGuess(c.Request.Context(), roundID, ident, placements)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, round)
}

func (s *Server) handleAdvanceReveal(c *gin.Context) {
	roundID, ok := bindID(c)
	if !ok {
		return
	}
	ident, ok := s.requireIdentity(c)
	if !ok {
		return
	}
	result, err := s.svc.AdvanceReveal(c.Request.Context(), roundID, ident)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleApplyRoundResult re-runs scoring for a complete round. It is a no-op
// once the round is scored.
func (s *Server) handleApplyRoundResult(c *gin.Context) {
	roundID, ok := bindID(c)
	if !ok {
		return
	}
	if _, ok := s.requireIdentity(c); !ok {
		return
	}
	g, err := s.svc.ApplyRoundResult(c.Request.Context(), roundID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}
