package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rank-it/internal/game"
)

type createGameRequest struct {
	Scoring *game.ScoringConfig `json:"scoring"`
}

type joinRequest struct {
	Code string `json:"code" binding:"required,joincode"`
}

var joinMessages = bindMessages{
	"Code": {
		"required": "join code is required",
		"joincode": "join code is not valid",
	},
}

type startRoundRequest struct {
	TopicID uint `json:"topic_id" binding:"required,gt=0"`
}

type codeURI struct {
	Code string `uri:"code" binding:"required"`
}

const maxEventPage = 200

func (s *Server) handleCreateGame(c *gin.Context) {
	ident, ok := s.requireIdentity(c)
	if !ok {
		return
	}
	var req createGameRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, nil, "invalid game settings") {
		return
	}
	cfg := s.cfg.Scoring
	if req.Scoring != nil {
		cfg = *req.Scoring
	}
	g, err := s.svc.CreateGame(c.Request.Context(), ident, cfg)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (s *Server) handleJoinGame(c *gin.Context) {
	ident, ok := s.requireIdentity(c)
	if !ok {
		return
	}
	var req joinRequest
	if !bindJSON(c, &req, joinMessages, "") {
		return
	}
	g, player, err := s.svc.JoinGame(c.Request.Context(), req.Code, ident)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": g, "player": player})
}

func (s *Server) handleGameByCode(c *gin.Context) {
	var uri codeURI
	if !bindURI(c, &uri) {
		return
	}
	g, err := s.svc.GameByCode(c.Request.Context(), uri.Code)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) handleSnapshot(c *gin.Context) {
	gameID, ok := bindID(c)
	if !ok {
		return
	}
	viewer, _ := s.identity(c)
	snap, err := s.svc.Snapshot(c.Request.Context(), gameID, viewer)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleStartRound(c *gin.Context) {
	gameID, ok := bindID(c)
	if !ok {
		return
	}
	ident, ok := s.requireIdentity(c)
	if !ok {
		return
	}
	var req startRoundRequest
	if !bindJSON(c, &req, bindMessages{"TopicID": {"required": "topic_id is required"}}, "") {
		return
	}
	round, err := s.svc.StartRound(c.Request.Context(), gameID, ident, req.TopicID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, round)
}

func (s *Server) handleRotateVIP(c *gin.Context) {
	s.creatorAction(c, s.svc.RotateVIP)
}

func (s *Server) handleEndGame(c *gin.Context) {
	s.creatorAction(c, s.svc.EndGame)
}

func (s *Server) creatorAction(c *gin.Context, action func(ctx context.Context, gameID uint, actor game.Identity) (*game.Game, error)) {
	gameID, ok := bindID(c)
	if !ok {
		return
	}
	ident, ok := s.requireIdentity(c)
	if !ok {
		return
	}
	g, err := action(c.Request.Context(), gameID, ident)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) handleUpdateScoring(c *gin.Context) {
	gameID, ok := bindID(c)
	if !ok {
		return
	}
	ident, ok := s.requireIdentity(c)
	if !ok {
		return
	}
	var cfg game.ScoringConfig
	if !bindJSON(c, &cfg, nil, "invalid scoring settings") {
		return
	}
	g, err := s.svc.UpdateScoring(c.Request.Context(), gameID, ident, cfg)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) handleEvents(c *gin.Context) {
	gameID, ok := bindID(c)
	if !ok {
		return
	}
	if s.events == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event log is not enabled", "kind": "not_found"})
		return
	}
	if _, err := s.svc.Game(c.Request.Context(), gameID); err != nil {
		s.writeError(c, err)
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			limit = min(value, maxEventPage)
		}
	}
	events, err := s.events.Events(c.Request.Context(), gameID, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
