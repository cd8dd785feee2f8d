package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"rank-it/internal/config"
	"rank-it/internal/db"
	"rank-it/internal/game"
)

// EventSource exposes the persisted change log of a game.
type EventSource interface {
	Events(ctx context.Context, gameID uint, limit int) ([]db.Event, error)
}

type Server struct {
	svc      *game.Service
	hub      *Hub
	cfg      config.Config
	sessions *sessionStore
	events   EventSource
	log      zerolog.Logger
}

type Option func(*Server)

// WithDB keeps sessions in the database instead of process memory.
func WithDB(conn *gorm.DB) Option {
	return func(s *Server) { s.sessions = newSessionStore(conn) }
}

func WithEvents(src EventSource) Option {
	return func(s *Server) { s.events = src }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.log = logger }
}

// New wires the HTTP adapter to svc. hub must be the same Hub the service
// publishes to; it is attached to svc for per-viewer snapshots.
func New(svc *game.Service, hub *Hub, cfg config.Config, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		hub:      hub,
		cfg:      cfg,
		sessions: newSessionStore(nil),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hub == nil {
		s.hub = NewHub(s.log)
	}
	s.hub.Attach(svc)
	registerValidators()
	return s
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	// target of the join QR code when no web client is served under PUBLIC_URL
	r.GET("/join/:code", s.handleGameByCode)

	api := r.Group("/api")
	api.GET("/session", s.handleGetSession)
	api.POST("/session", s.handleCreateSession)

	api.POST("/games", s.handleCreateGame)
	api.POST("/games/join", s.handleJoinGame)
	api.GET("/games/code/:code", s.handleGameByCode)
	api.GET("/games/:id", s.handleSnapshot)
	api.GET("/games/:id/qr.png", s.handleJoinQR)
	api.GET("/games/:id/events", s.handleEvents)
	api.POST("/games/:id/rounds", s.handleStartRound)
	api.POST("/games/:id/rotate-vip", s.handleRotateVIP)
	api.POST("/games/:id/end", s.handleEndGame)
	api.PUT("/games/:id/scoring", s.handleUpdateScoring)

	api.GET("/rounds/:id", s.handleGetRound)
	api.POST("/rounds/:id/ranking", s.handleSubmitRanking)
	api.POST("/rounds/:id/guesses", s.handleSubmitGuess)
	api.POST("/rounds/:id/reveal", s.handleAdvanceReveal)
	api.POST("/rounds/:id/score", s.handleApplyRoundResult)

	api.GET("/topics", s.handleTopics)
	api.GET("/topics/:id", s.handleTopic)

	r.GET("/ws/games/:id", s.handleWebsocket)
	return r
}
