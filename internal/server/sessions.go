package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rank-it/internal/db"
	"rank-it/internal/game"
)

const (
	sessionCookie  = "ri_session"
	headerUserID   = "X-User-ID"
	headerUserName = "X-User-Name"
)

// sessionStore maps session cookies to identities, in the database when one
// is configured and in memory otherwise.
type sessionStore struct {
	db       *gorm.DB
	mu       sync.Mutex
	sessions map[string]game.Identity
}

func newSessionStore(conn *gorm.DB) *sessionStore {
	return &sessionStore{
		db:       conn,
		sessions: make(map[string]game.Identity),
	}
}

func (s *sessionStore) Get(id string) (game.Identity, bool) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		ident, ok := s.sessions[id]
		return ident, ok
	}
	var record db.Session
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		return game.Identity{}, false
	}
	return game.Identity{UserID: record.UserID, DisplayName: record.DisplayName}, true
}

func (s *sessionStore) Save(id string, ident game.Identity) error {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sessions[id] = ident
		return nil
	}
	record := db.Session{
		ID:          id,
		UserID:      ident.UserID,
		DisplayName: ident.DisplayName,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "display_name", "updated_at"}),
	}).Create(&record).Error
}

// identity resolves the caller from the session cookie. The X-User-ID and
// X-User-Name headers are only honored when the server is configured to
// trust them, which is meant for deployments behind an authenticating proxy.
func (s *Server) identity(c *gin.Context) (game.Identity, bool) {
	if s.cfg.TrustIdentityHeaders {
		if userID := strings.TrimSpace(c.GetHeader(headerUserID)); userID != "" {
			return game.Identity{UserID: userID, DisplayName: normalizeText(c.GetHeader(headerUserName))}, true
		}
	}
	id, err := c.Cookie(sessionCookie)
	if err != nil || id == "" {
		return game.Identity{}, false
	}
	return s.sessions.Get(id)
}

func (s *Server) requireIdentity(c *gin.Context) (game.Identity, bool) {
	ident, ok := s.identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "identity required", "kind": "unauthorized"})
		return game.Identity{}, false
	}
	return ident, true
}

type sessionRequest struct {
	Name string `json:"name" binding:"required,name"`
}

var sessionMessages = bindMessages{
	"Name": {
		"required": "name is required",
		"name":     fmt.Sprintf("name must be 1-%d plain characters", maxNameLength),
	},
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req sessionRequest
	if !bindJSON(c, &req, sessionMessages, "") {
		return
	}
	name, _ := validateName(req.Name)

	id, err := c.Cookie(sessionCookie)
	ident, ok := game.Identity{}, false
	if err == nil && id != "" {
		ident, ok = s.sessions.Get(id)
	}
	if !ok {
		id = uuid.NewString()
		ident = game.Identity{UserID: uuid.NewString()}
	}
	ident.DisplayName = name
	if err := s.sessions.Save(id, ident); err != nil {
		s.writeError(c, err)
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.JSON(http.StatusOK, gin.H{"user_id": ident.UserID, "name": ident.DisplayName})
}

func (s *Server) handleGetSession(c *gin.Context) {
	ident, ok := s.requireIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": ident.UserID, "name": ident.DisplayName})
}
