package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"rank-it/internal/game"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsFanout       = 8
)

// SnapshotSource renders a game for one viewer.
type SnapshotSource interface {
	Snapshot(ctx context.Context, gameID uint, viewer game.Identity) (*game.Snapshot, error)
}

type wsMessage struct {
	Type     string         `json:"type"`
	Change   *game.Change   `json:"change,omitempty"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
}

type wsClient struct {
	conn   *websocket.Conn
	viewer game.Identity
	mu     sync.Mutex
}

func (c *wsClient) send(msg wsMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub groups websocket clients by game and pushes each of them a fresh
// snapshot, rendered for that client, whenever a change commits.
type Hub struct {
	mu     sync.Mutex
	groups map[uint]map[*wsClient]struct{}
	source SnapshotSource
	log    zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		groups: make(map[uint]map[*wsClient]struct{}),
		log:    logger,
	}
}

func (h *Hub) Attach(source SnapshotSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source = source
}

func (h *Hub) add(gameID uint, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[gameID] = group
	}
	group[client] = struct{}{}
}

func (h *Hub) remove(gameID uint, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	if group == nil {
		return
	}
	delete(group, client)
	_ = client.conn.Close()
	if len(group) == 0 {
		delete(h.groups, gameID)
	}
}

func (h *Hub) clients(gameID uint) ([]*wsClient, SnapshotSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	out := make([]*wsClient, 0, len(group))
	for client := range group {
		out = append(out, client)
	}
	return out, h.source
}

// Publish implements game.Notifier.
func (h *Hub) Publish(ctx context.Context, change game.Change) {
	clients, source := h.clients(change.GameID)
	if len(clients) == 0 || source == nil {
		return
	}
	var g errgroup.Group
	g.SetLimit(wsFanout)
	for _, client := range clients {
		g.Go(func() error {
			snap, err := source.Snapshot(ctx, change.GameID, client.viewer)
			if err != nil {
				h.log.Warn().Err(err).Uint("game_id", change.GameID).Msg("ws snapshot")
				return nil
			}
			if err := client.send(wsMessage{Type: "change", Change: &change, Snapshot: snap}); err != nil {
				h.log.Debug().Err(err).Uint("game_id", change.GameID).Msg("ws send failed")
				h.remove(change.GameID, client)
			}
			return nil
		})
	}
	_ = g.Wait()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebsocket(c *gin.Context) {
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
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn, viewer: viewer}
	s.log.Debug().Uint("game_id", gameID).Str("user", viewer.UserID).Str("remote", c.ClientIP()).Msg("ws connected")
	s.hub.add(gameID, client)
	if err := client.send(wsMessage{Type: "snapshot", Snapshot: snap}); err != nil {
		s.hub.remove(gameID, client)
		return
	}
	go s.readWS(gameID, client)
}

func (s *Server) readWS(gameID uint, client *wsClient) {
	defer s.hub.remove(gameID, client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			s.log.Debug().Uint("game_id", gameID).Err(err).Msg("ws disconnected")
			return
		}
	}
}
