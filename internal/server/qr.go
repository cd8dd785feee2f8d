package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// joinURL is the link a phone lands on after scanning the join code. With no
// PUBLIC_URL it points back at this server's /join/:code route.
func (s *Server) joinURL(c *gin.Context, code string) string {
	base := s.cfg.PublicURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/join/" + code
}

func (s *Server) handleJoinQR(c *gin.Context) {
	gameID, ok := bindID(c)
	if !ok {
		return
	}
	g, err := s.svc.Game(c.Request.Context(), gameID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	png, err := qrcode.Encode(s.joinURL(c, g.JoinCode), qrcode.Medium, qrSize)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
