package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	defaultTopicsPerPage = 20
	maxTopicsPerPage     = 100
)

func (s *Server) handleTopics(c *gin.Context) {
	page, perPage := parsePagination(c, defaultTopicsPerPage, maxTopicsPerPage)
	topics, total, err := s.svc.Topics(c.Request.Context(), (page-1)*perPage, perPage)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"topics":     topics,
		"pagination": buildPagination(page, perPage, total),
	})
}

func (s *Server) handleTopic(c *gin.Context) {
	topicID, ok := bindID(c)
	if !ok {
		return
	}
	topic, err := s.svc.Topic(c.Request.Context(), topicID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, topic)
}
