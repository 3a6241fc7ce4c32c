package drafts

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func SaveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId := strings.TrimSpace(c.Param("session"))
		if sessionId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session is required"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil || !json.Valid(body) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "draft body must be valid JSON"})
			return
		}

		if err := Save(sessionId, body); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId := strings.TrimSpace(c.Param("session"))
		if sessionId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session is required"})
			return
		}

		draft, exists, err := Get(sessionId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "no draft"})
			return
		}
		c.JSON(http.StatusOK, draft)
	}
}

func DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId := strings.TrimSpace(c.Param("session"))
		if sessionId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session is required"})
			return
		}
		if err := Delete(sessionId); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
