package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/speculative-artefact/compactImg/internal/logger"
)

type HealthHandler struct{}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check handles health check requests
func (h *HealthHandler) Check(c *gin.Context) {
	reqLogger := logger.FromContext(c.Request.Context())
	reqLogger.Debug().Msg("Processing health check request")

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "UP",
		Timestamp: time.Now(),
		Version:   "1.0.0",
	})
}
