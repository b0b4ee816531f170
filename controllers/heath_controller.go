package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HealthCheck(c *gin.Context) {
	response := gin.H{
		"status":    "healthy",
		"timestamp": h.now().UTC(),
		"db":        "ok",
	}
	if h.Hub != nil {
		response["websocket_clients"] = h.Hub.ClientCount()
	}

	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			h.Logger.Error().Stack().Err(err).Msg("health check: database unreachable")
			response["db"] = "error: cannot connect to DB"
			response["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}
