package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vnkhanh/dbsec-lab/store"
	"github.com/vnkhanh/dbsec-lab/utils"
	"github.com/vnkhanh/dbsec-lab/ws"
)

// Handler holds everything the HTTP endpoints touch. Nothing here is global, so tests build
// one over an in-memory database and a fake object store.
type Handler struct {
	Contents store.ContentStore
	Users    store.UserStore
	Objects  utils.ObjectStore
	Tokens   *utils.TokenManager
	Hub      *ws.Hub

	// Ping reports database reachability for /health. Nil means always healthy.
	Ping func(ctx context.Context) error

	MaxUploadBytes int64
	// AllowedOrigins gates browser websocket handshakes.
	AllowedOrigins []string
	Logger         zerolog.Logger
	Now            func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) notify(action, id string) {
	if h.Hub != nil {
		h.Hub.BroadcastContentChanged(action, id)
	}
}

// storeError answers not-found with 404 and everything else with an opaque 500.
func (h *Handler) storeError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	h.Logger.Error().Stack().Err(err).Str("path", c.Request.URL.Path).Msg("store operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
