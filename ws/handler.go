package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/dbsec-lab/logging"
	"github.com/vnkhanh/dbsec-lab/store"
	"github.com/vnkhanh/dbsec-lab/utils"
)

// originChecker accepts handshakes without an Origin header (non-browser clients) and those
// whose origin is listed. "*" allows any origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

// HandleContentWebSocket streams content changes to admins. Browsers cannot set headers on
// a websocket handshake, so the token comes in ?token=. allowedOrigins is the same list the
// CORS middleware uses.
func HandleContentWebSocket(hub *Hub, tokens *utils.TokenManager, users store.UserStore, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
			return
		}
		claims, err := tokens.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.Get(c.Request.Context(), claims.Username())
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			logging.Error().Err(err).Msg("failed to load websocket user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if !user.IsAdmin || !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logging.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		client := hub.Register(user.Username, conn)
		logging.Info().Str("username", user.Username).Msg("content websocket connected")

		hello, _ := json.Marshal(gin.H{"type": "connected", "message": "Subscribed to content changes"})
		client.Send <- hello

		hub.readPump(conn)
		logging.Info().Str("username", user.Username).Msg("content websocket disconnected")
	}
}
