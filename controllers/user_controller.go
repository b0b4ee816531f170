package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/dbsec-lab/models"
)

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// PatchUser toggles is_admin / is_active. Admins cannot change their own flags, which keeps
// at least the caller able to log back in.
func (h *Handler) PatchUser(c *gin.Context) {
	var flags models.UserFlags
	if err := c.ShouldBindJSON(&flags); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if flags.IsAdmin == nil && flags.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	username := c.Param("username")
	if username == c.GetString("username") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot change your own account flags"})
		return
	}

	user, err := h.Users.SetFlags(c.Request.Context(), username, flags)
	if err != nil {
		h.storeError(c, err, "User not found")
		return
	}

	h.Logger.Info().
		Str("username", user.Username).
		Bool("is_admin", user.IsAdmin).
		Bool("is_active", user.IsActive).
		Str("by", c.GetString("username")).
		Msg("user flags changed")
	c.JSON(http.StatusOK, gin.H{
		"message": "User updated",
		"user":    user,
	})
}
