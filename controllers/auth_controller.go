package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/dbsec-lab/middleware"
	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/store"
	"github.com/vnkhanh/dbsec-lab/utils"
)

// ====== INPUT STRUCTS ======
type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func publicUser(u *models.User) gin.H {
	return gin.H{
		"username": u.Username,
		"email":    u.Email,
		"is_admin": u.IsAdmin,
	}
}

// ====== HANDLERS ======
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		h.Logger.Error().Stack().Err(err).Msg("failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}

	user := models.User{
		Username:       input.Username,
		Email:          input.Email,
		HashedPassword: hashed,
		IsActive:       true,
	}
	if err := h.Users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already registered"})
			return
		}
		h.storeError(c, err, "")
		return
	}

	h.Logger.Info().Str("username", user.Username).Msg("user registered")
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    publicUser(&user),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.Get(c.Request.Context(), input.Username)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
		return
	}
	if err != nil {
		h.storeError(c, err, "")
		return
	}

	if !utils.CheckPassword(user.HashedPassword, input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is disabled"})
		return
	}

	token, err := h.Tokens.GenerateToken(user.Username)
	if err != nil {
		h.Logger.Error().Stack().Err(err).Msg("failed to sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(h.Tokens.TTL().Seconds()),
		"user":         publicUser(user),
	})
}

func (h *Handler) Verify(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user":  publicUser(user),
	})
}
