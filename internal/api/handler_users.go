package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"thermo-monitor-backend/internal/auth"
	"thermo-monitor-backend/internal/model"
	"thermo-monitor-backend/internal/store"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.store.Users().FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = auth.ErrInvalidCredentials
		}
		respondError(c, err, "")
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondError(c, err, "")
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(h.issuer.TTL().Seconds()),
		"user":         newUserResource(*user),
	})
}

// ListUsers returns users, paginated.
func (h *Handler) ListUsers(c *gin.Context) {
	page, err := h.store.Users().Paginate(c.Request.Context(), pageRequest(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	writePage(c, page, newUserResource)
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8"`
}

// CreateUser registers an account.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(req.Email)

	if _, err := h.store.Users().FindByEmail(ctx, email); err == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "the email has already been taken"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(c, err, "")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err, "")
		return
	}
	user := &model.User{Name: req.Name, Email: email, PasswordHash: hash}
	if err := h.store.Users().Create(ctx, user); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": newUserResource(*user), "message": "User created successfully"})
}

// GetUser shows one user.
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.store.Users().FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "user not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newUserResource(*user)})
}

// DeleteUser removes the authenticated user's own account.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if id != currentUser(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "users can only delete their own account"})
		return
	}
	ctx := c.Request.Context()
	user, err := h.store.Users().FindByID(ctx, id)
	if err != nil {
		respondError(c, err, "user not found")
		return
	}
	if err := h.store.Users().Delete(ctx, user); err != nil {
		respondError(c, err, "user not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
