package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"thermo-monitor-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription registers a browser push subscription for the caller's alerts.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
		UserID:   currentUser(c),
	}
	if err := h.store.Subscriptions().Upsert(c.Request.Context(), &subscription); err != nil {
		respondError(c, err, "")
		return
	}
	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes one of the caller's subscriptions.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	sub, err := h.store.Subscriptions().FindByEndpoint(ctx, req.Endpoint)
	if err != nil || sub.UserID != currentUser(c) {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.store.Subscriptions().Delete(ctx, req.Endpoint); err != nil {
		respondError(c, err, "")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSubscription reports whether the endpoint is registered for the caller.
func (h *Handler) GetSubscription(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	sub, err := h.store.Subscriptions().FindByEndpoint(c.Request.Context(), endpoint)
	if err == nil && sub.UserID != currentUser(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	if err != nil {
		respondError(c, err, "subscription not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"endpoint": sub.Endpoint, "created_at": sub.CreatedAt})
}

// VAPIDPublicKey hands browsers the application server key they subscribe with.
func (h *Handler) VAPIDPublicKey(c *gin.Context) {
	var key string
	if h.webpush != nil {
		key = h.webpush.VAPIDPublicKey
	}
	if key == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": key})
}
