package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListAlerts returns the caller's active alerts, newest first.
func (h *Handler) ListAlerts(c *gin.Context) {
	page, err := h.store.Alerts().PaginateByUser(c.Request.Context(), currentUser(c), pageRequest(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	writePage(c, page, newAlertResource)
}

// ListDeviceAlerts returns the active alerts of one owned device.
func (h *Handler) ListDeviceAlerts(c *gin.Context) {
	device, ok := h.ownedDevice(c)
	if !ok {
		return
	}
	page, err := h.store.Alerts().PaginateByDevice(c.Request.Context(), device.ID, pageRequest(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	writePage(c, page, newAlertResource)
}

// GetAlert shows one alert of the caller, active or resolved.
func (h *Handler) GetAlert(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	alert, err := h.store.Alerts().FindByUser(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err, "alert not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newAlertResource(*alert)})
}

// ResolveAlert marks one of the caller's alerts resolved. Resolving again
// moves resolved_at forward.
func (h *Handler) ResolveAlert(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	alert, err := h.store.Alerts().FindByUser(ctx, currentUser(c), id)
	if err != nil {
		respondError(c, err, "alert not found")
		return
	}
	if err := h.alerts.Resolve(ctx, alert); err != nil {
		respondError(c, err, "alert not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newAlertResource(*alert), "message": "Alert resolved successfully"})
}
