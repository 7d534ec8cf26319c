package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thermo-monitor-backend/internal/model"
	"thermo-monitor-backend/internal/store"
)

// ListDevices returns the caller's active devices.
func (h *Handler) ListDevices(c *gin.Context) {
	page, err := h.store.Devices().PaginateByUser(c.Request.Context(), currentUser(c), pageRequest(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	writePage(c, page, newDeviceResource)
}

type createDeviceRequest struct {
	SerialNumber string `json:"serial_number" binding:"required,max=255"`
	Name         string `json:"name" binding:"required,max=255"`
	IsActive     *bool  `json:"is_active"`
}

// CreateDevice registers a device to the caller. Devices are active unless stated otherwise.
func (h *Handler) CreateDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	if _, err := h.store.Devices().FindBySerialNumber(ctx, req.SerialNumber); err == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "the serial number has already been taken"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(c, err, "")
		return
	}

	device := &model.Device{
		SerialNumber: req.SerialNumber,
		Name:         req.Name,
		UserID:       currentUser(c),
		IsActive:     true,
	}
	if req.IsActive != nil {
		device.IsActive = *req.IsActive
	}
	if err := h.store.Devices().Create(ctx, device); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": newDeviceResource(*device), "message": "Device created successfully"})
}

// ownedDevice loads the device named by :id if the caller owns it, writing the error response otherwise.
func (h *Handler) ownedDevice(c *gin.Context) (*model.Device, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	device, err := h.store.Devices().FindByUser(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err, "device not found")
		return nil, false
	}
	return device, true
}

// GetDevice shows one of the caller's devices.
func (h *Handler) GetDevice(c *gin.Context) {
	device, ok := h.ownedDevice(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newDeviceResource(*device)})
}

type updateDeviceRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// UpdateDevice toggles the activation flag, the only mutable device attribute.
func (h *Handler) UpdateDevice(c *gin.Context) {
	device, ok := h.ownedDevice(c)
	if !ok {
		return
	}
	var req updateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.Devices().SetActive(c.Request.Context(), device, *req.IsActive); err != nil {
		respondError(c, err, "device not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newDeviceResource(*device), "message": "Device updated successfully"})
}

type transferDeviceRequest struct {
	NewOwnerID uint `json:"new_owner_id" binding:"required"`
}

// TransferDevice hands one of the caller's devices to another existing user.
func (h *Handler) TransferDevice(c *gin.Context) {
	device, ok := h.ownedDevice(c)
	if !ok {
		return
	}
	var req transferDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.Devices().TransferOwnership(c.Request.Context(), device, req.NewOwnerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "the selected new owner does not exist"})
			return
		}
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newDeviceResource(*device), "message": "Device ownership transferred successfully"})
}

// DeleteDevice removes one of the caller's devices with its history.
func (h *Handler) DeleteDevice(c *gin.Context) {
	device, ok := h.ownedDevice(c)
	if !ok {
		return
	}
	if err := h.store.Devices().Delete(c.Request.Context(), device); err != nil {
		respondError(c, err, "device not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device deleted successfully"})
}
