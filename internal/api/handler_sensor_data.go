package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"thermo-monitor-backend/internal/ingest"
	"thermo-monitor-backend/internal/parse"
)

type createSensorDataRequest struct {
	DeviceSerial string   `json:"device_serial" binding:"required"`
	Temperature  *float64 `json:"temperature" binding:"required"`
	RecordedAt   string   `json:"recorded_at"`
}

// CreateSensorData records a reading posted by a device. The endpoint is
// unauthenticated; devices identify themselves by serial number.
func (h *Handler) CreateSensorData(c *gin.Context) {
	var req createSensorDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reading := ingest.Reading{DeviceSerial: req.DeviceSerial, Temperature: *req.Temperature}
	if req.RecordedAt != "" {
		ts, err := parse.Timestamp(req.RecordedAt, time.UTC)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		reading.RecordedAt = &ts
	}

	res, err := h.recorder.Record(c.Request.Context(), reading, ingest.SourceHTTP)
	if err != nil {
		respondError(c, err, "device not found")
		return
	}

	alerts := make([]alertResource, 0, len(res.Alerts))
	for _, a := range res.Alerts {
		alerts = append(alerts, newAlertResource(*a))
	}
	c.JSON(http.StatusCreated, gin.H{
		"data":    sensorDataConverter(h.thresholds.Thresholds())(*res.Reading),
		"alerts":  alerts,
		"message": "Sensor data recorded successfully",
	})
}

// ListSensorData returns readings from all of the caller's devices, newest first.
func (h *Handler) ListSensorData(c *gin.Context) {
	page, err := h.store.SensorData().PaginateByUser(c.Request.Context(), currentUser(c), pageRequest(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	writePage(c, page, sensorDataConverter(h.thresholds.Thresholds()))
}

// ListDeviceSensorData returns readings of one owned device.
func (h *Handler) ListDeviceSensorData(c *gin.Context) {
	device, ok := h.ownedDevice(c)
	if !ok {
		return
	}
	page, err := h.store.SensorData().PaginateByDevice(c.Request.Context(), device.ID, pageRequest(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	writePage(c, page, sensorDataConverter(h.thresholds.Thresholds()))
}

// DeviceStatistics summarises the readings of one owned device.
func (h *Handler) DeviceStatistics(c *gin.Context) {
	device, ok := h.ownedDevice(c)
	if !ok {
		return
	}
	stats, err := h.store.SensorData().Statistics(c.Request.Context(), device.ID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, newStatisticsResource(stats, h.thresholds.Thresholds()))
}
