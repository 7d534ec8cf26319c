package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"thermo-monitor-backend/internal/alerting"
	"thermo-monitor-backend/internal/auth"
	"thermo-monitor-backend/internal/ingest"
	"thermo-monitor-backend/internal/mw"
	"thermo-monitor-backend/internal/parse"
	"thermo-monitor-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	alerts     *alerting.Service
	recorder   *ingest.Recorder
	issuer     *auth.Issuer
	thresholds alerting.ThresholdSource
	webpush    *webpush.Options
}

// Deps bundles what NewHandler needs.
type Deps struct {
	Store      store.Store
	Alerts     *alerting.Service
	Recorder   *ingest.Recorder
	Issuer     *auth.Issuer
	Thresholds alerting.ThresholdSource
	WebPush    *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:      d.Store,
		alerts:     d.Alerts,
		recorder:   d.Recorder,
		issuer:     d.Issuer,
		thresholds: d.Thresholds,
		webpush:    d.WebPush,
	}
}

// pageMeta is the pagination block of list responses.
type pageMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

type pageResponse struct {
	Data interface{} `json:"data"`
	Meta pageMeta    `json:"meta"`
}

func writePage[T, R any](c *gin.Context, page *store.Page[T], convert func(T) R) {
	data := make([]R, 0, len(page.Items))
	for _, item := range page.Items {
		data = append(data, convert(item))
	}
	c.JSON(http.StatusOK, pageResponse{
		Data: data,
		Meta: pageMeta{
			CurrentPage: page.CurrentPage,
			LastPage:    page.LastPage,
			PerPage:     page.PerPage,
			Total:       page.Total,
		},
	})
}

func pageRequest(c *gin.Context) store.PageRequest {
	return store.PageRequest{
		Page:    parse.PositiveInt(c.Query("page"), 1),
		PerPage: parse.PositiveInt(c.Query("per_page"), store.DefaultPerPage),
	}
}

// currentUser returns the authenticated user ID. Routes using it sit behind RequireAuth.
func currentUser(c *gin.Context) uint {
	id, _ := mw.UserID(c)
	return id
}

// pathID parses the named path parameter, writing a 400 when it is invalid.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := parse.ID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
}

// respondError maps domain errors to status codes. notFoundMsg is used for ErrNotFound.
func respondError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ingest.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, ingest.ErrInvalidReading):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		_ = c.Error(err)
		l := mw.Logger(c)
		l.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
