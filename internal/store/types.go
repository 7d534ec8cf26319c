package store

import "thermo-monitor-backend/internal/model"

// DefaultPerPage is used when a request does not ask for a page size.
const DefaultPerPage = 15

// MaxPerPage caps client-supplied page sizes.
const MaxPerPage = 100

// PageRequest selects a 1-based page.
type PageRequest struct {
	Page    int
	PerPage int
}

// Normalize clamps the request into a valid window.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PerPage < 1 {
		r.PerPage = DefaultPerPage
	}
	if r.PerPage > MaxPerPage {
		r.PerPage = MaxPerPage
	}
	return r
}

func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.PerPage
}

// Page is a window of results plus the totals needed to render pagination metadata.
type Page[T any] struct {
	Items       []T
	Total       int64
	CurrentPage int
	PerPage     int
	LastPage    int
}

// NewPage builds a Page. LastPage is at least 1, even for an empty result.
func NewPage[T any](items []T, total int64, req PageRequest) *Page[T] {
	last := int((total + int64(req.PerPage) - 1) / int64(req.PerPage))
	if last < 1 {
		last = 1
	}
	return &Page[T]{
		Items:       items,
		Total:       total,
		CurrentPage: req.Page,
		PerPage:     req.PerPage,
		LastPage:    last,
	}
}

// Statistics summarises the readings of one device. Aggregates are nil
// when the device has no readings.
type Statistics struct {
	TotalReadings      int64
	AverageTemperature *float64
	MinTemperature     *float64
	MaxTemperature     *float64
	LatestReading      *model.SensorData
}
