// Package billing prices camera rentals and turns booking requests into orders.
package billing

import (
	"time"

	"github.com/ds124wfegd/lensmaster/internal/entity"

	"github.com/google/uuid"
)

// FallbackCameraName is used when a booking references a camera missing from the catalog.
const FallbackCameraName = "Standard Pro Camera"

const secondsPerDay = 24 * 60 * 60

// Quote is the estimated bill for a date range.
type Quote struct {
	DurationDays int   `json:"duration_days"`
	DailyRate    int64 `json:"daily_rate"`
	TotalPrice   int64 `json:"total_price"`
}

// DaysBetween returns the whole number of billed days between two instants.
// Partial days round up, the order of the arguments does not matter and the
// result is never below one. The difference is taken in seconds plus a
// nanosecond remainder so ranges beyond time.Duration's ~292 years stay exact.
func DaysBetween(start, end time.Time) int {
	if end.Before(start) {
		start, end = end, start
	}

	secs := end.Unix() - start.Unix()
	nanos := int64(end.Nanosecond()) - int64(start.Nanosecond())
	if nanos < 0 {
		secs--
		nanos += int64(time.Second)
	}

	days := secs / secondsPerDay
	if secs%secondsPerDay != 0 || nanos != 0 {
		days++
	}
	if days <= 0 {
		return 1
	}
	return int(days)
}

// ComputeDuration is DaysBetween over date strings. Input that does not parse
// bills a single day.
func ComputeDuration(startDate, endDate string) int {
	start, err := entity.ParseDate(startDate)
	if err != nil {
		return 1
	}
	end, err := entity.ParseDate(endDate)
	if err != nil {
		return 1
	}
	return DaysBetween(start, end)
}

func ComputePrice(durationDays int, dailyRate int64) int64 {
	return int64(durationDays) * dailyRate
}

// ResolveCameraName never fails: unknown or empty ids map to FallbackCameraName.
func ResolveCameraName(cameraID string, catalog entity.Catalog) string {
	if m, ok := catalog.Find(cameraID); ok {
		return m.Name
	}
	return FallbackCameraName
}

// CreateOrder prices a validated request. It performs no I/O and every call
// yields a new order id.
func CreateOrder(req entity.BookingRequest, catalog entity.Catalog, dailyRate int64) *entity.Order {
	return newOrder(req, catalog, dailyRate, uuid.NewString)
}

func newOrder(req entity.BookingRequest, catalog entity.Catalog, dailyRate int64, newID func() string) *entity.Order {
	days := ComputeDuration(req.StartDate, req.EndDate)
	return &entity.Order{
		ID:           newID(),
		CustomerName: req.CustomerName,
		CameraName:   ResolveCameraName(req.CameraID, catalog),
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		DurationDays: days,
		TotalPrice:   ComputePrice(days, dailyRate),
		Status:       entity.OrderStatusPending,
	}
}

// Calculator binds the catalog and daily rate configured for the shop.
type Calculator struct {
	catalog   entity.Catalog
	dailyRate int64
	newID     func() string
}

func NewCalculator(catalog entity.Catalog, dailyRate int64) *Calculator {
	return &Calculator{
		catalog:   catalog,
		dailyRate: dailyRate,
		newID:     uuid.NewString,
	}
}

func (c *Calculator) DailyRate() int64 {
	return c.dailyRate
}

func (c *Calculator) Catalog() entity.Catalog {
	return c.catalog
}

func (c *Calculator) Quote(startDate, endDate string) Quote {
	days := ComputeDuration(startDate, endDate)
	return Quote{
		DurationDays: days,
		DailyRate:    c.dailyRate,
		TotalPrice:   ComputePrice(days, c.dailyRate),
	}
}

func (c *Calculator) CreateOrder(req entity.BookingRequest) *entity.Order {
	return newOrder(req, c.catalog, c.dailyRate, c.newID)
}
