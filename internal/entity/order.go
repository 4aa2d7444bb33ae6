package entity

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
)

type Order struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"customer_name"`
	CameraName   string      `json:"camera_name"`
	StartDate    string      `json:"start_date"`
	EndDate      string      `json:"end_date"`
	DurationDays int         `json:"duration_days"`
	TotalPrice   int64       `json:"total_price"`
	Status       OrderStatus `json:"status"`
}

type BookingRequest struct {
	CustomerName string `json:"customer_name"`
	CameraID     string `json:"camera_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

// Validate checks the fields the billing calculator expects to be present.
func (r *BookingRequest) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.StartDate) == "" || strings.TrimSpace(r.EndDate) == "" {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if _, err := ParseDate(r.StartDate); err != nil {
		return fmt.Errorf("%w: start date: %v", ErrInvalidInput, err)
	}
	if _, err := ParseDate(r.EndDate); err != nil {
		return fmt.Errorf("%w: end date: %v", ErrInvalidInput, err)
	}
	return nil
}
