package entity

import "errors"

var (
	// Booking errors
	ErrInvalidInput   = errors.New("invalid input")
	ErrCameraNotFound = errors.New("camera not found")

	// Notification errors
	ErrSinkUnavailable = errors.New("order sink unavailable")
	ErrUnknownSink     = errors.New("unknown order sink")

	// Assistant errors
	ErrMissingCredential = errors.New("assistant API key is not configured")
	ErrFeatureDisabled   = errors.New("assistant feature is disabled")
	ErrEmptyPrompt       = errors.New("prompt is required")
	ErrMissingMedia      = errors.New("media upload is required")
	ErrNoImage           = errors.New("no image returned")
)
