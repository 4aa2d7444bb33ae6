package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/ds124wfegd/lensmaster/internal/entity"
	"github.com/ds124wfegd/lensmaster/pkg/gemini"

	"github.com/gin-gonic/gin"
)

// SuccessResponse представляет успешный ответ
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondOK(c *gin.Context, status int, message string, data, meta interface{}) {
	c.JSON(status, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), ErrorResponse{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	var remote *gemini.RemoteError

	switch {
	case errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrEmptyPrompt),
		errors.Is(err, entity.ErrMissingMedia):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrCameraNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrFeatureDisabled),
		errors.Is(err, entity.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &remote), errors.Is(err, entity.ErrNoImage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
