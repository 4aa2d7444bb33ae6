package transport

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/lensmaster/internal/entity"
	"github.com/ds124wfegd/lensmaster/internal/service"
	"github.com/ds124wfegd/lensmaster/pkg/hub"

	"github.com/gin-gonic/gin"
)

const maxOrdersLimit = 100

type BookingHandler struct {
	bookingService service.BookingService
	stream         *hub.Hub
}

// NewBookingHandler creates the handler. stream may be nil, which disables /orders/stream.
func NewBookingHandler(bookingService service.BookingService, stream *hub.Hub) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, stream: stream}
}

// OrderResponse is a placed order plus the owner contact link
type OrderResponse struct {
	Order       *entity.Order `json:"order"`
	WhatsAppURL string        `json:"whatsapp_url,omitempty"`
}

func (h *BookingHandler) GetCameras(c *gin.Context) {
	ctx := c.Request.Context()
	catalog := h.bookingService.Catalog(ctx)

	respondOK(c, http.StatusOK, "Cameras retrieved successfully", catalog, gin.H{
		"count":   len(catalog),
		"pricing": h.bookingService.Pricing(ctx),
	})
}

func (h *BookingHandler) GetCamera(c *gin.Context) {
	camera, err := h.bookingService.Camera(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Camera retrieved successfully", camera, nil)
}

func (h *BookingHandler) GetQuote(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")

	quote, err := h.bookingService.Quote(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Quote calculated", quote, gin.H{
		"currency": h.bookingService.Pricing(c.Request.Context()).Currency,
	})
}

func (h *BookingHandler) PlaceOrder(c *gin.Context) {
	var req entity.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	order, err := h.bookingService.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Order placed successfully", OrderResponse{
		Order:       order,
		WhatsAppURL: h.bookingService.ContactLink(order),
	}, nil)
}

func (h *BookingHandler) GetOrders(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid limit"})
		return
	}
	if limit > maxOrdersLimit {
		limit = maxOrdersLimit
	}

	orders := h.bookingService.RecentOrders(c.Request.Context(), limit)

	respondOK(c, http.StatusOK, fmt.Sprintf("Found %d orders", len(orders)), orders, gin.H{
		"count": len(orders),
		"limit": limit,
	})
}

// StreamOrders upgrades to a websocket that receives every new order.
func (h *BookingHandler) StreamOrders(c *gin.Context) {
	if h.stream == nil {
		respondError(c, fmt.Errorf("%w: order stream", entity.ErrFeatureDisabled))
		return
	}
	hub.ServeWS(h.stream, c.Writer, c.Request)
}
