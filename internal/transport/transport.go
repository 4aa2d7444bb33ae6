package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/lensmaster/config"
	"github.com/ds124wfegd/lensmaster/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

func InitRoutes(cfg *config.Config, bookingHandler *BookingHandler, assistantHandler *AssistantHandler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	// API routes
	api := router.Group("/api/v1")
	{
		booking := api.Group("")
		booking.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		{
			booking.GET("/cameras", bookingHandler.GetCameras)
			booking.GET("/cameras/:id", bookingHandler.GetCamera)
			booking.GET("/quote", bookingHandler.GetQuote)
			booking.POST("/orders", bookingHandler.PlaceOrder)
			booking.GET("/orders", bookingHandler.GetOrders)
		}

		// websocket connections outlive any request timeout
		api.GET("/orders/stream", bookingHandler.StreamOrders)

		// Assistant routes
		ai := api.Group("/assistant")
		ai.Use(middleware.Timeout(cfg.Assistant.Timeout))
		{
			ai.POST("/fast", assistantHandler.Fast)
			ai.POST("/deep", assistantHandler.Deep)
			ai.POST("/search", assistantHandler.Search)
			ai.POST("/image", assistantHandler.GenerateImage)
			ai.POST("/edit", assistantHandler.EditImage)
			ai.POST("/analyze", assistantHandler.Analyze)
			ai.POST("/video", assistantHandler.GenerateVideo)
			ai.POST("/transcribe", assistantHandler.Transcribe)
			ai.POST("/chat", assistantHandler.Chat)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"version":   cfg.Server.AppVersion,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	return router
}
