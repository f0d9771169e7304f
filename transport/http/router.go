package http

import (
	"github.com/gin-gonic/gin"
	"github.com/layer-3/afip/service"
	"github.com/rs/zerolog"
)

// RouterConfig holds the gateway settings
type RouterConfig struct {
	APIToken string
	Logger   zerolog.Logger
}

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, billingService *service.BillingService, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(cfg.Logger))

	handlers := NewBillingHandlers(authService, billingService)

	router.GET("/health", handlers.Health)

	api := router.Group("/")
	api.Use(AuthMiddleware(cfg.APIToken))
	{
		api.GET("/status", handlers.Status)
		api.POST("/ticket", handlers.Ticket)
		api.GET("/totals", handlers.Totals)
		api.GET("/vouchers/:type/last", handlers.LastVoucher)
		api.GET("/vouchers/:type/next", handlers.NextVoucher)
		api.POST("/invoices", handlers.Authorize)
		api.GET("/points-of-sale", handlers.PointsOfSale)
	}

	return router
}
