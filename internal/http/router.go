// README: gin router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scrapmate/internal/ai"
	"scrapmate/internal/http/handlers"
	"scrapmate/internal/http/middleware"
	"scrapmate/internal/infra"
	"scrapmate/internal/modules/order"
)

type RouterDeps struct {
	Order    *order.Service
	Quote    ai.QuoteProvider
	Verifier infra.TokenVerifier
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	orderHandler := handlers.NewOrderHandler(deps.Order)
	api.POST("/orders", orderHandler.Place)
	api.GET("/orders/:id", orderHandler.Get)

	vendorHandler := handlers.NewVendorHandler(deps.Order)
	vendor := api.Group("/vendor/orders")
	vendor.GET("/available", vendorHandler.ListAvailable)
	vendor.GET("/active", vendorHandler.ListActive)
	vendor.GET("/completed", vendorHandler.ListCompleted)
	vendor.POST("/:id/accept", vendorHandler.Accept)
	vendor.POST("/:id/start", vendorHandler.Start)
	vendor.POST("/:id/arrive", vendorHandler.Arrive)
	vendor.POST("/:id/complete", vendorHandler.Complete)
	vendor.POST("/:id/cancel", vendorHandler.Cancel)

	quoteHandler := handlers.NewQuoteHandler(deps.Quote)
	api.POST("/quote", quoteHandler.Quote)

	return r
}
