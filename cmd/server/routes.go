package main

import (
	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/proptax/internal/handlers"
	"github.com/stwalsh4118/proptax/internal/logger"
	"github.com/stwalsh4118/proptax/internal/middleware"
)

type routeHandlers struct {
	health       *handlers.HealthHandler
	auth         *handlers.AuthHandler
	properties   *handlers.PropertyHandler
	calculations *handlers.TaxCalculationHandler
	estimate     *handlers.EstimateHandler
	assistant    *handlers.AssistantHandler
	stats        *handlers.StatsHandler
}

func newRouter(origins []string, log *logger.Logger, h routeHandlers, tokens middleware.TokenParser) *gin.Engine {
	router := gin.New()

	// RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(origins))

	router.GET("/health", h.health.Health)
	router.GET("/health/ready", h.health.Ready)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", h.health.Info)

		v1.POST("/auth/register", h.auth.Register)
		v1.POST("/auth/login", h.auth.Login)

		protected := v1.Group("", middleware.Auth(tokens))
		{
			protected.GET("/auth/me", h.auth.Me)

			protected.POST("/tax-estimate", h.estimate.Estimate)
			protected.POST("/tax-assistant", h.assistant.Ask)

			properties := protected.Group("/properties")
			{
				properties.GET("", h.properties.List)
				properties.POST("", h.properties.Create)
				properties.GET("/:id", h.properties.Get)
				properties.PUT("/:id", h.properties.Update)
				properties.DELETE("/:id", h.properties.Delete)
				properties.POST("/:id/tax-calculations", h.calculations.Calculate)
			}

			calculations := protected.Group("/tax-calculations")
			{
				calculations.GET("", h.calculations.List)
				calculations.GET("/:id", h.calculations.Get)
				calculations.PATCH("/:id/payment", h.calculations.UpdatePayment)
				calculations.DELETE("/:id", h.calculations.Delete)
			}

			protected.GET("/stats", h.stats.Dashboard)
		}
	}

	return router
}
