package routes

import (
	"skillmarket_backend/internal/handlers"
	"skillmarket_backend/internal/logger"

	_ "skillmarket_backend/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Middlewares - обработчики, которые маршруты навешивают на отдельные группы
type Middlewares struct {
	Auth      gin.HandlerFunc
	RateLimit gin.HandlerFunc
}

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	mw Middlewares,
) {
	api := ginRouter.Group("/api")
	{
		if mw.RateLimit != nil {
			appHandlers.AuthHandler.RegisterRoutes(api, mw.RateLimit)
		} else {
			appHandlers.AuthHandler.RegisterRoutes(api)
		}
		appHandlers.ProfileHandler.RegisterRoutes(api, mw.Auth)
	}

	appHandlers.FileHandler.RegisterRoutes(ginRouter)
	ginRouter.GET("/health", appHandlers.HealthHandler.Health)
	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	logger.Info("HTTP routes registered", "routes", len(ginRouter.Routes()))
}
