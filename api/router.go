package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/api/handlers"
	"github.com/yourusername/audio-extract-go/api/middleware"
	"github.com/yourusername/audio-extract-go/internal/app"
)

// SetupRouter sets up the HTTP router
func SetupRouter(service *app.ExtractService, log *zap.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	videoHandler := handlers.NewVideoHandler(service, log)
	healthHandler := handlers.NewHealthHandler(service)

	api := router.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		video := api.Group("/video")
		{
			video.GET("/info", videoHandler.Info)
			video.GET("/progress", videoHandler.Progress)
			video.GET("/download", videoHandler.Download)
			video.GET("/history", videoHandler.History)
		}
	}

	return router
}
