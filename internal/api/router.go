package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter assembles the HTTP routes. Everything under /api/v1 requires a
// session.
func NewRouter(handler *Handler, jwtSecret []byte, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(SessionMiddleware(jwtSecret, logger))
	{
		v1.POST("/definitions", handler.CreateDefinition)
		v1.POST("/definitions/:code/versions/:version/activate", handler.ActivateVersion)

		v1.POST("/instances", handler.CreateInstance)
		v1.GET("/instances/:id", handler.GetInstance)
		v1.POST("/instances/:id/cancel", handler.CancelInstance)
		v1.POST("/steps/:id/transition", handler.TransitionStep)

		v1.GET("/inbox/count", handler.GetInboxCount)
		v1.POST("/notifications/:id/read", handler.MarkNotificationRead)
		v1.POST("/notifications/:id/archive", handler.ArchiveNotification)

		v1.POST("/cases", handler.CreateCase)
		v1.GET("/cases/:id", handler.GetCase)
	}

	return router
}
