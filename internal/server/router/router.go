package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/extractd/extractd/internal/server/middleware"
)

// ConvertHandler defines the interface for the conversion handler.
type ConvertHandler interface {
	HandleConvert(c *gin.Context)
	HandleFormats(c *gin.Context)
}

// New wires up handlers to the Gin engine.
func New(apiKey string, h ConvertHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())

	// Health check endpoint (no auth)
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	auth := middleware.WithAPIKey(apiKey)

	// Upstream route kept for existing clients.
	r.POST("/upload", auth, h.HandleConvert)

	v1 := r.Group("/api/v1", auth)
	{
		v1.POST("/convert", h.HandleConvert)
		v1.GET("/formats", h.HandleFormats)
	}

	return r
}
