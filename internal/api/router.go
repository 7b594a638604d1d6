package api

import (
	"net/http"
	"time"

	"gocausal/internal"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the JSON API. hub may be nil, which disables /events.
func NewRouter(runs *RunHandler, hub *SSEHub, logger *internal.Logger) *gin.Engine {
	logger = internal.OrDefault(logger).With("api")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	runs.Register(r)
	if hub != nil {
		r.GET("/events", hub.HandleSSE)
	}
	return r
}

func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}
