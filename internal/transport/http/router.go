package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig lists what the HTTP surface is built from. A nil Builder leaves
// out the WebSocket endpoint.
type RouterConfig struct {
	API         *APIHandler
	Builder     *WSHandler
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter wires the REST API, the builder WebSocket and health checks.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for _, prefix := range []string{"/api", "/v1"} {
		surveys := router.Group(prefix + "/surveys")
		surveys.POST("/generate", cfg.API.GenerateSurvey)
		surveys.POST("/:id/responses", cfg.API.SaveResponses)
	}

	if cfg.Builder != nil {
		router.GET("/ws/builder", gin.WrapF(cfg.Builder.ServeWS))
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"POST", "GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Content-Length"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
