package http

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/habitloop/stats-engine/internal/adapters/handler/http/middleware"
	"github.com/habitloop/stats-engine/internal/core/domain"
)

type RouterDependencies struct {
	StateHandler *StateHandler
	Store        domain.LocalStore
	Gateway      domain.RemoteGateway
	Redis        *redis.Client
	// BridgeToken, when set, gates every /api/v1 route behind a static
	// bearer token.
	BridgeToken string
	RateLimit   int
	RateWindow  time.Duration
	StartTime   time.Time
	Logger      *zap.Logger
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(deps.Logger))

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		// The engine keeps working from cache when the platform or
		// Redis is down, so component failures degrade the report
		// without failing the probe.
		status := "ok"

		storeStatus := "ok"
		if _, err := deps.Store.GetMetadata(c.Request.Context()); err != nil && !errors.Is(err, domain.ErrMetadataNotFound) {
			storeStatus = "unavailable"
			status = "degraded"
		}

		gatewayStatus := "connected"
		if err := deps.Gateway.Ping(c.Request.Context()); err != nil {
			gatewayStatus = "unreachable"
			status = "degraded"
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if deps.Redis.Ping(c.Request.Context()).Err() != nil {
				redisStatus = "unreachable"
				status = "degraded"
			}
		}

		c.JSON(200, gin.H{
			"status":  status,
			"store":   storeStatus,
			"gateway": gatewayStatus,
			"redis":   redisStatus,
			"uptime":  time.Since(deps.StartTime).String(),
		})
	})

	apiV1 := router.Group("/api/v1")
	if deps.BridgeToken != "" {
		apiV1.Use(middleware.BridgeAuthMiddleware(deps.BridgeToken))
	}

	intents := apiV1.Group("/intents")
	if deps.Redis != nil && deps.RateLimit > 0 {
		intents.Use(middleware.RateLimiterMiddleware(deps.Redis, deps.RateLimit, deps.RateWindow, deps.Logger))
	}

	deps.StateHandler.RegisterRoutes(apiV1, intents)

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("bridge request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
