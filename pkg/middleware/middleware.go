// Package middleware 提供 Gin 通用中间件（日志、trace、panic recover、限流、指标）
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wyfcoding/optionstrategy/pkg/logger"
	"github.com/wyfcoding/optionstrategy/pkg/metrics"
)

// RequestIDHeader 响应头中的请求 ID
const RequestIDHeader = "X-Request-ID"

// GinLoggingMiddleware Gin 日志中间件，生成 request_id / trace_id 并写入请求 context
func GinLoggingMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.New().String()
		}

		ctx := logger.ContextWith(c.Request.Context(), logger.RequestIDKey, requestID)
		ctx = logger.ContextWith(ctx, logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		m.RecordHTTPRequest(c.Request.Method, path, status, duration)

		logger.Info(ctx, "HTTP request completed",
			"method", c.Request.Method,
			"path", path,
			"status_code", status,
			"client_ip", c.ClientIP(),
			"duration", duration,
		)
	}
}

// GinRecoveryMiddleware Gin panic 恢复中间件
func GinRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "HTTP request panicked", "panic", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "Internal server error",
					"request_id": c.Writer.Header().Get(RequestIDHeader),
				})
			}
		}()
		c.Next()
	}
}

// GinRateLimitMiddleware Gin 限流中间件（令牌桶）
func GinRateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			return
		}
		c.Next()
	}
}
