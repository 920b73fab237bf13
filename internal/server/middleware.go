package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/shopfront/internal/auth"
	"github.com/yourusername/shopfront/internal/metrics"
	"github.com/yourusername/shopfront/pkg/cache"
)

// Headers and context keys.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderSessionID = "X-Session-ID"

	ctxRequestID = "shopfront.requestID"
	ctxSessionID = "shopfront.sessionID"
	ctxUser      = "shopfront.user"

	maxSessionIDLen = 128
)

// RequestID propagates the caller's request id or issues a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// SessionID reads the browsing session id, issuing one when absent.
// The id is echoed back so the client can keep it.
func SessionID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderSessionID))
		if id == "" || len(id) > maxSessionIDLen {
			id = uuid.NewString()
		}
		c.Set(ctxSessionID, id)
		c.Header(HeaderSessionID, id)
		c.Next()
	}
}

// RequestLogger returns a middleware that logs request information
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Info("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}

// Metrics records every request by route template.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// CacheMetrics returns a middleware that adds cache metrics to the response headers.
// Headers are set before the handler writes its body.
func CacheMetrics(cacheInstance cache.ICache) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := cacheInstance.Stats(c)
		if err == nil {
			c.Header("X-Cache-Hits", fmt.Sprintf("%d", stats.Hits))
			c.Header("X-Cache-Misses", fmt.Sprintf("%d", stats.Misses))
			c.Header("X-Cache-Hit-Ratio", fmt.Sprintf("%.2f", stats.HitRatio()))
			c.Header("X-Cache-Entries", fmt.Sprintf("%d", stats.EntryCount))
		}
		c.Next()
	}
}

// OptionalAuth resolves a bearer token when one is sent. Invalid tokens are ignored.
func OptionalAuth(a *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if u, err := a.Authenticate(c, token); err == nil {
				c.Set(ctxUser, u)
			}
		}
		c.Next()
	}
}

// RequireAuth rejects requests without a valid bearer token with 401.
func RequireAuth(a *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := a.Authenticate(c, bearerToken(c))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(ctxUser, u)
		c.Next()
	}
}

// RequireAdmin must follow RequireAuth. Non-admin users get 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := currentUser(c)
		if !ok || !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func currentUser(c *gin.Context) (auth.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return auth.User{}, false
	}
	u, ok := v.(auth.User)
	return u, ok
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}
