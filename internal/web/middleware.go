package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/profilefields/internal/access"
)

// Request headers read by the middleware.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
)

const ctxRequestID = "request_id"

// requestID tags each request with an id, reusing one sent by the client.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// logRequests logs each request and its response.
func logRequests(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		log.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString(ctxRequestID)),
		)
		c.Next()
		log.Info("HTTP Response",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString(ctxRequestID)),
		)
	}
}

// identifyCaller reads the caller from X-User-ID and Accept-Language.
// Requests without X-User-ID are anonymous.
func identifyCaller(defaultLocale string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := access.Caller{Locale: c.GetHeader("Accept-Language")}
		if caller.Locale == "" {
			caller.Locale = defaultLocale
		}
		if raw := strings.TrimSpace(c.GetHeader(HeaderUserID)); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id < 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + HeaderUserID})
				return
			}
			caller.UserID = id
		}
		c.Request = c.Request.WithContext(access.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

// requireCapability rejects callers without capability at system scope.
func requireCapability(checker access.Checker, capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !checker.HasCapability(callerOf(c), capability, access.SystemScope()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing capability " + capability})
			return
		}
		c.Next()
	}
}

func callerOf(c *gin.Context) access.Caller {
	return access.CallerFromContext(c.Request.Context())
}
