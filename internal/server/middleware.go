package server

import (
	"math/rand"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	userdomain "github.com/rolodexhq/rolodex/internal/user/domain"
)

const (
	headerRequestID = "X-Request-ID"
	contextUserKey  = "principal"
	bearerPrefix    = "Bearer "
)

// RequestID propagates an inbound request id or mints a fresh ulid.
func RequestID() gin.HandlerFunc {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" {
			id = ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
		}
		c.Set("request_id", id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		}
		if c.Writer.Status() >= 500 {
			log.Error("request", fields...)
		} else {
			log.Info("request", fields...)
		}
	}
}

// AuthRequired resolves the bearer token into a principal.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.usersvc.Resolve(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserKey, principal)
		c.Next()
	}
}

// VerifiedRequired rejects principals that have not confirmed their email.
func VerifiedRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := CurrentUser(c)
		if principal == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !principal.IsVerified {
			AbortWithError(c, userdomain.ErrNotVerified)
			return
		}
		c.Next()
	}
}

// RequireRole gates a route to the given roles.
func RequireRole(roles ...userdomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := CurrentUser(c)
		if principal == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

// RateLimitProfile throttles per-user access to the profile endpoint. A
// limiter failure fails open: the request proceeds.
func (s *Server) RateLimitProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.profileLimiter.Enabled() {
			c.Next()
			return
		}
		principal := CurrentUser(c)
		if principal == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		result, err := s.profileLimiter.Allow(c.Request.Context(), int64(principal.ID))
		if err != nil {
			c.Next()
			return
		}
		if !result.Allowed {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the resolved principal, or nil outside AuthRequired.
func CurrentUser(c *gin.Context) *userdomain.User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	principal, ok := v.(*userdomain.User)
	if !ok {
		return nil
	}
	return principal
}
