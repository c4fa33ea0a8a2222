package httpx

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/minimall/minimall/internal/auth"
)

// Context keys set by the auth middleware.
const (
	CtxUserID = "userId"
	CtxScope  = "scope"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("rid", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rid, _ := c.Get("rid")
		log.Printf("[http] rid=%v %s %s status=%d dur=%s",
			rid, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// RateLimit guards all routes with one shared token bucket, the coarse
// front-door limiter sitting before any business logic.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			Fail(c, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// Auth requires a valid access token with the given scope and stores the
// caller's user id on the context.
func Auth(jwtSvc *auth.JWTService, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			Unauthorized(c, "Token缺失")
			return
		}
		claims, err := jwtSvc.ValidateAccessToken(token)
		if err != nil {
			if err == auth.ErrExpiredToken {
				Unauthorized(c, "Token已过期")
				return
			}
			Unauthorized(c, "Token无效")
			return
		}
		if claims.Scope != scope {
			Forbidden(c, "无权限")
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxScope, claims.Scope)
		c.Next()
	}
}

// OptionalAuth attaches the user id when a valid token is present and
// lets the request through otherwise.
func OptionalAuth(jwtSvc *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, err := jwtSvc.ValidateAccessToken(token); err == nil {
				c.Set(CtxUserID, claims.UserID)
				c.Set(CtxScope, claims.Scope)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, empty when anonymous.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}
