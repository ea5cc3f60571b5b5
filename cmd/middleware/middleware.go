package middleware

import (
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"eventboard/internal/auth"
	"eventboard/internal/dto"
)

const userIDKey = "userID"

func LoggingMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()
		zlog.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// Auth rejects requests that do not carry a valid bearer token.
func Auth(tokens *auth.JWTManager) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		token, err := auth.TokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			dto.UnauthorizedError(c)
			c.Abort()
			return
		}

		userID, err := tokens.Validate(token)
		if err != nil {
			dto.UnauthorizedError(c)
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// OptionalAuth annotates the viewer when a valid token is present and treats
// everything else as anonymous.
func OptionalAuth(tokens *auth.JWTManager) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		if token, err := auth.TokenFromHeader(c.GetHeader("Authorization")); err == nil {
			if userID, err := tokens.Validate(token); err == nil {
				c.Set(userIDKey, userID)
			}
		}
		c.Next()
	}
}

// UserID reports the authenticated viewer, 0 for anonymous requests.
func UserID(c *ginext.Context) int64 {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0
	}
	id, ok := v.(int64)
	if !ok {
		return 0
	}
	return id
}
