package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/venturedraft/memopilot/internal/common"
)

const contextKeyUserID = "user_id"

// authRequired validates the bearer token and puts the caller identity in
// the gin context. Requests with no valid identity are rejected before
// any row is touched.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			jsonError(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(s.cfg.Auth.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			jsonError(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			jsonError(c, http.StatusUnauthorized, "unauthorized", "invalid claims")
			return
		}
		userID, ok := claims["user_id"].(string)
		if !ok {
			jsonError(c, http.StatusUnauthorized, "unauthorized", "missing user_id claim")
			return
		}
		if _, err := uuid.Parse(userID); err != nil {
			jsonError(c, http.StatusUnauthorized, "unauthorized", "malformed user_id claim")
			return
		}

		c.Set(contextKeyUserID, userID)
		c.Request = c.Request.WithContext(common.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := uuid.New().String()
		c.Set("request_id", reqID)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), reqID))
		c.Next()
		s.logger.Info("http.request",
			"req_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

// callerID returns the authenticated user id set by authRequired.
func callerID(c *gin.Context) string {
	return c.GetString(contextKeyUserID)
}
