package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// sessionClaims are the token claims the engine consumes. Token issuance
// happens elsewhere; only identity and role set are read here.
type sessionClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// SessionMiddleware parses the bearer token and attaches the session to the
// request context. Requests without a valid session are rejected before any
// handler runs.
func SessionMiddleware(secret []byte, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		claims := &sessionClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			logger.Debug("Invalid session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}
		if claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}

		session := &port.Session{
			UserID: claims.Subject,
			Roles:  claims.Roles,
		}
		c.Request = c.Request.WithContext(port.WithSession(c.Request.Context(), session))
		c.Next()
	}
}

// sessionFrom returns the session attached by the middleware
func sessionFrom(c *gin.Context) *port.Session {
	s, _ := port.SessionFromContext(c.Request.Context())
	return s
}
