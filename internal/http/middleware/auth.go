// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity from the Authorization header via
// an auth.IdentityVerifier and stores it in the Gin context. Handlers read
// it back with UserID / IdentityFrom and never inspect tokens themselves.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/afritrade/go-trade-backend/internal/auth"
)

const (
	// userIDKey is the Gin context key holding the verified user id.
	userIDKey = "userID"
	// identityKey is the Gin context key holding the full auth.Identity.
	identityKey = "identity"
)

// Authenticate verifies the bearer token on every request and stores the
// resulting identity in the context. Requests without a valid token are
// rejected with 401; authorization decisions (ownership, admin) happen
// later, in RequireAdmin or in the handlers.
func Authenticate(v auth.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c, "missing bearer token")
			return
		}
		id, err := v.Verify(token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(userIDKey, id.UserID)
		c.Set(identityKey, id)
		c.Next()
	}
}

// AuthenticateOptional resolves the identity when a valid bearer token is
// present and continues anonymously otherwise. Used for endpoints that
// accept unauthenticated traffic but attach ownership when they can, such
// as quote requests.
func AuthenticateOptional(v auth.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c.GetHeader("Authorization")); token != "" {
			if id, err := v.Verify(token); err == nil {
				c.Set(userIDKey, id.UserID)
				c.Set(identityKey, id)
			}
		}
		c.Next()
	}
}

// RequireAdmin aborts with 403 unless the verified identity carries the
// back-office role. Must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IdentityFrom(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "forbidden",
				"message":    "admin role required",
			})
			return
		}
		c.Next()
	}
}

// UserID returns the verified user id for the request, empty when
// Authenticate did not run.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IdentityFrom returns the verified identity, zero-valued when absent.
func IdentityFrom(c *gin.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(auth.Identity); ok {
			return id
		}
	}
	return auth.Identity{}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}

// bearerToken extracts the token from "Bearer <token>"; empty when the
// scheme is missing or different.
func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
