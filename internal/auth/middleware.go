package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalKey = "auth.principal"

type Middleware struct {
	tokens *TokenManager
	logger *zap.Logger
}

func NewMiddleware(tokens *TokenManager, logger *zap.Logger) *Middleware {
	return &Middleware{tokens: tokens, logger: logger}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// principal on the gin context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := m.tokens.Verify(bearerToken(c))
		if err != nil {
			m.logger.Debug("rejected request", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "unauthenticated"})
			return
		}
		c.Set(principalKey, *principal)
		c.Next()
	}
}

// RequireRole must run after RequireAuth
func (m *Middleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok || !principal.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrForbidden.Error(), "code": "forbidden"})
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal RequireAuth stored on c
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// WithPrincipal stores p on c. Tests use it to skip token handling.
func WithPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
