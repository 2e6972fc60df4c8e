package middleware

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/cinema-chronicles/pkg/jwt"
	pkglog "github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/response"
)

const (
	UserIDKey     = "user_id"
	EmailKey      = "email"
	UsernameKey   = "username"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates access tokens. *jwt.Manager implements it.
type TokenValidator interface {
	ValidateAccess(token string) (*jwt.Claims, error)
}

// AuthMiddleware authenticates requests carrying a bearer access token.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth rejects requests without a valid access token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "missing or malformed authorization header")
			return
		}

		claims, err := m.validator.ValidateAccess(token)
		if err != nil {
			l := pkglog.Ctx(c.Request.Context())
			l.Debug().Err(err).Msg("auth: token rejected")
			switch {
			case errors.Is(err, jwt.ErrExpiredToken):
				response.Unauthorized(c, "token has expired")
			case errors.Is(err, jwt.ErrRevokedToken):
				response.Unauthorized(c, "token has been revoked")
			default:
				response.Unauthorized(c, "invalid token")
			}
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is present and lets
// anonymous requests through. An invalid token is treated as anonymous.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := m.validator.ValidateAccess(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(EmailKey, claims.Email)
	c.Set(UsernameKey, claims.Username)
	c.Request = c.Request.WithContext(
		pkglog.With(c.Request.Context(), pkglog.FieldUserID, claims.UserID),
	)
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(UserIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// GetUserIDUint returns the user ID parsed as a database key.
func GetUserIDUint(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(GetUserID(c), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// GetUsername extracts the username from the Gin context.
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(UsernameKey); exists {
		if s, ok := username.(string); ok {
			return s
		}
	}
	return ""
}

// GetEmail extracts the email from the Gin context.
func GetEmail(c *gin.Context) string {
	if email, exists := c.Get(EmailKey); exists {
		if s, ok := email.(string); ok {
			return s
		}
	}
	return ""
}
