package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/weiawesome/cinema-chronicles/pkg/response"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFHeaderName = "X-CSRFToken"
)

// CSRFConfig configures the double-submit cookie check.
type CSRFConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Secure   bool   `mapstructure:"secure"`
	Domain   string `mapstructure:"domain"`
	MaxAge   int    `mapstructure:"max_age"` // seconds
	SameSite string `mapstructure:"same_site"`
}

// CSRF protects unsafe methods with a double-submit token: the value of the
// csrftoken cookie must be echoed in the X-CSRFToken header.
type CSRF struct {
	cfg CSRFConfig
}

// NewCSRF creates the middleware.
func NewCSRF(cfg CSRFConfig) *CSRF {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 365 * 24 * 60 * 60
	}
	return &CSRF{cfg: cfg}
}

// Issue sets a csrftoken cookie if the request has none and returns the token.
func (m *CSRF) Issue(c *gin.Context) string {
	if token, err := c.Cookie(CSRFCookieName); err == nil && token != "" {
		return token
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	c.SetSameSite(m.sameSite())
	// The browser script reads the cookie, so it cannot be HttpOnly.
	c.SetCookie(CSRFCookieName, token, m.cfg.MaxAge, "/", m.cfg.Domain, m.cfg.Secure, false)
	return token
}

// Handler issues the token in a JSON body, for GET /auth/csrf.
func (m *CSRF) Handler(c *gin.Context) {
	response.Success(c, gin.H{"csrf_token": m.Issue(c)})
}

// Protect rejects unsafe requests whose header does not match the cookie.
func (m *CSRF) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.cfg.Enabled || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		cookie, err := c.Cookie(CSRFCookieName)
		header := c.GetHeader(CSRFHeaderName)
		if err != nil || cookie == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			response.Forbidden(c, "CSRF token missing or incorrect")
			return
		}
		c.Next()
	}
}

func (m *CSRF) sameSite() http.SameSite {
	switch strings.ToLower(m.cfg.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
