package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the client-held credential slot for session tokens.
const SessionCookieName = "auth-token"

// CookieWriter applies the session cookie contract: http-only,
// same-site-strict, path /, secure outside development, max-age matching the
// token lifetime.
type CookieWriter struct {
	Secure bool
	TTL    time.Duration
}

// NewCookieWriter builds a writer for the given environment and token TTL.
func NewCookieWriter(secure bool, ttl time.Duration) *CookieWriter {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &CookieWriter{Secure: secure, TTL: ttl}
}

// Set stores the signed token on the response.
func (w *CookieWriter) Set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, token, int(w.TTL.Seconds()), "/", "", w.Secure, true)
}

// Clear removes the session cookie. This acts purely at the cookie layer:
// an unexpired token cached elsewhere by the client remains valid.
func (w *CookieWriter) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", w.Secure, true)
}

// TokenFromRequest extracts the session token from the request cookie.
func TokenFromRequest(c *gin.Context) string {
	token, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return token
}
