package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func findSessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", SessionCookieName)
	return nil
}

func TestCookieWriterSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writer := NewCookieWriter(true, 3*time.Hour)
	writer.Set(c, "signed-token")

	cookie := findSessionCookie(t, w)
	require.Equal(t, "signed-token", cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, "/", cookie.Path)
	require.Equal(t, int((3 * time.Hour).Seconds()), cookie.MaxAge)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
}

func TestCookieWriterClear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writer := NewCookieWriter(false, 0)
	writer.Clear(c)

	cookie := findSessionCookie(t, w)
	require.Empty(t, cookie.Value)
	require.Negative(t, cookie.MaxAge)
	require.False(t, cookie.Secure)
}

func TestTokenFromRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, TokenFromRequest(c))

	c.Request.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	require.Equal(t, "tok", TokenFromRequest(c))
}
