package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSetSession(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSession(rec, "encoded-session", 3600)

	c := setCookieFrom(t, rec)
	assert.Equal(t, SessionCookie, c.Name)
	assert.Equal(t, "encoded-session", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	// The SPA reads this cookie from document.cookie over plain HTTP, so
	// both flags stay off.
	assert.False(t, c.HttpOnly)
	assert.False(t, c.Secure)
}

func TestClearSession(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearSession(rec)

	c := setCookieFrom(t, rec)
	assert.Equal(t, SessionCookie, c.Name)
	assert.Empty(t, c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Negative(t, c.MaxAge)
}

func TestGetSession(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "v"})

		v, err := GetSession(r)
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})

	t.Run("absent", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := GetSession(r)
		assert.ErrorIs(t, err, http.ErrNoCookie)
	})
}
