package cookie

import (
	"net/http"

	"github.com/dgellow/chat-front/internal/log"
)

// SessionCookie is the fixed cookie name the SPA bundle was served with.
const SessionCookie = "opengpt_session"

// SetSession sets the session cookie. The cookie is intentionally neither
// Secure nor HttpOnly: the SPA reads it client-side and the value is the
// session's own wire encoding, so the attributes are part of the contract.
func SetSession(w http.ResponseWriter, value string, maxAgeSeconds int64) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: false,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAgeSeconds),
	})

	log.LogDebugWithFields("cookie", "Session cookie set", map[string]any{
		"maxAge":   maxAgeSeconds,
		"sameSite": "Lax",
	})
}

// ClearSession removes the session cookie by setting MaxAge to -1.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	log.LogDebugWithFields("cookie", "Session cookie cleared", nil)
}

// GetSession retrieves the session cookie value. Returns http.ErrNoCookie
// when the request carries no session.
func GetSession(r *http.Request) (string, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}
