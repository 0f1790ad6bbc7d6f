package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

// NewSessionStore создаёт cookie store сессий покупателей.
// Cookie живёт ttl и помечается Secure только при secure=true, иначе браузер не вернёт её по http.
func NewSessionStore(secret []byte, ttl time.Duration, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
