package security

import (
	"net/http"
	"time"
)

const SessionCookieName = "token"

type CookieManager struct {
	Secure bool
	MaxAge time.Duration
}

func NewCookieManager(secure bool, maxAge time.Duration) *CookieManager {
	return &CookieManager{Secure: secure, MaxAge: maxAge}
}

func (m *CookieManager) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(m.MaxAge.Seconds()),
	})
}

func (m *CookieManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
