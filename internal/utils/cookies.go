// internal/utils/cookies.go
package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieSettings describes how token cookies are written.
type CookieSettings struct {
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// SetTokenCookie writes an HttpOnly cookie that expires together with the token.
func SetTokenCookie(c *gin.Context, settings CookieSettings, name, value string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     settings.Path,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: settings.SameSite,
	})
}

func ClearTokenCookie(c *gin.Context, settings CookieSettings, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     settings.Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: settings.SameSite,
	})
}
