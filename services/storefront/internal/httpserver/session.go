package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/Skotchmaster/storefront/services/storefront/internal/engine"
)

const (
	ctxSession = "session"
	ctxEngine  = "engine"
)

// Sessions resolves the caller's session from the access cookie and attaches the
// matching engine. An absent or invalid token is an anonymous session.
func Sessions(secret []byte, signInURL string, reg *engine.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := session.Anonymous(signInURL)
			if cookie, err := c.Cookie(tokens.AccessCookie); err == nil && cookie.Value != "" {
				s, err := session.FromToken(cookie.Value, secret, signInURL)
				if err != nil {
					logging.FromContext(c.Request().Context()).Debug("access_token_rejected", "error", err)
				} else {
					sess = s
				}
			}
			c.Set(ctxSession, sess)
			c.Set(ctxEngine, reg.For(sess))
			return next(c)
		}
	}
}

func sessionOf(c echo.Context) session.Session {
	s, _ := c.Get(ctxSession).(session.Session)
	return s
}

func engineOf(c echo.Context) *engine.Engine {
	e, _ := c.Get(ctxEngine).(*engine.Engine)
	return e
}
