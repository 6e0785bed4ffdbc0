package httpserver

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

var errNoUser = errors.New("unauthorized")

func userID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(middleware.CtxUserID).(string)
	if !ok || s == "" {
		return uuid.Nil, errNoUser
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errNoUser
	}
	return id, nil
}

func pathID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	return id, err == nil
}
