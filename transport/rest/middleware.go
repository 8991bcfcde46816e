package rest

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-backend/internal/entity"
)

const (
	headerUsername = "X-Username"
	bearerPrefix   = "Bearer "
	identityKey    = "identity"
)

type tokenParser interface {
	ParseToken(token string) (string, error)
}

// identity resolves the requester from a bearer token issued at login or,
// failing that, from the X-Username header.
func identity(tokens tokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			username, err := resolveIdentity(c.Request(), tokens)
			if err != nil {
				return err
			}

			c.Set(identityKey, username)
			return next(c)
		}
	}
}

func resolveIdentity(r *http.Request, tokens tokenParser) (string, error) {
	var username string

	if header := r.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(header, bearerPrefix) {
		subject, err := tokens.ParseToken(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			return "", err
		}

		username = subject
	} else {
		username = strings.TrimSpace(r.Header.Get(headerUsername))
	}

	if username == "" {
		return "", apperror.ErrMissingIdentity
	}

	if entity.IsReservedName(username) {
		return "", apperror.ErrReservedIdentity
	}

	return username, nil
}

func requester(c echo.Context) string {
	username, _ := c.Get(identityKey).(string)
	return username
}
