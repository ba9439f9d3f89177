package middleware

import (
	"strings"

	"smart-planner/core/constants"
	"smart-planner/core/controller"
	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/core/utils"

	"github.com/labstack/echo/v4"
)

type Middleware struct {
	jwtSecret string
	base      controller.BaseController
}

func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{
		jwtSecret: jwtSecret,
		base:      controller.NewBaseController(),
	}
}

// AuthMiddleware accepts the access token from the access_token cookie or an
// Authorization bearer header and stores the claims on the context.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return m.base.Unauthorized(errors.ErrUnauthorized, "missing access token")
			}

			claims, appErr := utils.ParseToken(token, m.jwtSecret)
			if appErr != nil {
				logger.Warn("Middleware:Auth:Rejected", "code", appErr.Code, "path", c.Path())
				return m.base.Unauthorized(appErr.Code, appErr.Message)
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(constants.AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, constants.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, constants.BearerPrefix))
	}
	return ""
}
