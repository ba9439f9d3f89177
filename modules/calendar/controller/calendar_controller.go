package controller

import (
	"smart-planner/core/constants"
	"smart-planner/core/controller"
	"smart-planner/core/errors"
	"smart-planner/core/utils"
	"smart-planner/modules/calendar/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	controller.BaseController
	CalendarService service.CalendarService
}

func NewCalendarController(svc service.CalendarService) *CalendarController {
	return &CalendarController{
		BaseController:  controller.NewBaseController(),
		CalendarService: svc,
	}
}

func (c *CalendarController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}

	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}

	return claims.UserID, nil
}

// ConnectGoogle returns the Google consent URL
// GET /api/v1/private/calendar/connect/google
func (c *CalendarController) ConnectGoogle(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.CalendarService.GetConnectURL(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Authorization URL generated")
}

// GoogleCallback finishes the OAuth flow
// GET /api/v1/calendar/google/callback?state=...&code=...
func (c *CalendarController) GoogleCallback(ctx echo.Context) error {
	if reason := ctx.QueryParam("error"); reason != "" {
		return c.BadRequest(errors.ErrInvalidInput, "Google authorization was denied: "+reason)
	}

	result, appErr := c.CalendarService.HandleCallback(ctx.Request().Context(), ctx.QueryParam("state"), ctx.QueryParam("code"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Google Calendar connected")
}

// GetConnections returns all calendar connections for the current user
// GET /api/v1/private/calendar/connections
func (c *CalendarController) GetConnections(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.CalendarService.GetConnections(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Connections retrieved successfully")
}

// DisconnectCalendar disconnects a calendar provider
// DELETE /api/v1/private/calendar/connections/:provider
func (c *CalendarController) DisconnectCalendar(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	if appErr := c.CalendarService.DisconnectCalendar(ctx.Request().Context(), userID, ctx.Param("provider")); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Disconnected successfully")
}
