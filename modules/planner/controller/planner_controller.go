package controller

import (
	"fmt"
	"net/http"

	"smart-planner/core/constants"
	"smart-planner/core/controller"
	"smart-planner/core/errors"
	"smart-planner/core/utils"
	"smart-planner/modules/planner/dto"
	"smart-planner/modules/planner/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PlannerController serves the weekly view and schedule optimization endpoints
type PlannerController struct {
	controller.BaseController
	PlannerService service.PlannerServiceInterface
}

func NewPlannerController(svc service.PlannerServiceInterface) *PlannerController {
	return &PlannerController{
		BaseController: controller.NewBaseController(),
		PlannerService: svc,
	}
}

func (c *PlannerController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

// GetWeek handles GET /planner/week?anchor=YYYY-MM-DD
func (c *PlannerController) GetWeek(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.PlannerService.GetWeek(ctx.Request().Context(), userID, ctx.QueryParam("anchor"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Week retrieved successfully")
}

// GetWeeklyHours handles GET /planner/week/hours?anchor=YYYY-MM-DD
func (c *PlannerController) GetWeeklyHours(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.PlannerService.GetWeeklyHours(ctx.Request().Context(), userID, ctx.QueryParam("anchor"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Weekly hours retrieved successfully")
}

// Recommend handles POST /planner/recommendations
func (c *PlannerController) Recommend(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.RecommendationRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.PlannerService.Recommend(ctx.Request().Context(), userID, req.Anchor)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Recommendation retrieved successfully")
}

// Apply handles POST /planner/apply. A partly applied schedule answers 502 with
// the per-item outcomes as details.
func (c *PlannerController) Apply(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.ApplyRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.PlannerService.Apply(ctx.Request().Context(), userID, req)
	if appErr != nil {
		if result != nil {
			return c.ErrorResponse(ctx, appErr, result)
		}
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, result.Message)
}

// ApplyAsync handles POST /planner/apply/async
func (c *PlannerController) ApplyAsync(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.ApplyRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.PlannerService.EnqueueApply(ctx.Request().Context(), userID, req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.AcceptedResponse(ctx, result, "Schedule apply queued")
}

// ExportICS handles GET /planner/week.ics
func (c *PlannerController) ExportICS(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	body, name, appErr := c.PlannerService.ExportICS(ctx.Request().Context(), userID, ctx.QueryParam("anchor"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return ctx.Blob(http.StatusOK, "text/calendar; charset=utf-8", body)
}

// PublishWeek handles POST /planner/week/publish?anchor=YYYY-MM-DD
func (c *PlannerController) PublishWeek(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.PlannerService.PublishWeek(ctx.Request().Context(), userID, ctx.QueryParam("anchor"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.CreatedResponse(ctx, result, "Week published successfully")
}
