package router

import (
	"smart-planner/core/middleware"
	"smart-planner/modules/planner/controller"

	"github.com/labstack/echo/v4"
)

type PlannerRouter struct {
	controller *controller.PlannerController
}

func NewPlannerRouter(controller *controller.PlannerController) *PlannerRouter {
	return &PlannerRouter{
		controller: controller,
	}
}

func (r *PlannerRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	plannerRoutes := v1.Group("/private/planner")
	plannerRoutes.Use(mw.AuthMiddleware())

	// Weekly view
	plannerRoutes.GET("/week", r.controller.GetWeek)
	plannerRoutes.GET("/week/hours", r.controller.GetWeeklyHours)
	plannerRoutes.GET("/week.ics", r.controller.ExportICS)
	plannerRoutes.POST("/week/publish", r.controller.PublishWeek)

	// Optimization
	plannerRoutes.POST("/recommendations", r.controller.Recommend)
	plannerRoutes.POST("/apply", r.controller.Apply)
	plannerRoutes.POST("/apply/async", r.controller.ApplyAsync)
}
