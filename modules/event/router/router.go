package router

import (
	"smart-planner/core/middleware"
	"smart-planner/modules/event/controller"

	"github.com/labstack/echo/v4"
)

type EventRouter struct {
	EventController *controller.EventController
}

func NewEventRouter(eventController *controller.EventController) *EventRouter {
	return &EventRouter{
		EventController: eventController,
	}
}

func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	calendarRoutes := v1.Group("/calendar", mw.AuthMiddleware())
	calendarRoutes.GET("/get_tasks", r.EventController.GetTasks)
	calendarRoutes.POST("/get_tasks_by_time", r.EventController.GetTasksByTime)
	calendarRoutes.POST("/set_task", r.EventController.SetTask)
	calendarRoutes.PUT("/update_task/:id", r.EventController.UpdateTask)
	calendarRoutes.DELETE("/delete_task", r.EventController.DeleteTask)
}
