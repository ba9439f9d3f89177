package event

import (
	"time"

	"smart-planner/core/database"
	"smart-planner/core/middleware"
	"smart-planner/modules/event/controller"
	"smart-planner/modules/event/repository"
	"smart-planner/modules/event/router"
	"smart-planner/modules/event/service"

	"github.com/labstack/echo/v4"
)

// NewService builds the event service without registering routes
func NewService(db database.Database, loc *time.Location) *service.EventService {
	return service.NewEventService(repository.NewEventRepository(db), loc)
}

// Init registers the event routes. The same service backs the planner's local
// event store.
func Init(e *echo.Echo, svc *service.EventService, mw *middleware.Middleware) {
	ctrl := controller.NewEventController(svc)
	router.NewEventRouter(ctrl).Setup(e, mw)
}
