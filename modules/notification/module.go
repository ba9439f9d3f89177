package notification

import (
	"smart-planner/core/database"
	"smart-planner/core/middleware"
	"smart-planner/modules/notification/controller"
	"smart-planner/modules/notification/repository"
	"smart-planner/modules/notification/router"
	"smart-planner/modules/notification/service"

	"github.com/labstack/echo/v4"
)

func NewService(db database.Database) *service.NotificationService {
	return service.NewNotificationService(repository.NewNotificationRepository(db))
}

func Init(e *echo.Echo, svc *service.NotificationService, mw *middleware.Middleware) {
	ctrl := controller.NewNotificationController(svc)
	router.NewNotificationRouter(ctrl).Setup(e, mw)
}
