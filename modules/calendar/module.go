package calendar

import (
	"time"

	"smart-planner/core/cache"
	"smart-planner/core/config"
	"smart-planner/core/database"
	"smart-planner/core/middleware"
	"smart-planner/modules/calendar/controller"
	"smart-planner/modules/calendar/repository"
	"smart-planner/modules/calendar/router"
	"smart-planner/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

// NewService builds the calendar service from the google_api config section
func NewService(db database.Database, c cache.Cache, cfg config.GoogleAPIConfig, loc *time.Location) service.CalendarService {
	return service.NewCalendarService(repository.NewCalendarRepository(db), c, service.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Location:     loc,
	})
}

// Init registers the calendar routes. The returned service doubles as the
// planner's connected store factory.
func Init(e *echo.Echo, svc service.CalendarService, mw *middleware.Middleware) {
	calendarController := controller.NewCalendarController(svc)
	router.NewCalendarRouter(calendarController).Setup(e, mw)
}
