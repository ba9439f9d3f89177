package planner

import (
	"smart-planner/core/cache"
	"smart-planner/core/config"
	"smart-planner/core/middleware"
	"smart-planner/core/queue"
	"smart-planner/core/storage"
	"smart-planner/modules/planner/client"
	"smart-planner/modules/planner/controller"
	"smart-planner/modules/planner/router"
	"smart-planner/modules/planner/service"

	"github.com/labstack/echo/v4"
)

type Dependencies struct {
	Stores      service.StoreProvider
	Recommender client.Recommender
	Cache       cache.Cache
	Publisher   storage.Publisher
	Enqueuer    queue.Enqueuer
	Notifier    service.Notifier
	Matcher     service.Matcher
}

// SettingsFromConfig reads the planner section of the config
func SettingsFromConfig(cfg config.PlannerConfig) service.Settings {
	return service.Settings{
		Location:          cfg.Location(),
		WeekStart:         cfg.FirstWeekday(),
		Grid:              service.Grid{FirstHour: cfg.GridFirstHour, LastHour: cfg.GridLastHour},
		MergeTimeout:      cfg.MergeTimeout,
		RecommendationTTL: cfg.RecommendationTTL,
	}
}

func NewService(cfg config.PlannerConfig, deps Dependencies) *service.PlannerService {
	return service.NewPlannerService(service.PlannerServiceDeps{
		Stores:      deps.Stores,
		Recommender: deps.Recommender,
		Engine:      service.NewMergeEngine(deps.Matcher),
		Cache:       deps.Cache,
		Publisher:   deps.Publisher,
		Enqueuer:    deps.Enqueuer,
		Notifier:    deps.Notifier,
		Settings:    SettingsFromConfig(cfg),
	})
}

func Init(e *echo.Echo, svc service.PlannerServiceInterface, mw *middleware.Middleware) {
	plannerController := controller.NewPlannerController(svc)

	// Setup routes
	router.NewPlannerRouter(plannerController).Setup(e, mw)
}
