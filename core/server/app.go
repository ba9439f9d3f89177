package server

import (
	"context"
	"fmt"
	"path/filepath"

	"smart-planner/core/cache"
	"smart-planner/core/config"
	"smart-planner/core/database"
	"smart-planner/core/logger"
	"smart-planner/core/queue"
	"smart-planner/core/storage"
	"smart-planner/core/utils"
	"smart-planner/modules/calendar"
	calendarService "smart-planner/modules/calendar/service"
	"smart-planner/modules/event"
	eventService "smart-planner/modules/event/service"
	"smart-planner/modules/notification"
	notificationService "smart-planner/modules/notification/service"
	"smart-planner/modules/planner"
	"smart-planner/modules/planner/client"
	plannerService "smart-planner/modules/planner/service"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// App holds the shared infrastructure and services of one process
type App struct {
	Config        *config.Config
	DB            database.Database
	Cache         cache.Cache
	Queue         *asynq.Client
	Events        *eventService.EventService
	Calendar      calendarService.CalendarService
	Notifications *notificationService.NotificationService
	Planner       *plannerService.PlannerService
}

type Options struct {
	// Offline skips redis: an in-process cache and no task queue
	Offline bool
}

func NewApp(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger.SetLevel(cfg.Log.Level)
	loc := cfg.Planner.Location()

	db, err := database.InitDB(database.DatabaseConfig{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		Path:     cfg.Database.Path,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{Config: cfg, DB: db}

	if opts.Offline {
		app.Cache = cache.NewMemory()
	} else {
		app.Cache, err = cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		app.Queue = queue.NewClient(app.queueConfig())
	}

	app.Events = event.NewService(db, loc)
	app.Calendar = calendar.NewService(db, app.Cache, cfg.GoogleAPI, loc)
	app.Notifications = notification.NewService(db)

	deps := planner.Dependencies{
		Stores:      app.storeResolver(),
		Recommender: client.NewRecommenderClient(cfg.Recommender.BaseURL, cfg.Recommender.Timeout, loc),
		Cache:       app.Cache,
		Notifier:    app.Notifications,
	}
	if app.Queue != nil {
		deps.Enqueuer = app.Queue
	}
	if cfg.Storage.Bucket != "" {
		deps.Publisher = storage.NewS3Publisher(storage.S3Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
			UsePathStyle:    cfg.Storage.UsePathStyle,
		})
	}
	app.Planner = planner.NewService(cfg.Planner, deps)

	logger.Info("App:Init:Success",
		"event_store", cfg.EventStore.Driver,
		"offline", opts.Offline,
		"google", cfg.GoogleAPI.ClientID != "",
		"publisher", cfg.Storage.Bucket != "",
	)
	return app, nil
}

func (a *App) queueConfig() queue.Config {
	return queue.Config{
		RedisAddr:     a.Config.Redis.Addr,
		RedisPassword: a.Config.Redis.Password,
		RedisDB:       a.Config.Redis.DB,
		Concurrency:   a.Config.Queue.Concurrency,
	}
}

// storeResolver prefers a connected Google calendar, then the configured
// event_store driver.
func (a *App) storeResolver() *plannerService.StoreResolver {
	resolver := &plannerService.StoreResolver{Connected: a.Calendar.ConnectedStore}

	if a.Config.EventStore.Driver != "remote" {
		resolver.Default = func(_ context.Context, userID uuid.UUID) (plannerService.EventStore, error) {
			return a.Events.Store(userID), nil
		}
		return resolver
	}

	es := a.Config.EventStore
	loc := a.Config.Planner.Location()
	var snapshots *client.SnapshotCache
	if es.SnapshotCacheDir != "" {
		snapshots = client.NewSnapshotCache(filepath.Clean(es.SnapshotCacheDir))
	}
	resolver.Default = func(_ context.Context, userID uuid.UUID) (plannerService.EventStore, error) {
		token := es.APIToken
		if token == "" {
			var err error
			token, err = utils.GenerateToken(userID, a.Config.JWT.Secret, a.Config.JWT.AccessTTL)
			if err != nil {
				return nil, fmt.Errorf("mint event store token: %w", err)
			}
		}
		return client.NewRemoteStore(client.RemoteStoreConfig{
			BaseURL:     es.BaseURL,
			Token:       token,
			Timeout:     es.Timeout,
			Location:    loc,
			Cache:       snapshots,
			SnapshotKey: userID.String(),
		}), nil
	}
	return resolver
}

func (a *App) Close() {
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			logger.Warn("App:Close:Queue", "error", err)
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			logger.Warn("App:Close:Cache", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		logger.Warn("App:Close:Database", "error", err)
	}
}
