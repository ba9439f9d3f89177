package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"smart-planner/core/config"
	"smart-planner/core/constants"
	"smart-planner/core/logger"
	"smart-planner/core/middleware"
	"smart-planner/modules/calendar"
	"smart-planner/modules/event"
	"smart-planner/modules/notification"
	"smart-planner/modules/planner"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// NewEcho builds the HTTP server with every module's routes registered
func NewEcho(app *App) *echo.Echo {
	cfg := app.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = logger.Logger()

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(constants.ContextRequestID, id)
		},
	}))
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			logger.Info("HTTP:Request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"request_id", v.RequestID,
			)
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	mw := middleware.NewMiddleware(cfg.JWT.Secret)
	event.Init(e, app.Events, mw)
	calendar.Init(e, app.Calendar, mw)
	notification.Init(e, app.Notifications, mw)
	planner.Init(e, app.Planner, mw)

	return e
}

// Serve runs the HTTP API until ctx is cancelled, then drains in-flight
// requests for up to ShutdownTimeout.
func Serve(ctx context.Context, cfg *config.Config) error {
	app, err := NewApp(ctx, cfg, Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	e := NewEcho(app)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server:Start", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Server:Shutdown:Start")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server:Shutdown:Done")
	return nil
}
