package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/teleclinic_backend/config"
	"github.com/Alijeyrad/teleclinic_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/teleclinic_backend/internal/api/http/router"
	"github.com/Alijeyrad/teleclinic_backend/pkg/observability"
)

var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Redis     *redis.Client
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

// errorHandler renders errors that escape handlers, mostly *fiber.Error from
// middleware, in the same envelope the handlers use.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, msg = fe.Code, fe.Message
	} else {
		rid, _ := middleware.RequestIDFromFiber(c)
		slog.Error("unhandled request error", "error", err, "path", c.Path(), "request_id", rid)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func NewServer(p Params) *fiber.App {
	srv := p.Cfg.Server
	app := fiber.New(fiber.Config{
		AppName:      "teleclinic",
		ErrorHandler: errorHandler,
		// SSE streams stay open, so only reads are bounded.
		ReadTimeout: time.Duration(srv.TimeoutSeconds) * time.Second,
	})

	if p.OTel != nil && p.OTel.TracerProvider != nil {
		app.Use(observability.FiberMiddleware(p.Cfg.Observability.ServiceName))
	}
	useMiddleware(app, srv, p.Redis)
	p.Router.Register(app)

	addr := fmt.Sprintf(":%d", srv.Port)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				slog.Info("http server listening", "addr", addr, "env", srv.Environment)
				if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					slog.Error("http server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: app.ShutdownWithContext,
	})
	return app
}

func useMiddleware(app *fiber.App, srv config.ServerConfig, rdb *redis.Client) {
	app.Use(middleware.RequestID(), recoverer.New(), middleware.Locale())

	if c := srv.CORS; c.Enabled {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     c.AllowOrigins,
			AllowMethods:     c.AllowMethods,
			AllowHeaders:     c.AllowHeaders,
			ExposeHeaders:    c.ExposeHeaders,
			AllowCredentials: c.AllowCredentials,
			MaxAge:           c.MaxAgeSeconds,
		}))
	}
	if srv.Environment == "production" {
		app.Use(helmet.New(), middleware.NewLimiterWithRedis(rdb, srv.RateLimit))
	}

	app.Use(logger.New(logger.Config{
		Format: "${ip} [${time}] ${method} ${url} ${status} ${latency} rid=${respHeader:X-Request-Id}\n",
	}))
}
