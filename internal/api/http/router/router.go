package router

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/Alijeyrad/teleclinic_backend/config"
	"github.com/Alijeyrad/teleclinic_backend/internal/api/http/handler"
	"github.com/Alijeyrad/teleclinic_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/booking"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/chat"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/doctor"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/scheduling"
	"github.com/Alijeyrad/teleclinic_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/teleclinic_backend/pkg/paseto"
	"github.com/Alijeyrad/teleclinic_backend/pkg/redis"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg           *config.Config
	Auth          authorize.IAuthorization
	Sessions      *redis.SessionStore
	DoctorSvc     doctor.Service
	SchedulingSvc scheduling.Service
	BookingSvc    booking.Service
	ChatSvc       chat.Service
	PasetoMgr     *pasetotoken.Manager
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.sessions())
	optionalAuth := middleware.OptionalAuth(r.p.PasetoMgr, r.sessions())

	// Permission helper
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	keepAlive := time.Duration(r.p.Cfg.Server.StreamKeepAliveSeconds) * time.Second
	doctorH := handler.NewDoctorHandler(r.p.DoctorSvc, r.p.SchedulingSvc)
	bookingH := handler.NewBookingHandler(r.p.BookingSvc)
	chatH := handler.NewChatHandler(r.p.ChatSvc, keepAlive)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerDoctorRoutes(api, doctorH, bookingH, authRequired, requirePerm)
	r.registerBookingRoutes(api, bookingH, authRequired, optionalAuth, requirePerm)
	r.registerChatRoutes(api, chatH, authRequired, requirePerm)
}

// sessions avoids handing the middleware a typed nil.
func (r *Router) sessions() middleware.SessionChecker {
	if r.p.Sessions == nil {
		return nil
	}
	return r.p.Sessions
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return authorize.IsPolicyHealthy() },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
