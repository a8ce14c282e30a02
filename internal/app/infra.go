package app

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/teleclinic_backend/config"
	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/pkg/authorize"
	"github.com/Alijeyrad/teleclinic_backend/pkg/database"
	"github.com/Alijeyrad/teleclinic_backend/pkg/email"
	"github.com/Alijeyrad/teleclinic_backend/pkg/eventbus"
	"github.com/Alijeyrad/teleclinic_backend/pkg/observability"
	redispkg "github.com/Alijeyrad/teleclinic_backend/pkg/redis"
	"github.com/Alijeyrad/teleclinic_backend/pkg/sms"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideRepoClient),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideSessionStore),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideSMSClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideDomainMetrics),
	fx.Provide(ProvideEventBus),
)

func ProvideRepoClient(lc fx.Lifecycle, cfg *config.Config) (*repo.Client, error) {
	client, drv, err := database.NewRepoClient(cfg.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Database.Migrations.AutoMigrate {
				return nil
			}
			slog.Info("applying database schema")
			return database.Migrate(ctx, drv)
		},
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return client.Close()
		},
	})
	return client, nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideSessionStore(rdb *redis.Client) *redispkg.SessionStore {
	return redispkg.NewSessionStore(rdb)
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	auth, cleanup, err := authorize.Open(authorize.FromCentralConfig(cfg.Authorization), database.NewDSN(cfg.CasbinDatabase))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("cleaning up Casbin enforcer")
			cleanup(ctx)
			return nil
		},
	})
	return auth, nil
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

func ProvideSMSClient(cfg *config.Config) (*sms.Client, error) {
	return sms.NewFromConfig(cfg.SMS)
}

// ProvideEventBus connects to NATS when nats.url is set and falls back to
// the in-process bus, which only reaches subscribers in this process.
func ProvideEventBus(lc fx.Lifecycle, cfg *config.Config) (eventbus.Bus, error) {
	var bus eventbus.Bus
	if cfg.Nats.URL == "" {
		slog.Warn("nats.url is empty; using the in-process event bus")
		bus = eventbus.NewLocal()
	} else {
		nb, err := eventbus.Connect(cfg.Nats.URL)
		if err != nil {
			return nil, err
		}
		bus = nb
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing event bus")
			return bus.Close()
		},
	})
	return bus, nil
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

// ProvideDomainMetrics depends on the telemetry provider so the counters are
// created after the global meter provider is installed.
func ProvideDomainMetrics(_ *observability.Provider) *observability.DomainMetrics {
	return observability.NewDomainMetrics()
}
