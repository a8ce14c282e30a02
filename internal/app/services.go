package app

import (
	"go.uber.org/fx"

	"github.com/Alijeyrad/teleclinic_backend/config"
	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/booking"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/chat"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/doctor"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/scheduling"
	"github.com/Alijeyrad/teleclinic_backend/pkg/eventbus"
	"github.com/Alijeyrad/teleclinic_backend/pkg/observability"
	pasetotoken "github.com/Alijeyrad/teleclinic_backend/pkg/paseto"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideDoctorService,
		ProvideSchedulingService,
		ProvideBookingService,
		ProvideChatService,
		ProvidePasetoManager,
	),
)

func ProvideDoctorService(db *repo.Client) doctor.Service {
	return doctor.New(db)
}

func ProvideSchedulingService(db *repo.Client, bookings booking.Service, cfg *config.Config) scheduling.Service {
	return scheduling.New(db, scheduling.FromCentralConfig(cfg.Scheduling), bookings)
}

func ProvideBookingService(
	db *repo.Client,
	bus eventbus.Bus,
	metrics *observability.DomainMetrics,
	cfg *config.Config,
) (booking.Service, error) {
	bc, err := booking.FromCentralConfig(cfg)
	if err != nil {
		return nil, err
	}
	return booking.New(db, bus, metrics, bc), nil
}

func ProvideChatService(db *repo.Client, bus eventbus.Bus, metrics *observability.DomainMetrics) chat.Service {
	return chat.New(db, bus, metrics)
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}
