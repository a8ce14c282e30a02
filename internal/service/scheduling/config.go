package scheduling

import (
	"time"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

type Config struct {
	// Location decides which calendar day "today" is.
	Location        *time.Location
	HorizonDays     int
	DefaultDuration int
	Now             func() time.Time
}

func DefaultConfig() Config {
	return Config{
		Location:        time.UTC,
		HorizonDays:     DefaultHorizonDays,
		DefaultDuration: DefaultDurationMinutes,
		Now:             time.Now,
	}
}

func FromCentralConfig(c config.SchedulingConfig) Config {
	out := DefaultConfig()
	out.Location = c.Location()
	if c.HorizonDays > 0 {
		out.HorizonDays = c.HorizonDays
	}
	if c.DefaultDurationMinutes > 0 {
		out.DefaultDuration = c.DefaultDurationMinutes
	}
	return out
}
