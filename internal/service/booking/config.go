package booking

import (
	"fmt"
	"time"

	"github.com/Alijeyrad/teleclinic_backend/config"
	"github.com/Alijeyrad/teleclinic_backend/pkg/crypto"
	"github.com/Alijeyrad/teleclinic_backend/pkg/util/codes"
)

type Config struct {
	// Location decides which calendar day "today" is.
	Location *time.Location
	// DefaultRegion parses mobile numbers given without a country code.
	DefaultRegion   string
	Codes           codes.Config
	DefaultDuration int
	// EncryptionKey encrypts case descriptions when set.
	EncryptionKey []byte
	Now           func() time.Time
}

func DefaultConfig() Config {
	return Config{
		Location:        time.UTC,
		DefaultRegion:   "IR",
		Codes:           codes.DefaultConfig(),
		DefaultDuration: 30,
		Now:             time.Now,
	}
}

func FromCentralConfig(c *config.Config) (Config, error) {
	out := DefaultConfig()
	out.Location = c.Scheduling.Location()
	out.Codes = codes.FromCentralConfig(c.Booking)
	if c.Booking.DefaultRegion != "" {
		out.DefaultRegion = c.Booking.DefaultRegion
	}
	if c.Scheduling.DefaultDurationMinutes > 0 {
		out.DefaultDuration = c.Scheduling.DefaultDurationMinutes
	}
	if c.Authentication.EncryptionKey != "" {
		key, err := crypto.KeyFromHex(c.Authentication.EncryptionKey)
		if err != nil {
			return Config{}, fmt.Errorf("booking encryption key: %w", err)
		}
		out.EncryptionKey = key
	}
	return out, nil
}
