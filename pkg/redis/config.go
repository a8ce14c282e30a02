package redis

import (
	"time"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

// Config holds connection settings. Sessions and limiter counters are small,
// so the pool stays modest by default.
type Config struct {
	Addr     string
	DB       int
	Username string
	Password string

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// FromCentralConfig keeps DefaultConfig values for anything left at zero.
func FromCentralConfig(c config.RedisConfig) Config {
	cfg := DefaultConfig()
	cfg.Addr = c.Addr
	cfg.DB = c.DB
	cfg.Username = c.Username
	cfg.Password = c.Password

	positive(&cfg.PoolSize, c.PoolSize)
	positive(&cfg.MinIdleConns, c.MinIdleConns)
	seconds(&cfg.DialTimeout, c.DialTimeoutSeconds)
	seconds(&cfg.ReadTimeout, c.ReadTimeoutSeconds)
	seconds(&cfg.WriteTimeout, c.WriteTimeoutSeconds)
	return cfg
}

func positive(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func seconds(dst *time.Duration, v int) {
	if v > 0 {
		*dst = time.Duration(v) * time.Second
	}
}
