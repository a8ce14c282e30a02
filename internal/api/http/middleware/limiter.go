package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

const (
	defaultLimitMax        = 20
	defaultLimitExpiration = 30 * time.Second
)

func NewLimiterWithRedis(rdb *redis.Client, cfg config.RateLimitConfig) fiber.Handler {
	storage := fiberredis.NewFromConnection(rdb)

	limit := defaultLimitMax
	if cfg.Max > 0 {
		limit = cfg.Max
	}
	expiration := defaultLimitExpiration
	if cfg.ExpirationSeconds > 0 {
		expiration = time.Duration(cfg.ExpirationSeconds) * time.Second
	}

	return limiter.New(limiter.Config{
		Storage: storage,

		// sliding window
		Max:               limit,
		Expiration:        expiration,
		LimiterMiddleware: limiter.SlidingWindow{},
		// event streams hold one connection open for their whole life
		Next: func(c fiber.Ctx) bool {
			return c.Get(fiber.HeaderAccept) == "text/event-stream"
		},
	})
}
