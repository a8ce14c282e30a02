package redis

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

func TestSessionKey(t *testing.T) {
	id := uuid.MustParse("0190f3a6-8c4e-7d2a-9b1f-3c5d7e9f1a2b")
	assert.Equal(t, "session:0190f3a6-8c4e-7d2a-9b1f-3c5d7e9f1a2b", SessionKey(id))
}

func TestFromCentralConfigDefaults(t *testing.T) {
	cfg := FromCentralConfig(config.RedisConfig{Addr: "redis:6379", PoolSize: 50})

	assert.Equal(t, "redis:6379", cfg.Addr)
	assert.Equal(t, 50, cfg.PoolSize)
	assert.Equal(t, DefaultConfig().MinIdleConns, cfg.MinIdleConns)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
}

func TestNewRedisRequiresAddr(t *testing.T) {
	_, err := NewRedis(Config{})
	assert.Error(t, err)
}
