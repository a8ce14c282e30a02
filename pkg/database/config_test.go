package database

import (
	"testing"
	"time"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

func TestFromCentralConfigKeepsDefaults(t *testing.T) {
	got := FromCentralConfig(config.DatabaseConfig{User: "app", DBName: "teleclinic"})

	if got.Host != "localhost" || got.Port != 5432 || got.SSLMode != "disable" {
		t.Errorf("defaults not applied: %+v", got)
	}
	if got.User != "app" || got.DBName != "teleclinic" {
		t.Errorf("explicit values lost: %+v", got)
	}
}

func TestDSN(t *testing.T) {
	c := Config{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "d", SSLMode: "require"}
	want := "host=db port=5433 user=u password=p dbname=d sslmode=require"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestConnMaxLifetime(t *testing.T) {
	if got := (Config{}).ConnMaxLifetime(); got != 5*time.Minute {
		t.Errorf("default lifetime = %v", got)
	}
	if got := (Config{ConnMaxLifetimeMin: 2}).ConnMaxLifetime(); got != 2*time.Minute {
		t.Errorf("lifetime = %v", got)
	}
}

func TestDSNQuotesAwkwardValues(t *testing.T) {
	c := Config{Host: "db", Port: 5432, User: "u", Password: `it's a pass`, DBName: "d", SSLMode: "disable"}
	want := `host=db port=5432 user=u password='it\'s a pass' dbname=d sslmode=disable`
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if got := (Config{Port: 5432}).DSN(); got != "host='' port=5432 user='' password='' dbname='' sslmode=''" {
		t.Errorf("empty DSN() = %q", got)
	}
}
