package config

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"zero config is valid", func(c *Config) {}, false},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, true},
		{"unknown timezone", func(c *Config) { c.Scheduling.Timezone = "Mars/Olympus" }, true},
		{"known timezone", func(c *Config) { c.Scheduling.Timezone = "Asia/Tehran" }, false},
		{"horizon too large", func(c *Config) { c.Scheduling.HorizonDays = 90 }, true},
		{"duration too large", func(c *Config) { c.Scheduling.DefaultDurationMinutes = 300 }, true},
		{"bad paseto mode", func(c *Config) { c.Authentication.Paseto.Mode = "v2" }, true},
		{"short encryption key", func(c *Config) { c.Authentication.EncryptionKey = "abcd" }, true},
		{"sms without key", func(c *Config) { c.SMS.Enabled = true }, true},
		{"email without from", func(c *Config) { c.Email.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestSchedulingLocation(t *testing.T) {
	if loc := (SchedulingConfig{}).Location(); loc != time.UTC {
		t.Errorf("empty timezone: got %v, want UTC", loc)
	}
	if loc := (SchedulingConfig{Timezone: "nowhere"}).Location(); loc != time.UTC {
		t.Errorf("invalid timezone: got %v, want UTC", loc)
	}
	if loc := (SchedulingConfig{Timezone: "Europe/Berlin"}).Location(); loc.String() != "Europe/Berlin" {
		t.Errorf("got %v, want Europe/Berlin", loc)
	}
}
