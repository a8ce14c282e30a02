package email

import (
	"time"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

const defaultSMTPTimeout = 30 * time.Second

type Config struct {
	Enabled bool
	From    string
	AppName string

	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPUseTLS         bool // implicit TLS (port 465); STARTTLS is negotiated otherwise
	SMTPTimeoutSeconds int
}

func DefaultConfig() Config {
	return Config{
		SMTPPort:           587,
		SMTPTimeoutSeconds: int(defaultSMTPTimeout / time.Second),
		AppName:            defaultAppName,
	}
}

func (c Config) SMTPTimeout() time.Duration {
	if c.SMTPTimeoutSeconds <= 0 {
		return defaultSMTPTimeout
	}
	return time.Duration(c.SMTPTimeoutSeconds) * time.Second
}

// FromCentralConfig fills unset fields from DefaultConfig.
func FromCentralConfig(c config.EmailConfig) Config {
	out := DefaultConfig()
	out.Enabled = c.Enabled
	out.From = c.From
	if c.AppName != "" {
		out.AppName = c.AppName
	}
	out.SMTPHost = c.SMTP.Host
	if c.SMTP.Port > 0 {
		out.SMTPPort = c.SMTP.Port
	}
	out.SMTPUsername = c.SMTP.Username
	out.SMTPPassword = c.SMTP.Password
	out.SMTPUseTLS = c.SMTP.UseTLS
	if c.SMTP.TimeoutSeconds > 0 {
		out.SMTPTimeoutSeconds = c.SMTP.TimeoutSeconds
	}
	return out
}
