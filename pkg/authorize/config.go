package authorize

import "github.com/Alijeyrad/teleclinic_backend/config"

type Config struct {
	// CasbinModelPath falls back to DefaultModel when the file is missing.
	CasbinModelPath string

	EnableAudit bool
	// AdminBypass lets role:admin pass every check.
	AdminBypass bool
	// PolicySyncEnabled reloads policies when another instance changes them.
	PolicySyncEnabled bool
	// HealthCheckEnabled marks the instance unready after a failed reload.
	HealthCheckEnabled bool
}

func DefaultConfig() Config {
	return Config{
		CasbinModelPath:    "casbin_model.conf",
		EnableAudit:        true,
		AdminBypass:        true,
		HealthCheckEnabled: true,
	}
}

func FromCentralConfig(c config.AuthorizationConfig) Config {
	out := Config{
		CasbinModelPath:    c.CasbinModelPath,
		EnableAudit:        c.EnableAudit,
		AdminBypass:        c.AdminBypass,
		PolicySyncEnabled:  c.PolicySyncEnabled,
		HealthCheckEnabled: c.HealthCheckEnabled,
	}
	if out.CasbinModelPath == "" {
		out.CasbinModelPath = DefaultConfig().CasbinModelPath
	}
	return out
}
