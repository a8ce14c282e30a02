package authorize

import (
	"testing"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	got := FromCentralConfig(config.AuthorizationConfig{AdminBypass: true, PolicySyncEnabled: true})
	if got.CasbinModelPath != DefaultConfig().CasbinModelPath {
		t.Errorf("CasbinModelPath = %q, want default", got.CasbinModelPath)
	}
	if !got.AdminBypass || !got.PolicySyncEnabled || got.EnableAudit {
		t.Errorf("flags not carried over: %+v", got)
	}

	got = FromCentralConfig(config.AuthorizationConfig{CasbinModelPath: "/etc/teleclinic/model.conf"})
	if got.CasbinModelPath != "/etc/teleclinic/model.conf" {
		t.Errorf("CasbinModelPath = %q", got.CasbinModelPath)
	}
}
