package authorize

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	psqlwatcher "github.com/IguteChung/casbin-psql-watcher"
	casbin "github.com/casbin/casbin/v2"
	entadapter "github.com/casbin/ent-adapter"
)

// watcherChannel is the Postgres NOTIFY channel instances use to tell each
// other that policies changed.
const watcherChannel = "teleclinic_casbin_policy_update"

// policyStale is set when a watcher-triggered reload fails, so this instance
// may be enforcing outdated policies.
var policyStale atomic.Bool

// IsPolicyHealthy reports false after a failed policy reload until the next
// successful one. The readiness probe uses it.
func IsPolicyHealthy() bool {
	return !policyStale.Load()
}

type CleanupFunc func(ctx context.Context)

// Open builds the enforcer from cfg on the casbin database at dsn and
// returns the ready IAuthorization, audited when cfg.EnableAudit is set.
func Open(cfg Config, dsn string) (IAuthorization, CleanupFunc, error) {
	e, cleanup, err := newEnforcer(cfg, dsn)
	if err != nil {
		return nil, nil, err
	}
	auth, err := NewAuthorization(e, cfg.AdminBypass)
	if err != nil {
		cleanup(context.Background())
		return nil, nil, err
	}
	if cfg.EnableAudit {
		auth = NewAuditedAuthorization(auth, slog.Default())
	}
	return auth, cleanup, nil
}

func newEnforcer(cfg Config, dsn string) (*casbin.DistributedEnforcer, CleanupFunc, error) {
	m, err := LoadModel(cfg.CasbinModelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load casbin model: %w", err)
	}
	adapter, err := entadapter.NewAdapter("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("casbin ent adapter: %w", err)
	}
	e, err := casbin.NewDistributedEnforcer(m, adapter)
	if err != nil {
		return nil, nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	e.EnableAutoSave(true)
	e.EnableEnforce(true)

	// without the watcher an instance sees other instances' changes only
	// after a restart
	if !cfg.PolicySyncEnabled {
		return e, func(context.Context) {}, nil
	}

	w, err := psqlwatcher.NewWatcherWithConnString(context.Background(), dsn, psqlwatcher.Option{Channel: watcherChannel})
	if err != nil {
		return nil, nil, fmt.Errorf("casbin policy watcher: %w", err)
	}
	err = w.SetUpdateCallback(func(msg string) {
		slog.Debug("casbin policy update received", "message", msg)
		err := e.LoadPolicy()
		if err != nil {
			slog.Error("casbin policy reload failed", "error", err)
		}
		if cfg.HealthCheckEnabled {
			policyStale.Store(err != nil)
		}
	})
	if err != nil {
		w.Close()
		return nil, nil, err
	}
	if err := e.SetWatcher(w); err != nil {
		w.Close()
		return nil, nil, err
	}

	return e, func(context.Context) {
		slog.Info("closing casbin policy watcher")
		w.Close()
		e.StopAutoLoadPolicy()
	}, nil
}
