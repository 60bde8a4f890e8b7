// Package moduleutil provides module-specific test helpers.
package moduleutil

import (
	"database/sql"
	"testing"

	"github.com/olegiv/ocms-deepl/internal/cache"
	"github.com/olegiv/ocms-deepl/internal/config"
	"github.com/olegiv/ocms-deepl/internal/module"
	"github.com/olegiv/ocms-deepl/internal/store"
	"github.com/olegiv/ocms-deepl/internal/testutil"
)

// RunMigrations runs all migrations up for the given module.
func RunMigrations(t *testing.T, db *sql.DB, migrations []module.Migration) {
	t.Helper()
	for _, mig := range migrations {
		if err := mig.Up(db); err != nil {
			t.Fatalf("migration %d up: %v", mig.Version, err)
		}
	}
}

// RunMigrationsDown rolls back all migrations for the given module in reverse order.
func RunMigrationsDown(t *testing.T, db *sql.DB, migrations []module.Migration) {
	t.Helper()
	for i := len(migrations) - 1; i >= 0; i-- {
		mig := migrations[i]
		if err := mig.Down(db); err != nil {
			t.Fatalf("migration %d down: %v", mig.Version, err)
		}
	}
}

// AssertMigrations checks the migration count and that versions are
// ascending with Up and Down set.
func AssertMigrations(t *testing.T, migrations []module.Migration, want int) {
	t.Helper()
	if len(migrations) != want {
		t.Fatalf("len(Migrations()) = %d, want %d", len(migrations), want)
	}
	var prev int64
	for _, mig := range migrations {
		if mig.Version <= prev {
			t.Errorf("migration version %d is not greater than %d", mig.Version, prev)
		}
		prev = mig.Version
		if mig.Up == nil || mig.Down == nil {
			t.Errorf("migration %d must define Up and Down", mig.Version)
		}
	}
}

// TestModuleContext creates a module.Context with a store, a memory cache
// and a hook registry. The hooks registry is returned for verifying hook
// behavior.
func TestModuleContext(t *testing.T, db *sql.DB) (*module.Context, *module.HookRegistry) {
	t.Helper()
	logger := testutil.TestLogger()
	hooks := module.NewHookRegistry(logger)
	c := cache.NewSimpleMemoryCache(0)
	t.Cleanup(func() { _ = c.Close() })
	return &module.Context{
		DB:     db,
		Store:  store.New(db),
		Logger: logger,
		Config: &config.Config{DeepLAuthKey: "test-key", DeepLRateLimit: 100, DeepLTimeout: 5, DeepLMaxRetries: 1},
		Hooks:  hooks,
		Cache:  c,
	}, hooks
}
