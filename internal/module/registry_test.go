package module

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
)

// mockModule is a mock implementation of the Module interface for testing.
type mockModule struct {
	name         string
	version      string
	dependencies []string
	migrations   []Migration
	initCalled   bool
	initHook     func(ctx *Context) error
	shutdownErr  error
}

func newMockModule(name, version string) *mockModule {
	return &mockModule{name: name, version: version}
}

func (m *mockModule) Name() string           { return m.name }
func (m *mockModule) Version() string        { return m.version }
func (m *mockModule) Description() string    { return "mock " + m.name }
func (m *mockModule) Dependencies() []string { return m.dependencies }
func (m *mockModule) Migrations() []Migration {
	return m.migrations
}
func (m *mockModule) Init(ctx *Context) error {
	m.initCalled = true
	if m.initHook != nil {
		return m.initHook(ctx)
	}
	return nil
}
func (m *mockModule) Shutdown() error             { return m.shutdownErr }
func (m *mockModule) RegisterRoutes(r chi.Router) {}
func (m *mockModule) RegisterAdminRoutes(r chi.Router) {
	r.Get("/"+m.name, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func testRegistryLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(testRegistryLogger())

	if err := r.Register(newMockModule("test", "1.0.0")); err != nil {
		t.Fatalf("failed to register first module: %v", err)
	}
	if err := r.Register(newMockModule("test", "2.0.0")); err == nil {
		t.Error("expected error for duplicate module")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestGetAndList(t *testing.T) {
	r := NewRegistry(testRegistryLogger())

	for _, name := range []string{"mod1", "mod2", "mod3"} {
		_ = r.Register(newMockModule(name, "1.0.0"))
	}

	if m, ok := r.Get("mod2"); !ok || m.Name() != "mod2" {
		t.Error("expected to find mod2")
	}
	if _, ok := r.Get("nonexistent"); ok {
		t.Error("expected not to find nonexistent module")
	}

	list := r.List()
	if len(list) != 3 || list[0].Name() != "mod1" || list[2].Name() != "mod3" {
		t.Error("expected modules in registration order")
	}
}

func TestInitAll(t *testing.T) {
	r := NewRegistry(testRegistryLogger())
	m1 := newMockModule("init1", "1.0.0")
	m2 := newMockModule("init2", "1.0.0")
	m2.dependencies = []string{"init1"}
	_ = r.Register(m1)
	_ = r.Register(m2)

	ctx := &Context{DB: createTestDB(t), Logger: testRegistryLogger()}
	if err := r.InitAll(ctx); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	if !m1.initCalled || !m2.initCalled {
		t.Error("expected Init to be called on all modules")
	}
}

func TestInitAllMissingDependency(t *testing.T) {
	r := NewRegistry(testRegistryLogger())
	m := newMockModule("needs", "1.0.0")
	m.dependencies = []string{"missing"}
	_ = r.Register(m)

	ctx := &Context{DB: createTestDB(t), Logger: testRegistryLogger()}
	if err := r.InitAll(ctx); err == nil {
		t.Error("expected error for missing dependency")
	}
	if m.initCalled {
		t.Error("Init should not be called when dependencies are missing")
	}
}

func TestInitAllHooksFromInit(t *testing.T) {
	r := NewRegistry(testRegistryLogger())
	hooks := NewHookRegistry(testRegistryLogger())
	hooks.RegisterFunc("init.hook", "h", "hooky", func(ctx context.Context, data any) (any, error) {
		return "seen", nil
	})

	var got any
	m := newMockModule("hooky", "1.0.0")
	m.initHook = func(ctx *Context) error {
		var err error
		got, err = ctx.Hooks.Call(context.Background(), "init.hook", nil)
		return err
	}
	_ = r.Register(m)

	ctx := &Context{DB: createTestDB(t), Logger: testRegistryLogger(), Hooks: hooks}
	if err := r.InitAll(ctx); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	if got != "seen" {
		t.Errorf("hook result = %v, want seen", got)
	}
}

func TestMigrationsAppliedOnce(t *testing.T) {
	db := createTestDB(t)
	runCount := 0
	newModule := func() *mockModule {
		m := newMockModule("migrate", "1.0.0")
		m.migrations = []Migration{{
			Version:     1,
			Description: "Create test table",
			Up: func(db *sql.DB) error {
				runCount++
				_, err := db.Exec("CREATE TABLE test_table (id INTEGER PRIMARY KEY)")
				return err
			},
			Down: func(db *sql.DB) error {
				_, err := db.Exec("DROP TABLE test_table")
				return err
			},
		}}
		return m
	}

	for i := 0; i < 2; i++ {
		r := NewRegistry(testRegistryLogger())
		_ = r.Register(newModule())
		if err := r.InitAll(&Context{DB: db, Logger: testRegistryLogger()}); err != nil {
			t.Fatalf("InitAll #%d: %v", i+1, err)
		}
	}

	if runCount != 1 {
		t.Errorf("migration ran %d times, want 1", runCount)
	}

	var name string
	if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='test_table'").Scan(&name); err != nil {
		t.Errorf("expected test_table to exist: %v", err)
	}
}

func TestMigrationFailure(t *testing.T) {
	r := NewRegistry(testRegistryLogger())
	m := newMockModule("broken", "1.0.0")
	m.migrations = []Migration{{
		Version: 1,
		Up:      func(*sql.DB) error { return errors.New("bad sql") },
	}}
	_ = r.Register(m)

	if err := r.InitAll(&Context{DB: createTestDB(t), Logger: testRegistryLogger()}); err == nil {
		t.Error("expected migration error")
	}
}

func TestSetActivePersistence(t *testing.T) {
	db := createTestDB(t)
	ctx := &Context{DB: db, Logger: testRegistryLogger()}

	r1 := NewRegistry(testRegistryLogger())
	_ = r1.Register(newMockModule("persist", "1.0.0"))

	if !r1.IsActive("persist") {
		t.Error("untracked module should default to active")
	}
	if err := r1.SetActive("persist", false); err == nil {
		t.Error("SetActive before InitAll should fail")
	}

	_ = r1.InitAll(ctx)
	if err := r1.SetActive("persist", false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := r1.SetActive("unknown", false); err == nil {
		t.Error("SetActive on unregistered module should fail")
	}

	r2 := NewRegistry(testRegistryLogger())
	_ = r2.Register(newMockModule("persist", "1.0.0"))
	_ = r2.InitAll(ctx)

	if r2.IsActive("persist") {
		t.Error("expected module to remain inactive after reload")
	}
	infos := r2.ListInfo()
	if len(infos) != 1 || infos[0].Active {
		t.Errorf("ListInfo = %+v, want one inactive module", infos)
	}
}

func TestShutdownAllJoinsErrors(t *testing.T) {
	r := NewRegistry(testRegistryLogger())
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	a := newMockModule("a", "1.0.0")
	a.shutdownErr = errA
	b := newMockModule("b", "1.0.0")
	b.shutdownErr = errB
	_ = r.Register(a)
	_ = r.Register(b)

	err := r.ShutdownAll()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("err = %v, want both shutdown errors", err)
	}
}

func TestShutdownAllUnregistersHooks(t *testing.T) {
	r := NewRegistry(testRegistryLogger())
	hooks := NewHookRegistry(testRegistryLogger())
	m := newMockModule("hooky", "1.0.0")
	m.initHook = func(ctx *Context) error {
		ctx.Hooks.RegisterFunc(HookPageAfterSave, "h", "hooky", func(ctx context.Context, data any) (any, error) {
			return "handled", nil
		})
		return nil
	}
	_ = r.Register(m)
	if err := r.InitAll(&Context{DB: createTestDB(t), Logger: testRegistryLogger(), Hooks: hooks}); err != nil {
		t.Fatalf("InitAll: %v", err)
	}

	if got, _ := hooks.Call(context.Background(), HookPageAfterSave, nil); got != "handled" {
		t.Fatalf("hook result before shutdown = %v", got)
	}
	if err := r.ShutdownAll(); err != nil {
		t.Fatalf("ShutdownAll: %v", err)
	}
	if got, _ := hooks.Call(context.Background(), HookPageAfterSave, nil); got != nil {
		t.Errorf("hook result after shutdown = %v, want no handler", got)
	}
}

func TestAdminRouteAllBlocksInactive(t *testing.T) {
	r := NewRegistry(testRegistryLogger())
	_ = r.Register(newMockModule("on", "1.0.0"))
	_ = r.Register(newMockModule("off", "1.0.0"))
	_ = r.InitAll(&Context{DB: createTestDB(t), Logger: testRegistryLogger()})
	_ = r.SetActive("off", false)

	router := chi.NewRouter()
	r.AdminRouteAll(router)

	tests := map[string]int{"/on": http.StatusOK, "/off": http.StatusNotFound}
	for path, want := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("GET %s = %d, want %d", path, rec.Code, want)
		}
	}
}
