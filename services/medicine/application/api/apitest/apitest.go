// Package apitest builds the medicine API on a private in-memory SQLite
// store for handler and client tests.
package apitest

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/medshelf/migrations"
	"github.com/ghuser/medshelf/pkg/app"
	"github.com/ghuser/medshelf/pkg/config"
	"github.com/ghuser/medshelf/pkg/database"
	"github.com/ghuser/medshelf/pkg/httpx"
	"github.com/ghuser/medshelf/pkg/logger"
	"github.com/ghuser/medshelf/pkg/migrator"
	"github.com/ghuser/medshelf/services/medicine/application/api"
)

// NewApplication opens and migrates an in-memory store. It is closed when
// the test ends.
func NewApplication(t testing.TB) *app.Application {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()

	db, err := database.OpenSQLite(ctx, database.MemoryPath, log)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	files, err := migrations.For(db.Driver())
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if err := migrator.Run(ctx, db, files, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return &app.Application{
		Config: &config.Config{Environment: config.EnvTesting, StoreDriver: config.StoreSQLite},
		Db:     db,
		Logger: log,
	}
}

// NewRouter mounts /api/health and /api/medicines on a bare chi router.
// The production middleware stack is left out so tests are not rate limited.
func NewRouter(t testing.TB) http.Handler {
	t.Helper()
	a := NewApplication(t)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(httpx.RequestBodyLimit(httpx.MaxBodyBytes))
		r.Get("/health", httpx.HealthHandler(httpx.HealthChecks{"database": a.Db}))
		api.MedicineRoutes(r, a)
	})
	return r
}
