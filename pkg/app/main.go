package app

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/ghuser/medshelf/pkg/cache"
	"github.com/ghuser/medshelf/pkg/config"
	"github.com/ghuser/medshelf/pkg/database"
	"github.com/ghuser/medshelf/pkg/events"
	"github.com/ghuser/medshelf/pkg/logger"
)

// Application holds the shared infrastructure built in main and handed to
// every service's route registration. Nothing here is a package global.
//
// Logger is trace-aware: use the *Context methods inside requests and
// trace_id, span_id and request_id are attached automatically.
type Application struct {
	Config   *config.Config
	Db       *database.Database
	Logger   logger.Logger
	EventBus *events.EventBus   // nil disables event publishing
	Redis    *cache.RedisClient // nil when REDIS_URL is unset
	Meter    metric.Meter       // nil falls back to a no-op meter
}
