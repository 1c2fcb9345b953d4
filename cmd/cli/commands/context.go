package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/internal/config"
	"github.com/hodaifayahia/clinic-scheduling/pkg/cache"
	"github.com/hodaifayahia/clinic-scheduling/pkg/db"
	"github.com/hodaifayahia/clinic-scheduling/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg *config.Config
	// OAuthCfg is nil unless an oauth client file was found; only the
	// publishSchedule command needs it.
	OAuthCfg *config.OAuthClientConfig
	DB       *postgres.DB
	Store    db.Store
	Cache    *cache.AvailabilityCache
	Logger   *zap.Logger
	Ctx      context.Context
}
