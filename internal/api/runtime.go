package api

import (
	"time"

	"github.com/JaimeStill/tickler/internal/config"
	"github.com/JaimeStill/tickler/internal/infrastructure"
	"github.com/JaimeStill/tickler/internal/notifications"
	"github.com/JaimeStill/tickler/pkg/pagination"
)

// Runtime is the infrastructure handed to domain systems, together with the
// per-system settings resolved from configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	UserCache     UserCache
	Notifications notifications.Config
}

// UserCache sizes the owner lookup cache shared by the API and the dispatcher.
type UserCache struct {
	Size int
	TTL  time.Duration
}

// NewRuntime derives an API runtime from the process infrastructure. The
// logger is scoped to the api module; everything else is shared.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		UserCache: UserCache{
			Size: cfg.Users.CacheSize,
			TTL:  cfg.Users.CacheTTLDuration(),
		},
		Notifications: notifications.Config{
			HorizonDays:    cfg.Notifications.Horizon(),
			Location:       cfg.Notifications.Location(),
			PersistTimeout: cfg.Notifications.PersistTimeoutDuration(),
		},
	}
}
