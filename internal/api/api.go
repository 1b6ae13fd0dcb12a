// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/JaimeStill/tickler/internal/config"
	"github.com/JaimeStill/tickler/internal/infrastructure"
	"github.com/JaimeStill/tickler/internal/notifications"
	"github.com/JaimeStill/tickler/pkg/auth"
	"github.com/JaimeStill/tickler/pkg/middleware"
	"github.com/JaimeStill/tickler/pkg/module"
	"github.com/JaimeStill/tickler/pkg/routes"
)

const discoveryTimeout = 15 * time.Second

// NewModule creates the API module with all domain handlers and middleware.
// When auth is enabled every API route requires a verified bearer token.
// A configured notification schedule is registered with the lifecycle.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	var guard []routes.Middleware
	if cfg.Auth.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
		defer cancel()

		authenticator, err := auth.New(ctx, &cfg.Auth, runtime.Logger)
		if err != nil {
			return nil, fmt.Errorf("auth init failed: %w", err)
		}
		guard = append(guard, authenticator.Middleware)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg.API.MaxUploadSizeBytes(), guard, runtime.Logger)

	notifications.Schedule(
		runtime.Lifecycle,
		domain.Notifications,
		cfg.Notifications.ScheduleInterval(),
		runtime.Logger,
	)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Metrics())

	return m, nil
}
