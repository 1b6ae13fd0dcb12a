package main

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/tickler/internal/api"
	"github.com/JaimeStill/tickler/internal/config"
	"github.com/JaimeStill/tickler/internal/infrastructure"
	"github.com/JaimeStill/tickler/pkg/module"
)

// Modules are the prefix-mounted sub-routers served alongside the health endpoints.
type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}
	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

// buildRouter registers the unauthenticated operational endpoints. Domain
// modules are mounted afterwards.
func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	router.HandleNative("GET /healthz", healthz())
	router.HandleNative("GET /readyz", readyz(infra))
	router.HandleNative("GET /metrics", promhttp.Handler())
	return router
}
