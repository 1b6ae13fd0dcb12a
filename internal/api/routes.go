package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/tickler/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	maxUploadSize int64,
	guard []routes.Middleware,
	logger *slog.Logger,
) {
	patterns := routes.Register(
		mux,
		routes.Group{
			Middleware: guard,
			Children: []routes.Group{
				domain.Users.Handler().Routes(),
				domain.Files.Handler(maxUploadSize).Routes(),
				domain.Notifications.Handler().Routes(),
			},
		},
	)

	for _, p := range patterns {
		logger.Debug("route registered", "pattern", p)
	}
}
