package notifications

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/tickler/pkg/handlers"
	"github.com/JaimeStill/tickler/pkg/routes"
)

// Handler exposes the expiry scan trigger.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// RunResponse lists the recipients notified by a run.
type RunResponse struct {
	Notified []string `json:"notified"`
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "notifications"),
	}
}

// Routes returns the route group definition for notification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/notifications",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/expiring", Handler: h.Expiring},
			{Method: "GET", Pattern: "/expiring", Handler: h.Expiring},
		},
	}
}

// Expiring runs an expiry scan with the configured horizon and returns the
// notified recipients. Zero matches is a successful, empty run.
func (h *Handler) Expiring(w http.ResponseWriter, r *http.Request) {
	m, err := h.sys.Run(r.Context(), RunOptions{})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, RunResponse{Notified: m.Emails()})
}
