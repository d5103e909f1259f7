// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/beergame/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Routes returns the mux serving every endpoint of gs, each wrapped in request logging.
func Routes(logger *logrus.Logger, gs *GameServer) *http.ServeMux {
	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, logged(h))
	}

	// room lifecycle
	handle("POST /api/admin/create", CreateRoomHandler(gs, false))
	handle("POST /api/create", CreateRoomHandler(gs, true))
	handle("POST /api/join", JoinRoomHandler(gs))
	handle("POST /api/admin/reclaim", ReclaimAdminHandler(gs))

	// admin controls
	handle("POST /api/admin/start", StartHandler(gs))
	handle("POST /api/admin/settings", UpdateSettingsHandler(gs))
	handle("POST /api/admin/reset", ResetHandler(gs))
	handle("POST /api/reset", ResetHandler(gs))

	// play
	handle("POST /api/submit-order", SubmitOrderHandler(gs))
	handle("GET /api/state", StateHandler(gs))
	handle("GET /ws/state", StateWSHandler(logger, gs))

	handle("GET /healthz", HealthHandler(gs))
	return mux
}
