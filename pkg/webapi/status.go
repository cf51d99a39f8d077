package webapi

import (
	"net/http"
	"time"

	"github.com/lanternhq/beacon/internal/httpserver"
)

// Version is set via -ldflags "-X .../webapi.Version=..." at release build
// time; left at "dev" for local builds.
var Version = "dev"

type statusResponse struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// handleStatus implements spec §6 GET /status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	httpserver.Respond(w, http.StatusOK, statusResponse{
		Version:   Version,
		Timestamp: time.Now().UTC(),
	})
}
