package webapi

import (
	"net/http"

	"github.com/lanternhq/beacon/internal/apperr"
	"github.com/lanternhq/beacon/internal/httpserver"
	"github.com/lanternhq/beacon/pkg/registrar"
)

// handleJobResult implements spec §6 GET /jobs?id=…: 200 the job's current
// JobResult (Pending/Success/Failure), 404 if the id is unknown.
func (h *Handler) handleJobResult(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httpserver.RespondError(w, apperr.New(apperr.KindValidation, "missing_id", "id query parameter is required"))
		return
	}
	result, err := registrar.ReadResult(r.Context(), h.broker, id)
	if err != nil {
		httpserver.RespondError(w, apperr.Wrap(apperr.KindNotFound, "job_not_found", "job result not found", err))
		return
	}
	httpserver.Respond(w, http.StatusOK, result)
}
