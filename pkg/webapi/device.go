package webapi

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/lanternhq/beacon/internal/apperr"
	"github.com/lanternhq/beacon/internal/httpserver"
	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/pkg/model"
	"github.com/lanternhq/beacon/pkg/registrar"
)

type deviceRegisterRequest struct {
	DeviceID string `json:"device_id"`
}

// handleDeviceRegister implements spec §6 POST /device/register: enqueues an
// Ownership job and returns its id; 404 if no user.
func (h *Handler) handleDeviceRegister(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		httpserver.RespondError(w, err)
		return
	}

	var req deviceRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" {
		httpserver.RespondError(w, apperr.New(apperr.KindValidation, "invalid_body", "device_id is required"))
		return
	}

	job, err := model.MarshalTagged(model.JobKindOwnership, model.OwnershipJob{UserID: user.OID, DeviceID: req.DeviceID})
	if err != nil {
		httpserver.RespondError(w, apperr.Wrap(apperr.KindSerialization, "job_encode_failed", "encoding ownership job", err))
		return
	}
	jobID, err := registrar.EnqueueJob(r.Context(), h.broker, h.signer, job)
	if err != nil {
		httpserver.RespondError(w, apperr.Wrap(apperr.KindTransport, "enqueue_failed", "enqueuing ownership job", err))
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"id": jobID})
}

// handleDeviceUnregister implements spec §6 POST /device/unregister: 200 on
// removal from the user's devices, 422 if not held. Like the sign-in upsert
// in handleAuthComplete, this is a direct synchronous mutation of the User document rather
// than a job — spec §6 names no job kind for unregistering, and the HTTP
// layer already owns the User document it's reading from.
func (h *Handler) handleDeviceUnregister(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		httpserver.RespondError(w, err)
		return
	}

	var req deviceRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" {
		httpserver.RespondError(w, apperr.New(apperr.KindValidation, "invalid_body", "device_id is required"))
		return
	}

	if _, held := user.Devices[req.DeviceID]; !held {
		httpserver.RespondError(w, apperr.New(apperr.KindValidation, "device_not_held", "device is not registered to this user"))
		return
	}
	delete(user.Devices, req.DeviceID)
	if err := h.users.Replace(r.Context(), bson.M{"oid": user.OID}, *user, false); err != nil {
		httpserver.RespondError(w, apperr.Wrap(apperr.KindTransport, "user_update_failed", "removing device from user", err))
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

type deviceInfoResponse struct {
	ID                string   `json:"id"`
	FirstSeen         string   `json:"first_seen"`
	LastSeen          string   `json:"last_seen"`
	SentMessageCount  int      `json:"sent_message_count"`
	CurrentQueueCount int64    `json:"current_queue_count"`
	Nickname          *string  `json:"nickname,omitempty"`
	SentMessages      []string `json:"sent_messages"`
}

// handleDeviceInfo implements spec §6 GET /device/info?id=….
func (h *Handler) handleDeviceInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.URL.Query().Get("id")
	if id == "" {
		httpserver.RespondError(w, apperr.New(apperr.KindValidation, "missing_id", "id query parameter is required"))
		return
	}

	diagnostic, err := h.diagnostics.FindOne(ctx, bson.M{"id": id})
	if err != nil {
		httpserver.RespondError(w, apperr.Wrap(apperr.KindNotFound, "device_not_found", "device not found", err))
		return
	}

	queueLen, err := h.broker.LLen(ctx, "queue:"+id)
	if err != nil {
		httpserver.RespondError(w, apperr.Wrap(apperr.KindTransport, "queue_len_failed", "reading device queue length", err))
		return
	}

	sentMessages := []string{}
	if history, err := h.histories.FindOne(ctx, bson.M{"device_id": id}); err == nil {
		for _, entry := range history.RenderHistory {
			sentMessages = append(sentMessages, summarizeQueuedRender(entry.QueuedRender))
		}
	} else if err != platform.ErrNotFound {
		h.logger.Error("webapi: loading device history failed", "device_id", id, "error", err)
	}

	httpserver.Respond(w, http.StatusOK, deviceInfoResponse{
		ID:                diagnostic.ID,
		FirstSeen:         diagnostic.FirstSeen.Format("2006-01-02T15:04:05Z07:00"),
		LastSeen:          diagnostic.LastSeen.Format("2006-01-02T15:04:05Z07:00"),
		SentMessageCount:  diagnostic.SentMessageCount,
		CurrentQueueCount: queueLen,
		Nickname:          diagnostic.Nickname,
		SentMessages:      sentMessages,
	})
}

// summarizeQueuedRender renders a best-effort single-line description of a
// history entry's layout for the /device/info sent_messages list.
func summarizeQueuedRender(qr model.QueuedRender) string {
	if qr.Layout.Kind != model.RenderVariantKindLayout {
		return qr.Layout.Kind
	}
	var layout model.Tagged
	if err := qr.Layout.Decode(&layout); err != nil {
		return model.RenderLayoutKindClear
	}
	switch layout.Kind {
	case model.RenderLayoutKindMessage:
		var m model.MessageLayout
		if layout.Decode(&m) == nil {
			return m.Text
		}
	case model.RenderLayoutKindScannable:
		var s model.ScannableLayout
		if layout.Decode(&s) == nil {
			return s.Contents
		}
	}
	return layout.Kind
}

// handleDeviceAuthority implements spec §6 GET /device/authority?id=….
func (h *Handler) handleDeviceAuthority(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httpserver.RespondError(w, apperr.New(apperr.KindValidation, "missing_id", "id query parameter is required"))
		return
	}
	record, err := h.authorities.FindOne(r.Context(), bson.M{"device_id": id})
	if err != nil {
		httpserver.RespondError(w, apperr.Wrap(apperr.KindNotFound, "authority_not_found", "authority record not found", err))
		return
	}
	httpserver.Respond(w, http.StatusOK, record)
}
