package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lanternhq/beacon/internal/apperr"
	"github.com/lanternhq/beacon/internal/httpserver"
	"github.com/lanternhq/beacon/pkg/model"
	"github.com/lanternhq/beacon/pkg/registrar"
)

type deviceQueueRequest struct {
	DeviceID string       `json:"device_id"`
	Kind     model.Tagged `json:"kind"`
}

type lightsContent struct {
	On bool `json:"on"`
}

type scheduleContent struct {
	Enabled bool `json:"enabled"`
}

// handleDeviceQueue implements spec §6 POST /device/queue: dispatches on
// kind.Kind, enqueuing either a render (lights/message/link/away/clear) or a
// registrar job (rename/registration/make_public/make_private/schedule),
// and returns the assigned id.
func (h *Handler) handleDeviceQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.currentUser(r)
	if err != nil {
		httpserver.RespondError(w, err)
		return
	}

	var req deviceQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" {
		httpserver.RespondError(w, apperr.New(apperr.KindValidation, "invalid_body", "device_id and kind are required"))
		return
	}

	auth := model.NewUserAuth(user.Name)
	id, respErr := h.dispatchQueue(ctx, req, auth, user)
	if respErr != nil {
		httpserver.RespondError(w, respErr)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) dispatchQueue(ctx context.Context, req deviceQueueRequest, auth model.Tagged, user *model.User) (string, error) {
	switch req.Kind.Kind {
	case "lights":
		var c lightsContent
		if err := req.Kind.Decode(&c); err != nil {
			return "", apperr.Wrap(apperr.KindValidation, "invalid_lights", "decoding lights content", err)
		}
		cmd := model.LightingOff
		if c.On {
			cmd = model.LightingOn
		}
		id, _, err := h.renders.Enqueue(ctx, req.DeviceID, auth, model.LightingTag(cmd))
		return id, enqueueErr(err)

	case "message":
		var text string
		if err := req.Kind.Decode(&text); err != nil {
			return "", apperr.Wrap(apperr.KindValidation, "invalid_message", "decoding message content", err)
		}
		return h.enqueueMessage(ctx, req.DeviceID, auth, text)

	case "link":
		var contents string
		if err := req.Kind.Decode(&contents); err != nil {
			return "", apperr.Wrap(apperr.KindValidation, "invalid_link", "decoding link content", err)
		}
		layout, err := model.MarshalTagged(model.RenderLayoutKindScannable, model.ScannableLayout{Contents: contents})
		if err != nil {
			return "", apperr.Wrap(apperr.KindSerialization, "layout_encode_failed", "encoding scannable layout", err)
		}
		id, _, err := h.renders.Enqueue(ctx, req.DeviceID, auth, model.LayoutVariantTag(layout))
		return id, enqueueErr(err)

	case "away":
		return h.enqueueMessage(ctx, req.DeviceID, auth, "Busy")

	case "clear":
		return h.enqueueMessage(ctx, req.DeviceID, auth, "")

	case "rename":
		var newName string
		if err := req.Kind.Decode(&newName); err != nil {
			return "", apperr.Wrap(apperr.KindValidation, "invalid_rename", "decoding rename content", err)
		}
		job, err := model.MarshalTagged(model.JobKindRename, model.RenameJob{DeviceID: req.DeviceID, NewName: newName})
		if err != nil {
			return "", apperr.Wrap(apperr.KindSerialization, "job_encode_failed", "encoding rename job", err)
		}
		return h.enqueueJob(ctx, job)

	case "registration":
		job, err := model.MarshalTagged(model.JobKindRenders, model.RendersJob{
			Kind:     model.RendersJobKindRegistrationScannable,
			DeviceID: req.DeviceID,
		})
		if err != nil {
			return "", apperr.Wrap(apperr.KindSerialization, "job_encode_failed", "encoding renders job", err)
		}
		return h.enqueueJob(ctx, job)

	case "make_public", "make_private":
		change, err := model.MarshalTagged(model.PublicAvailabilityChangeKindSet, model.SetPublicAvailability{
			ToPublic: req.Kind.Kind == "make_public",
		})
		if err != nil {
			return "", apperr.Wrap(apperr.KindSerialization, "job_encode_failed", "encoding availability change", err)
		}
		job, err := model.MarshalTagged(model.JobKindOwnershipChange, model.OwnershipChangeJob{DeviceID: req.DeviceID, Change: change})
		if err != nil {
			return "", apperr.Wrap(apperr.KindSerialization, "job_encode_failed", "encoding ownership change job", err)
		}
		return h.enqueueJob(ctx, job)

	case "schedule":
		var c scheduleContent
		if err := req.Kind.Decode(&c); err != nil {
			return "", apperr.Wrap(apperr.KindValidation, "invalid_schedule", "decoding schedule content", err)
		}
		job, err := model.MarshalTagged(model.JobKindToggleDefaultSchedule, model.ToggleDefaultScheduleJob{
			UserID: user.OID, DeviceID: req.DeviceID, ShouldEnable: c.Enabled,
		})
		if err != nil {
			return "", apperr.Wrap(apperr.KindSerialization, "job_encode_failed", "encoding schedule toggle job", err)
		}
		return h.enqueueJob(ctx, job)

	default:
		return "", apperr.New(apperr.KindValidation, "unknown_kind", fmt.Sprintf("unknown queue kind %q", req.Kind.Kind))
	}
}

// enqueueMessage builds a Message render layout, used directly by "message"
// and as the literal translation spec §6 gives for "away" ("Busy") and
// "clear" ("").
func (h *Handler) enqueueMessage(ctx context.Context, deviceID string, auth model.Tagged, text string) (string, error) {
	layout, err := model.MarshalTagged(model.RenderLayoutKindMessage, model.MessageLayout{Text: text})
	if err != nil {
		return "", apperr.Wrap(apperr.KindSerialization, "layout_encode_failed", "encoding message layout", err)
	}
	id, _, err := h.renders.Enqueue(ctx, deviceID, auth, model.LayoutVariantTag(layout))
	return id, enqueueErr(err)
}

func (h *Handler) enqueueJob(ctx context.Context, job model.Tagged) (string, error) {
	id, err := registrar.EnqueueJob(ctx, h.broker, h.signer, job)
	if err != nil {
		return "", apperr.Wrap(apperr.KindTransport, "enqueue_failed", "enqueuing registrar job", err)
	}
	return id, nil
}

func enqueueErr(err error) error {
	if err == nil {
		return nil
	}
	return apperr.Wrap(apperr.KindTransport, "enqueue_failed", "enqueuing render", err)
}
