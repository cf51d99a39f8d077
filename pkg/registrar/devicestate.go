package registrar

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/pkg/model"
)

// transition applies one device-state event to the current rendering and
// returns the next rendering (nil for "none"), per spec §4.D's transition
// table.
func transition(current *model.Tagged, event model.Tagged) (*model.Tagged, error) {
	switch event.Kind {
	case model.TransitionEventKindClear:
		return nil, nil

	case model.TransitionEventKindPushMessage:
		var push model.PushMessageEvent
		if err := event.Decode(&push); err != nil {
			return nil, fmt.Errorf("decoding push-message event: %w", err)
		}
		entry := model.MessageEntry{Content: push.Content, Origin: push.Origin, Timestamp: time.Now().UTC()}

		if current != nil && current.Kind == model.RenderingKindScheduleLayout {
			var sl model.ScheduleLayoutRendering
			if err := current.Decode(&sl); err != nil {
				return nil, err
			}
			sl.Entries = appendBounded(sl.Entries, entry)
			next, err := model.MarshalTagged(model.RenderingKindScheduleLayout, sl)
			return &next, err
		}

		var ml model.MessageListRendering
		if current != nil && current.Kind == model.RenderingKindMessageList {
			if err := current.Decode(&ml); err != nil {
				return nil, err
			}
		}
		ml.Entries = appendBounded(ml.Entries, entry)
		next, err := model.MarshalTagged(model.RenderingKindMessageList, ml)
		return &next, err

	case model.TransitionEventKindSetSchedule:
		var set model.SetScheduleEvent
		if err := event.Decode(&set); err != nil {
			return nil, fmt.Errorf("decoding set-schedule event: %w", err)
		}

		var entries []model.MessageEntry
		if current != nil && current.Kind == model.RenderingKindScheduleLayout {
			var sl model.ScheduleLayoutRendering
			if err := current.Decode(&sl); err != nil {
				return nil, err
			}
			entries = sl.Entries
		}
		next, err := model.MarshalTagged(model.RenderingKindScheduleLayout,
			model.ScheduleLayoutRendering{Events: set.Events, Entries: entries})
		return &next, err

	default:
		return nil, fmt.Errorf("unknown transition event kind %q", event.Kind)
	}
}

// appendBounded appends entry and truncates to the last MaxMessageListEntries.
func appendBounded(entries []model.MessageEntry, entry model.MessageEntry) []model.MessageEntry {
	entries = append(entries, entry)
	if len(entries) > model.MaxMessageListEntries {
		entries = entries[len(entries)-model.MaxMessageListEntries:]
	}
	return entries
}

// handleMutateDeviceState implements spec §4.D "MutateDeviceState{device,
// transition}": load-or-insert the device state, apply the transition, set
// the new rendering, and percolate a CurrentDeviceState render job.
func (w *Worker) handleMutateDeviceState(ctx context.Context, payload model.Tagged) ([]string, error) {
	var job model.DeviceStateTransitionRequest
	if err := payload.Decode(&job); err != nil {
		return nil, fmt.Errorf("decoding mutate-device-state job: %w", err)
	}

	state, err := w.states.FindOne(ctx, bson.M{"device_id": job.DeviceID})
	if err != nil {
		if err != platform.ErrNotFound {
			return nil, fmt.Errorf("loading device state: %w", err)
		}
		state = model.DeviceState{DeviceID: job.DeviceID}
	}

	next, err := transition(state.Rendering, job.Event)
	if err != nil {
		return nil, fmt.Errorf("applying transition: %w", err)
	}

	now := time.Now().UTC()
	update := bson.M{"updated_at": now}
	if next != nil {
		update["rendering"] = *next
	} else {
		update["rendering"] = nil
	}
	if _, err := w.states.FindOneAndUpdateUpsert(ctx,
		bson.M{"device_id": job.DeviceID},
		bson.M{"$set": update, "$setOnInsert": bson.M{"device_id": job.DeviceID}},
	); err != nil {
		return nil, fmt.Errorf("persisting device state: %w", err)
	}

	percolated, err := model.MarshalTagged(model.JobKindRenders, model.RendersJob{
		Kind: model.RendersJobKindCurrentDeviceState, DeviceID: job.DeviceID,
	})
	if err != nil {
		return nil, err
	}
	jobID, err := w.EnqueueJob(ctx, percolated)
	if err != nil {
		return nil, fmt.Errorf("percolating current-device-state render: %w", err)
	}
	return []string{jobID}, nil
}

// handleRenders implements spec §4.D "Renders.RegistrationScannable{device}"
// and "Renders.CurrentDeviceState{device}".
func (w *Worker) handleRenders(ctx context.Context, payload model.Tagged) error {
	var job model.RendersJob
	if err := payload.Decode(&job); err != nil {
		return fmt.Errorf("decoding renders job: %w", err)
	}

	switch job.Kind {
	case model.RendersJobKindRegistrationScannable:
		return w.enqueueRegistrationScannable(ctx, job.DeviceID)

	case model.RendersJobKindCurrentDeviceState:
		state, err := w.states.FindOne(ctx, bson.M{"device_id": job.DeviceID})
		layout := model.ClearTag()
		if err == nil && state.Rendering != nil {
			built, buildErr := buildLayout(*state.Rendering)
			if buildErr == nil {
				layout = built
			} else {
				w.logger.Error("registrar: layout build failed, falling back to clear",
					"device_id", job.DeviceID, "error", buildErr)
			}
		} else if err != nil && err != platform.ErrNotFound {
			return fmt.Errorf("loading device state: %w", err)
		}

		variant := model.LayoutVariantTag(layout)
		_, _, err = w.renders.Enqueue(ctx, job.DeviceID, model.RegistrarAuth(), variant)
		return err

	default:
		return fmt.Errorf("unknown renders job kind %q", job.Kind)
	}
}
