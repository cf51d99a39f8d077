package registrar

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/pkg/model"
)

// scheduleLookahead is how far ahead RunDeviceSchedule asks the calendar
// provider for events (spec §4.D: "events in the next 24h").
const scheduleLookahead = 24 * time.Hour

// handleRunDeviceSchedule implements spec §4.D "RunDeviceSchedule{device}".
func (w *Worker) handleRunDeviceSchedule(ctx context.Context, payload model.Tagged) error {
	var job model.RunDeviceScheduleJob
	if err := payload.Decode(&job); err != nil {
		return fmt.Errorf("decoding run-device-schedule job: %w", err)
	}

	schedule, err := w.schedules.FindOne(ctx, bson.M{"device_id": job.DeviceID})
	if err != nil {
		if err == platform.ErrNotFound {
			return nil
		}
		return fmt.Errorf("loading schedule: %w", err)
	}
	if !schedule.Enabled() || schedule.Kind.Kind != model.ScheduleKindUserEventsBasic {
		return nil
	}
	var basic model.UserEventsBasicSchedule
	if err := schedule.Kind.Decode(&basic); err != nil {
		return fmt.Errorf("decoding user-events-basic schedule: %w", err)
	}

	user, err := w.users.FindOne(ctx, bson.M{"oid": basic.UserID})
	if err != nil {
		return fmt.Errorf("loading user %s: %w", basic.UserID, err)
	}
	if user.LatestToken == nil {
		return fmt.Errorf("user %s has no stored token", basic.UserID)
	}
	accessToken, err := w.signer.UnwrapString(string(user.LatestToken.Token.AccessToken))
	if err != nil {
		return fmt.Errorf("unwrapping access token: %w", err)
	}

	events, err := w.calendar.UpcomingEvents(ctx, accessToken, scheduleLookahead)
	if err != nil {
		return fmt.Errorf("fetching calendar events: %w", err)
	}

	left, err := firstEventSummary(events)
	if err != nil {
		return err
	}
	name, err := stylizedComponent(displayName(user), bodyFontSize)
	if err != nil {
		return err
	}
	layout, err := splitLayoutTag(left, []model.Tagged{name}, model.DefaultSplitRatio)
	if err != nil {
		return err
	}

	_, _, err = w.renders.Enqueue(ctx, job.DeviceID, model.RegistrarAuth(), model.LayoutVariantTag(layout))
	return err
}

func firstEventSummary(events []model.CalendarEvent) ([]model.Tagged, error) {
	if len(events) == 0 {
		empty, err := stylizedComponent("No events", bodyFontSize)
		if err != nil {
			return nil, err
		}
		return []model.Tagged{empty}, nil
	}
	return eventStack(events[:1])
}

func displayName(u model.User) string {
	if u.Nickname != nil && *u.Nickname != "" {
		return *u.Nickname
	}
	return u.Name
}

// handleToggleDefaultSchedule implements spec §4.D
// "ToggleDefaultSchedule{user, device, enable}".
func (w *Worker) handleToggleDefaultSchedule(ctx context.Context, payload model.Tagged) ([]string, error) {
	var job model.ToggleDefaultScheduleJob
	if err := payload.Decode(&job); err != nil {
		return nil, fmt.Errorf("decoding toggle-default-schedule job: %w", err)
	}

	existing, err := w.schedules.FindOne(ctx, bson.M{"device_id": job.DeviceID})
	hasExisting := err == nil

	update := bson.M{}
	switch {
	case job.ShouldEnable && (!hasExisting || !existing.Enabled()):
		kind, tagErr := model.MarshalTagged(model.ScheduleKindUserEventsBasic, model.UserEventsBasicSchedule{UserID: job.UserID})
		if tagErr != nil {
			return nil, tagErr
		}
		update["kind"] = kind
	case !job.ShouldEnable:
		update["kind"] = nil
	default:
		// Already enabled; nothing to change but still percolate a refresh.
	}

	if len(update) > 0 {
		if _, err := w.schedules.FindOneAndUpdateUpsert(ctx,
			bson.M{"device_id": job.DeviceID},
			bson.M{"$set": update, "$setOnInsert": bson.M{"device_id": job.DeviceID}},
		); err != nil {
			return nil, fmt.Errorf("upserting schedule: %w", err)
		}
	}

	run, err := model.MarshalTagged(model.JobKindRunDeviceSchedule, model.RunDeviceScheduleJob{DeviceID: job.DeviceID})
	if err != nil {
		return nil, err
	}
	jobID, err := w.EnqueueJob(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("percolating run-device-schedule: %w", err)
	}
	return []string{jobID}, nil
}
