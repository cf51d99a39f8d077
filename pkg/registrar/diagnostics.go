package registrar

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/lanternhq/beacon/internal/config"
	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/pkg/model"
)

// ActiveDeviceSetKey is the broker's fixed active-device index set name
// (spec §6: "ob:s").
const ActiveDeviceSetKey = "ob:s"

// livenessSweep implements spec §4.D step 3: drain up to
// active_device_chunk_size pings from the incoming-ping queue, upserting
// each device's diagnostic and enqueuing its first registration render.
func (w *Worker) livenessSweep(ctx context.Context) error {
	chunk := w.cfg.ActiveDeviceChunkSize
	if chunk <= 0 {
		chunk = config.DefaultActiveDeviceChunkSize
	}

	for i := 0; i < chunk; i++ {
		id, err := w.broker.LPop(ctx, IncomingPingKey)
		if err != nil {
			if platform.IsNoData(err) {
				return nil
			}
			return fmt.Errorf("registrar: popping incoming-ping queue: %w", err)
		}

		if err := w.observeDevicePing(ctx, id); err != nil {
			w.logger.Error("registrar: liveness sweep failed for device", "device_id", id, "error", err)
			continue
		}
	}
	return nil
}

func (w *Worker) observeDevicePing(ctx context.Context, id string) error {
	now := time.Now().UTC()
	diagnostic, err := w.diagnostics.FindOneAndUpdateUpsert(ctx,
		bson.M{"id": id},
		bson.M{
			"$set":         bson.M{"last_seen": now},
			"$setOnInsert": bson.M{"id": id, "first_seen": now},
		},
	)
	if err != nil {
		return fmt.Errorf("upserting diagnostic: %w", err)
	}

	if diagnostic.IsInitialOrUnset() {
		if err := w.enqueueRegistrationScannable(ctx, id); err != nil {
			return fmt.Errorf("enqueuing registration scannable: %w", err)
		}
		pending, err := model.MarshalTagged(model.RegistrationKindPendingRegistration, nil)
		if err != nil {
			return err
		}
		if _, err := w.diagnostics.FindOneAndUpdateUpsert(ctx,
			bson.M{"id": id},
			bson.M{"$set": bson.M{"registration_state": pending}},
		); err != nil {
			return fmt.Errorf("setting pending registration state: %w", err)
		}
	}

	if err := w.broker.SAdd(ctx, ActiveDeviceSetKey, id); err != nil {
		return fmt.Errorf("adding device to active set: %w", err)
	}
	return nil
}

// enqueueRegistrationScannable builds the registration URL for a device and
// enqueues a Scannable render to it, authority Registrar (spec §4.D
// "Renders.RegistrationScannable").
func (w *Worker) enqueueRegistrationScannable(ctx context.Context, deviceID string) error {
	u, err := url.Parse(w.cfg.InitialScannableAddr)
	if err != nil {
		return fmt.Errorf("parsing initial scannable addr: %w", err)
	}
	q := u.Query()
	q.Set("device_target_id", deviceID)
	u.RawQuery = q.Encode()

	layout, err := model.MarshalTagged(model.RenderLayoutKindScannable, model.ScannableLayout{Contents: u.String()})
	if err != nil {
		return err
	}
	variant := model.LayoutVariantTag(layout)

	_, _, err = w.renders.Enqueue(ctx, deviceID, model.RegistrarAuth(), variant)
	return err
}
