// Package renderer runs the renderer worker's loop: pop a queued render,
// evict anything stale ahead of it, rasterize or translate it to wire bytes,
// push it to the device's queue, and record history and job result (spec
// §4.E).
package renderer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/lanternhq/beacon/internal/config"
	"github.com/lanternhq/beacon/internal/envelope"
	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/internal/telemetry"
	"github.com/lanternhq/beacon/pkg/model"
	"github.com/lanternhq/beacon/pkg/rendering"
)

// JobResultsKey mirrors the registrar's job-result hash name (spec §6:
// "ob:registrar:results") — the renderer writes terminal results for the
// render jobs it completes into the same hash the registrar writes to and
// registrar.ReadResult reads from.
const JobResultsKey = "ob:registrar:results"

// Worker owns one broker connection and one document-store client; no state
// is shared with the registrar worker or the HTTP server (spec §5).
type Worker struct {
	brokerOpts platform.BrokerOptions
	storeURL   string
	storeDB    string
	historyCol string

	broker *platform.Broker
	store  *platform.Store

	signer    *envelope.Signer
	histories *platform.Coll[model.DeviceHistoryRecord]

	logger *slog.Logger

	consecutiveFailures int
}

// Deps bundles the wiring NewWorker needs.
type Deps struct {
	BrokerOpts platform.BrokerOptions
	StoreURL   string
	StoreDB    string
	HistoryCol string
	Signer     *envelope.Signer
	Logger     *slog.Logger
}

// NewWorker wires a renderer Worker. The broker/store connections are
// established lazily by the first iteration.
func NewWorker(d Deps) *Worker {
	return &Worker{
		brokerOpts: d.BrokerOpts,
		storeURL:   d.StoreURL,
		storeDB:    d.StoreDB,
		historyCol: d.HistoryCol,
		signer:     d.Signer,
		logger:     d.Logger,
	}
}

// Run loops with no fixed interval beyond the broker's blocking pop timeout
// (spec §4.E: "Loop with no fixed interval beyond the broker's blocking pop
// timeout (5s)."). It tolerates the same consecutive-failure budget as the
// registrar worker before giving up.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("renderer worker started", "pop_timeout", config.RenderPopTimeout)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("renderer worker stopped")
			w.closeSession()
			return
		default:
		}

		if err := w.iteration(ctx); err != nil {
			w.consecutiveFailures++
			w.logger.Error("renderer iteration failed", "error", err, "consecutive_failures", w.consecutiveFailures)
			w.closeSession()
			if w.consecutiveFailures > config.MaxConsecutiveTickFailures {
				w.logger.Error("renderer worker exiting after too many consecutive failures")
				return
			}
			continue
		}
		w.consecutiveFailures = 0
	}
}

func (w *Worker) closeSession() {
	if w.broker != nil {
		_ = w.broker.Close()
		w.broker = nil
	}
	if w.store != nil {
		_ = w.store.Close(context.Background())
		w.store = nil
	}
}

func (w *Worker) ensureSession(ctx context.Context) error {
	if w.broker == nil {
		b, err := platform.NewBroker(ctx, w.brokerOpts)
		if err != nil {
			return err
		}
		w.broker = b
	}
	if w.store == nil {
		s, err := platform.NewStore(ctx, w.storeURL, w.storeDB)
		if err != nil {
			return err
		}
		w.store = s
		w.histories = platform.Collection[model.DeviceHistoryRecord](s, w.historyCol)
	}
	return nil
}

// deviceQueueKey names the per-device render queue a device's credentials
// are ACL-scoped to (spec §4.D "queue:<id>", shared naming with the
// registrar's pool grants).
func deviceQueueKey(deviceID string) string { return "queue:" + deviceID }

// iteration runs one pass of spec §4.E's numbered steps.
func (w *Worker) iteration(ctx context.Context) error {
	if err := w.ensureSession(ctx); err != nil {
		return err
	}

	popped, err := w.broker.BLPop(ctx, config.RenderPopTimeout, rendering.RenderQueueKey)
	if err != nil {
		if platform.IsNoData(err) {
			return nil
		}
		return fmt.Errorf("renderer: popping render queue: %w", err)
	}
	if len(popped) < 2 {
		return nil
	}
	start := time.Now()

	var queued model.QueuedRender
	if err := w.signer.Decode(popped[1], &queued); err != nil {
		w.logger.Error("renderer: discarding malformed or expired render envelope", "error", err)
		return nil
	}

	if err := w.evictStale(ctx, queued.DeviceID); err != nil {
		return fmt.Errorf("renderer: evicting stale renders: %w", err)
	}

	payload, err := w.send(ctx, queued)
	if err != nil {
		w.recordResult(ctx, model.Failure(queued.ID, err.Error()))
		return fmt.Errorf("renderer: sending render: %w", err)
	}
	_ = payload

	if err := w.recordHistory(ctx, queued); err != nil {
		w.logger.Error("renderer: history upsert failed", "device_id", queued.DeviceID, "error", err)
	}

	w.recordResult(ctx, model.TerminalSuccess(queued.ID))
	telemetry.RenderLatency.Observe(time.Since(start).Seconds())
	return nil
}

// evictStale drops anything already queued for the device before pushing the
// new render, since only the most recent render for a device is meaningful
// (spec §4.E step 3: "Stale eviction"). Uses LTRIM key length 0, the
// documented idiom for emptying a list (spec §9 open question); once the list
// is empty the broker removes the key, just as a delete would.
func (w *Worker) evictStale(ctx context.Context, deviceID string) error {
	key := deviceQueueKey(deviceID)
	length, err := w.broker.LLen(ctx, key)
	if err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	telemetry.StaleEvictionsTotal.Add(float64(length))
	return w.broker.LTrim(ctx, key, length, 0)
}

// send pushes the rendered payload onto the device's queue: a lighting token
// for RenderVariantKindLighting, or a rasterized PNG for
// RenderVariantKindLayout (spec §4.E step 4, §4.C).
func (w *Worker) send(ctx context.Context, queued model.QueuedRender) ([]byte, error) {
	key := deviceQueueKey(queued.DeviceID)

	switch queued.Layout.Kind {
	case model.RenderVariantKindLighting:
		var cmd model.LightingCommand
		if err := queued.Layout.Decode(&cmd); err != nil {
			return nil, fmt.Errorf("decoding lighting command: %w", err)
		}
		token := rendering.LightingOffToken
		if cmd == model.LightingOn {
			token = rendering.LightingOnToken
		}
		if _, err := w.broker.LPush(ctx, key, token); err != nil {
			return nil, err
		}
		return []byte(token), nil

	case model.RenderVariantKindLayout:
		var layout model.Tagged
		if err := queued.Layout.Decode(&layout); err != nil {
			return nil, fmt.Errorf("decoding render layout: %w", err)
		}
		png, err := rendering.Rasterize(layout)
		if err != nil {
			return nil, fmt.Errorf("rasterizing layout: %w", err)
		}
		if _, err := w.broker.LPush(ctx, key, png); err != nil {
			return nil, err
		}
		return png, nil

	default:
		return nil, fmt.Errorf("unknown render variant kind %q", queued.Layout.Kind)
	}
}

// recordHistory appends the completed render to the device's bounded history
// list, truncating to the last model.MaxHistoryEntries (spec §4.E step 5,
// §3 Device History Record).
func (w *Worker) recordHistory(ctx context.Context, queued model.QueuedRender) error {
	entry := model.DeviceHistoryEntry{QueuedRender: queued, RecordedAt: time.Now().UTC()}

	existing, err := w.histories.FindOne(ctx, bson.M{"device_id": queued.DeviceID})
	var entries []model.DeviceHistoryEntry
	if err == nil {
		entries = existing.RenderHistory
	} else if err != platform.ErrNotFound {
		return err
	}
	entries = append(entries, entry)
	if len(entries) > model.MaxHistoryEntries {
		entries = entries[len(entries)-model.MaxHistoryEntries:]
	}

	_, err = w.histories.FindOneAndUpdateUpsert(ctx, bson.M{"device_id": queued.DeviceID}, bson.M{
		"$set":         bson.M{"render_history": entries},
		"$setOnInsert": bson.M{"device_id": queued.DeviceID},
	})
	return err
}

// recordResult writes a terminal job result into the shared job-results hash
// (spec §4.D "Result recording"). Errors are logged, not propagated: a
// failure to record a result must not re-fail an already-sent render.
func (w *Worker) recordResult(ctx context.Context, result model.JobResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		w.logger.Error("renderer: serializing job result", "error", err)
		return
	}
	if err := w.broker.HSet(ctx, JobResultsKey, result.JobID, raw); err != nil {
		w.logger.Error("renderer: writing job result", "error", err)
	}
}
