// Package registrar runs the registrar worker's tick loop: pool refill,
// liveness sweep, token refresh sweep, and job dispatch (spec §4.D).
package registrar

import (
	"context"
	"log/slog"
	"time"

	"github.com/lanternhq/beacon/internal/auth"
	"github.com/lanternhq/beacon/internal/config"
	"github.com/lanternhq/beacon/internal/envelope"
	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/internal/telemetry"
	"github.com/lanternhq/beacon/pkg/calendar"
	"github.com/lanternhq/beacon/pkg/model"
	"github.com/lanternhq/beacon/pkg/rendering"
)

// Worker owns one broker connection and one document-store client; no state
// is shared with the renderer worker or the HTTP server (spec §5).
type Worker struct {
	cfg         config.RegistrarConfig
	brokerOpts  platform.BrokerOptions
	storeURL    string
	storeDB     string
	collections config.StoreCollections

	broker *platform.Broker
	store  *platform.Store

	signer   *envelope.Signer
	renders  *rendering.Queue
	identity *auth.Identity
	calendar calendar.Client

	diagnostics *platform.Coll[model.DeviceDiagnostic]
	authorities *platform.Coll[model.DeviceAuthorityRecord]
	schedules   *platform.Coll[model.DeviceSchedule]
	states      *platform.Coll[model.DeviceState]
	users       *platform.Coll[model.User]

	logger *slog.Logger

	consecutiveFailures int
}

// Deps bundles the wiring NewWorker needs.
type Deps struct {
	Config      config.RegistrarConfig
	BrokerOpts  platform.BrokerOptions
	StoreURL    string
	StoreDB     string
	Collections config.StoreCollections
	Signer      *envelope.Signer
	Identity    *auth.Identity
	Calendar    calendar.Client
	Logger      *slog.Logger
}

// NewWorker wires a registrar Worker. The broker/store connections are
// established lazily by the first tick (spec §4.D step 1).
func NewWorker(d Deps) *Worker {
	return &Worker{
		cfg:         d.Config,
		brokerOpts:  d.BrokerOpts,
		storeURL:    d.StoreURL,
		storeDB:     d.StoreDB,
		collections: d.Collections,
		signer:      d.Signer,
		identity:    d.Identity,
		calendar:    d.Calendar,
		logger:      d.Logger,
	}
}

// Run ticks every 200ms until ctx is cancelled, or the worker observes more
// than config.MaxConsecutiveTickFailures consecutive failures (spec §4.D:
// "Tolerate up to 10 consecutive tick failures before exiting.").
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("registrar worker started", "interval", config.TickInterval)
	ticker := time.NewTicker(config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("registrar worker stopped")
			w.closeSession()
			return
		case <-ticker.C:
			if err := w.tick(ctx); err != nil {
				w.consecutiveFailures++
				telemetry.RegistrarTickFailuresTotal.Inc()
				w.logger.Error("registrar tick failed", "error", err, "consecutive_failures", w.consecutiveFailures)
				w.closeSession()
				if w.consecutiveFailures > config.MaxConsecutiveTickFailures {
					w.logger.Error("registrar worker exiting after too many consecutive tick failures")
					return
				}
				continue
			}
			w.consecutiveFailures = 0
		}
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

// tick runs steps 1-5 of the registrar loop (spec §4.D).
func (w *Worker) tick(ctx context.Context) error {
	if err := w.ensureSession(ctx); err != nil {
		return err
	}

	if err := w.refillPool(ctx); err != nil {
		return err
	}
	if err := w.livenessSweep(ctx); err != nil {
		return err
	}
	if err := w.tokenRefreshSweep(ctx); err != nil {
		return err
	}
	if err := w.jobTick(ctx); err != nil {
		return err
	}
	return nil
}

// ensureSession connects the broker and store if this is the first tick
// since startup or since the last failure (spec §4.D step 1).
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
		w.diagnostics = platform.Collection[model.DeviceDiagnostic](s, w.collections.DeviceDiagnostics)
		w.authorities = platform.Collection[model.DeviceAuthorityRecord](s, w.collections.DeviceAuthorities)
		w.schedules = platform.Collection[model.DeviceSchedule](s, w.collections.DeviceSchedules)
		w.states = platform.Collection[model.DeviceState](s, w.collections.DeviceStates)
		w.users = platform.Collection[model.User](s, w.collections.Users)
		w.renders = rendering.NewQueue(w.broker, w.signer)
	}
	return nil
}
