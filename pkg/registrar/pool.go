package registrar

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lanternhq/beacon/internal/config"
	"github.com/lanternhq/beacon/internal/telemetry"
)

// PoolKey is the broker's fixed available-ID list name (spec §6: "ob:r").
const PoolKey = "ob:r"

// IncomingPingKey is the broker's fixed incoming-ping list name (spec §6: "ob:i").
const IncomingPingKey = "ob:i"

// deviceQueueKey is the per-device queue key, "queue:<device-id>" (spec §6).
func deviceQueueKey(deviceID string) string {
	return "queue:" + deviceID
}

// newDeviceID generates a short unique broker principal name (spec §3
// Device Identity: "a short unique string, generated by the registrar").
func newDeviceID() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("registrar: generating device id: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// refillPool implements spec §4.D step 2: if the available-ID list is below
// the configured minimum, generate that many fresh IDs, grant each one ACL
// entries before making it visible, then LPUSH the whole batch at once.
func (w *Worker) refillPool(ctx context.Context) error {
	length, err := w.broker.LLen(ctx, PoolKey)
	if err != nil {
		return fmt.Errorf("registrar: reading pool length: %w", err)
	}

	min := int64(w.cfg.RegistrationPoolMinimum)
	if min <= 0 {
		min = config.DefaultPoolMinimum
	}
	if length >= min {
		return nil
	}

	ids := make([]string, min)
	for i := range ids {
		id, err := newDeviceID()
		if err != nil {
			return err
		}
		ids[i] = id
	}

	// ACL entries must exist before the push that makes the IDs visible
	// (spec §3 Device Identity invariant); grant them concurrently since
	// each id's two SETUSER calls are independent of every other id's.
	group, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		group.Go(func() error { return w.grantDeviceACL(gctx, id) })
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("registrar: granting ACL for pool refill: %w", err)
	}

	pushArgs := make([]any, len(ids))
	for i, id := range ids {
		pushArgs[i] = id
	}
	if _, err := w.broker.LPush(ctx, PoolKey, pushArgs...); err != nil {
		return fmt.Errorf("registrar: pushing refilled ids: %w", err)
	}

	telemetry.PoolRefillTotal.Add(float64(len(ids)))
	telemetry.PoolAvailableIDs.Set(float64(length + min))
	w.logger.Info("registrar pool refilled", "generated", len(ids))
	return nil
}

// grantDeviceACL issues the two ACL SETUSER commands a pooled device id
// needs: read access to its own per-device queue, push access to the
// incoming-ping queue (spec §4.D step 2).
func (w *Worker) grantDeviceACL(ctx context.Context, id string) error {
	if err := w.broker.ACLSetUser(ctx, id,
		"on", ">"+id,
		"~"+deviceQueueKey(id),
		"+lpop", "+blpop",
	); err != nil {
		return fmt.Errorf("granting per-device queue read for %s: %w", id, err)
	}
	if err := w.broker.ACLSetUser(ctx, id,
		"~"+IncomingPingKey,
		"+rpush",
	); err != nil {
		return fmt.Errorf("granting incoming-ping push for %s: %w", id, err)
	}
	return nil
}
