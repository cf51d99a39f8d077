package renderer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/lanternhq/beacon/internal/envelope"
	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/pkg/model"
	"github.com/lanternhq/beacon/pkg/rendering"
)

func testWorker(t *testing.T) (*Worker, *platform.Broker) {
	t.Helper()
	mr := miniredis.RunT(t)
	broker, err := platform.NewBroker(context.Background(), platform.BrokerOptions{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewBroker: %v", err)
	}
	t.Cleanup(func() { _ = broker.Close() })

	signer, err := envelope.NewSigner("renderer-test-secret")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	w := &Worker{
		broker: broker,
		signer: signer,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return w, broker
}

func TestEvictStaleEmptiesExistingQueue(t *testing.T) {
	w, broker := testWorker(t)
	ctx := context.Background()

	if _, err := broker.LPush(ctx, "queue:dev1", "stale-1", "stale-2"); err != nil {
		t.Fatalf("LPush: %v", err)
	}

	if err := w.evictStale(ctx, "dev1"); err != nil {
		t.Fatalf("evictStale: %v", err)
	}

	length, err := broker.LLen(ctx, "queue:dev1")
	if err != nil {
		t.Fatalf("LLen: %v", err)
	}
	if length != 0 {
		t.Errorf("queue length after evictStale = %d, want 0", length)
	}
}

func TestEvictStaleNoopOnEmptyQueue(t *testing.T) {
	w, _ := testWorker(t)
	if err := w.evictStale(context.Background(), "never-seen"); err != nil {
		t.Fatalf("evictStale on empty queue: %v", err)
	}
}

func TestSendLightingPushesToken(t *testing.T) {
	w, broker := testWorker(t)
	ctx := context.Background()

	queued := model.QueuedRender{ID: "r1", DeviceID: "dev1", Layout: model.LightingTag(model.LightingOn)}
	payload, err := w.send(ctx, queued)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if string(payload) != rendering.LightingOnToken {
		t.Errorf("payload = %q, want %q", payload, rendering.LightingOnToken)
	}

	raw, err := broker.LPop(ctx, "queue:dev1")
	if err != nil {
		t.Fatalf("LPop: %v", err)
	}
	if raw != rendering.LightingOnToken {
		t.Errorf("pushed value = %q, want %q", raw, rendering.LightingOnToken)
	}
}

func TestSendLayoutPushesPNGBytes(t *testing.T) {
	w, broker := testWorker(t)
	ctx := context.Background()

	queued := model.QueuedRender{ID: "r2", DeviceID: "dev2", Layout: model.LayoutVariantTag(model.ClearTag())}
	payload, err := w.send(ctx, queued)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(payload) == 0 {
		t.Fatal("send(Layout) returned no bytes")
	}

	raw, err := broker.LPop(ctx, "queue:dev2")
	if err != nil {
		t.Fatalf("LPop: %v", err)
	}
	if raw[:8] != string(payload[:8]) {
		t.Error("pushed value does not match rasterized payload prefix")
	}
}

func TestSendUnknownVariantErrors(t *testing.T) {
	w, _ := testWorker(t)
	queued := model.QueuedRender{ID: "r3", DeviceID: "dev3", Layout: model.Tagged{Kind: "bogus"}}
	if _, err := w.send(context.Background(), queued); err == nil {
		t.Error("send with unknown variant kind should error")
	}
}

func TestRecordResultWritesToHash(t *testing.T) {
	w, broker := testWorker(t)
	ctx := context.Background()

	w.recordResult(ctx, model.TerminalSuccess("job-1"))

	raw, err := broker.HGet(ctx, JobResultsKey, "job-1")
	if err != nil {
		t.Fatalf("HGet: %v", err)
	}
	if raw == "" {
		t.Error("expected a recorded result, got empty string")
	}
}

func TestDeviceQueueKey(t *testing.T) {
	if got := deviceQueueKey("abc"); got != "queue:abc" {
		t.Errorf("deviceQueueKey = %q, want %q", got, "queue:abc")
	}
}
