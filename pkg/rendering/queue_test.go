package rendering

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/lanternhq/beacon/internal/envelope"
	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/pkg/model"
)

func newTestBroker(t *testing.T) *platform.Broker {
	t.Helper()
	mr := miniredis.RunT(t)
	broker, err := platform.NewBroker(context.Background(), platform.BrokerOptions{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewBroker: %v", err)
	}
	t.Cleanup(func() { _ = broker.Close() })
	return broker
}

func TestQueueEnqueuePushesSignedEnvelope(t *testing.T) {
	broker := newTestBroker(t)
	signer, err := envelope.NewSigner("queue-test-secret-long-enough-for-hs256")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	q := NewQueue(broker, signer)

	layout := model.LayoutVariantTag(model.ClearTag())
	id, length, err := q.Enqueue(context.Background(), "device-1", model.RegistrarAuth(), layout)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if id == "" {
		t.Error("Enqueue returned empty job id")
	}
	if length != 1 {
		t.Errorf("length = %d, want 1", length)
	}

	raw, err := broker.LPop(context.Background(), RenderQueueKey)
	if err != nil {
		t.Fatalf("LPop: %v", err)
	}

	var decoded model.QueuedRender
	if err := signer.Decode(raw, &decoded); err != nil {
		t.Fatalf("decoding pushed envelope: %v", err)
	}
	if decoded.ID != id {
		t.Errorf("decoded.ID = %q, want %q", decoded.ID, id)
	}
	if decoded.DeviceID != "device-1" {
		t.Errorf("decoded.DeviceID = %q, want %q", decoded.DeviceID, "device-1")
	}
}

func TestQueueEnqueueLengthAccumulates(t *testing.T) {
	broker := newTestBroker(t)
	signer, err := envelope.NewSigner("queue-test-secret-long-enough-for-hs256")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	q := NewQueue(broker, signer)

	for i, want := range []int64{1, 2, 3} {
		_, length, err := q.Enqueue(context.Background(), "device-1", model.RegistrarAuth(), model.LayoutVariantTag(model.ClearTag()))
		if err != nil {
			t.Fatalf("Enqueue #%d: %v", i, err)
		}
		if length != want {
			t.Errorf("Enqueue #%d length = %d, want %d", i, length, want)
		}
	}
}
