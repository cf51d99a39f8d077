package webapi

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/lanternhq/beacon/internal/apperr"
	"github.com/lanternhq/beacon/internal/envelope"
	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/pkg/model"
	"github.com/lanternhq/beacon/pkg/registrar"
	"github.com/lanternhq/beacon/pkg/rendering"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	broker, err := platform.NewBroker(context.Background(), platform.BrokerOptions{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewBroker: %v", err)
	}
	t.Cleanup(func() { _ = broker.Close() })

	signer, err := envelope.NewSigner("webapi-test-secret-long-enough-for-hs256")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	return &Handler{
		broker:  broker,
		signer:  signer,
		renders: rendering.NewQueue(broker, signer),
	}
}

func testUser() *model.User {
	return &model.User{OID: "oid-1", Name: "alice"}
}

func TestDispatchQueueLights(t *testing.T) {
	h := testHandler(t)
	req := deviceQueueRequest{DeviceID: "dev-1", Kind: mustTagged(t, "lights", lightsContent{On: true})}
	id, err := h.dispatchQueue(context.Background(), req, model.NewUserAuth("alice"), testUser())
	if err != nil {
		t.Fatalf("dispatchQueue(lights): %v", err)
	}
	if id == "" {
		t.Error("expected non-empty render id")
	}
}

func TestDispatchQueueMessage(t *testing.T) {
	h := testHandler(t)
	req := deviceQueueRequest{DeviceID: "dev-1", Kind: mustTagged(t, "message", "hello there")}
	id, err := h.dispatchQueue(context.Background(), req, model.NewUserAuth("alice"), testUser())
	if err != nil {
		t.Fatalf("dispatchQueue(message): %v", err)
	}
	if id == "" {
		t.Error("expected non-empty render id")
	}
}

func TestDispatchQueueAwayAndClear(t *testing.T) {
	h := testHandler(t)
	for _, kind := range []string{"away", "clear"} {
		req := deviceQueueRequest{DeviceID: "dev-1", Kind: model.Tagged{Kind: kind}}
		if _, err := h.dispatchQueue(context.Background(), req, model.NewUserAuth("alice"), testUser()); err != nil {
			t.Errorf("dispatchQueue(%s): %v", kind, err)
		}
	}
}

func TestDispatchQueueLink(t *testing.T) {
	h := testHandler(t)
	req := deviceQueueRequest{DeviceID: "dev-1", Kind: mustTagged(t, "link", "https://example.com/claim")}
	if _, err := h.dispatchQueue(context.Background(), req, model.NewUserAuth("alice"), testUser()); err != nil {
		t.Fatalf("dispatchQueue(link): %v", err)
	}
}

func TestDispatchQueueRenameEnqueuesRegistrarJob(t *testing.T) {
	h := testHandler(t)
	req := deviceQueueRequest{DeviceID: "dev-1", Kind: mustTagged(t, "rename", "new-name")}
	id, err := h.dispatchQueue(context.Background(), req, model.NewUserAuth("alice"), testUser())
	if err != nil {
		t.Fatalf("dispatchQueue(rename): %v", err)
	}
	if id == "" {
		t.Error("expected non-empty job id")
	}

	length, err := h.broker.LLen(context.Background(), registrar.RegistrarJobQueueKey)
	if err != nil {
		t.Fatalf("LLen: %v", err)
	}
	if length != 1 {
		t.Errorf("registrar job queue length = %d, want 1", length)
	}
}

func TestDispatchQueueMakePublic(t *testing.T) {
	h := testHandler(t)
	req := deviceQueueRequest{DeviceID: "dev-1", Kind: model.Tagged{Kind: "make_public"}}
	if _, err := h.dispatchQueue(context.Background(), req, model.NewUserAuth("alice"), testUser()); err != nil {
		t.Fatalf("dispatchQueue(make_public): %v", err)
	}
}

func TestDispatchQueueSchedule(t *testing.T) {
	h := testHandler(t)
	req := deviceQueueRequest{DeviceID: "dev-1", Kind: mustTagged(t, "schedule", scheduleContent{Enabled: true})}
	if _, err := h.dispatchQueue(context.Background(), req, model.NewUserAuth("alice"), testUser()); err != nil {
		t.Fatalf("dispatchQueue(schedule): %v", err)
	}
}

func TestDispatchQueueUnknownKind(t *testing.T) {
	h := testHandler(t)
	req := deviceQueueRequest{DeviceID: "dev-1", Kind: model.Tagged{Kind: "bogus"}}
	_, err := h.dispatchQueue(context.Background(), req, model.NewUserAuth("alice"), testUser())
	if err == nil {
		t.Fatal("dispatchQueue with unknown kind should error")
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("KindOf(err) = %q, want %q", apperr.KindOf(err), apperr.KindValidation)
	}
}

func TestDispatchQueueInvalidLightsContentErrors(t *testing.T) {
	h := testHandler(t)
	req := deviceQueueRequest{DeviceID: "dev-1", Kind: mustTagged(t, "lights", "not-an-object")}
	_, err := h.dispatchQueue(context.Background(), req, model.NewUserAuth("alice"), testUser())
	if err == nil {
		t.Fatal("dispatchQueue(lights) with malformed content should error")
	}
}

func mustTagged(t *testing.T, kind string, content any) model.Tagged {
	t.Helper()
	tagged, err := model.MarshalTagged(kind, content)
	if err != nil {
		t.Fatalf("MarshalTagged(%s): %v", kind, err)
	}
	return tagged
}
