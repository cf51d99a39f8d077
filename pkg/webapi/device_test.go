package webapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lanternhq/beacon/pkg/model"
)

func TestSummarizeQueuedRenderMessage(t *testing.T) {
	layout, err := model.MarshalTagged(model.RenderLayoutKindMessage, model.MessageLayout{Text: "hello"})
	if err != nil {
		t.Fatalf("MarshalTagged: %v", err)
	}
	qr := model.QueuedRender{Layout: model.LayoutVariantTag(layout)}
	if got := summarizeQueuedRender(qr); got != "hello" {
		t.Errorf("summarizeQueuedRender(Message) = %q, want %q", got, "hello")
	}
}

func TestSummarizeQueuedRenderScannable(t *testing.T) {
	layout, err := model.MarshalTagged(model.RenderLayoutKindScannable, model.ScannableLayout{Contents: "https://x"})
	if err != nil {
		t.Fatalf("MarshalTagged: %v", err)
	}
	qr := model.QueuedRender{Layout: model.LayoutVariantTag(layout)}
	if got := summarizeQueuedRender(qr); got != "https://x" {
		t.Errorf("summarizeQueuedRender(Scannable) = %q, want %q", got, "https://x")
	}
}

func TestSummarizeQueuedRenderLighting(t *testing.T) {
	qr := model.QueuedRender{Layout: model.LightingTag(model.LightingOn)}
	if got := summarizeQueuedRender(qr); got != model.RenderVariantKindLighting {
		t.Errorf("summarizeQueuedRender(Lighting) = %q, want %q", got, model.RenderVariantKindLighting)
	}
}

func TestSummarizeQueuedRenderClear(t *testing.T) {
	layout, err := model.MarshalTagged(model.RenderLayoutKindClear, nil)
	if err != nil {
		t.Fatalf("MarshalTagged: %v", err)
	}
	qr := model.QueuedRender{Layout: model.LayoutVariantTag(layout)}
	if got := summarizeQueuedRender(qr); got != model.RenderLayoutKindClear {
		t.Errorf("summarizeQueuedRender(Clear) = %q, want %q", got, model.RenderLayoutKindClear)
	}
}

func TestHandleDeviceInfoMissingIDIsValidationError(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodGet, "/device/info", nil)
	rec := httptest.NewRecorder()

	h.handleDeviceInfo(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestHandleDeviceAuthorityMissingIDIsValidationError(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodGet, "/device/authority", nil)
	rec := httptest.NewRecorder()

	h.handleDeviceAuthority(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}
