package httpserver

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/lanternhq/beacon/internal/apperr"
)

func TestRespondWritesStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Respond(rec, 201, map[string]string{"id": "dev-1"})

	if rec.Code != 201 {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["id"] != "dev-1" {
		t.Errorf("body[id] = %q, want dev-1", body["id"])
	}
}

func TestRespondWithNilDataWritesNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Respond(rec, 204, nil)
	if rec.Code != 204 {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindNotFound, 404},
		{apperr.KindForbidden, 403},
		{apperr.KindAuth, 401},
		{apperr.KindValidation, 422},
		{apperr.KindSerialization, 400},
		{apperr.KindTransport, 502},
		{apperr.KindExternal, 502},
		{apperr.KindProtocol, 500},
		{"", 500},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		var err error
		if c.kind == "" {
			err = assertPlainError{}
		} else {
			err = apperr.New(c.kind, "some_tag", "message")
		}
		RespondError(rec, err)
		if rec.Code != c.want {
			t.Errorf("kind %q: status = %d, want %d", c.kind, rec.Code, c.want)
		}
	}
}

func TestRespondErrorBodyCarriesTag(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, apperr.New(apperr.KindValidation, "missing_field", "device_id required"))

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Error != "missing_field" {
		t.Errorf("body.Error = %q, want missing_field", body.Error)
	}
}

type assertPlainError struct{}

func (assertPlainError) Error() string { return "plain failure" }
