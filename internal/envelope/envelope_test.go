package envelope

import (
	"testing"
	"time"
)

type samplePayload struct {
	JobID string `json:"job_id"`
	Count int    `json:"count"`
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	signer, err := NewSigner("a-shared-job-secret-value-for-hs256")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	in := samplePayload{JobID: "abc-123", Count: 7}
	token, err := signer.Encode(in, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var out samplePayload
	if err := signer.Decode(token, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if out != in {
		t.Errorf("Decode() = %+v, want %+v", out, in)
	}
}

func TestDecodeFailsWithDifferentSecret(t *testing.T) {
	signer, err := NewSigner("secret-one-padded-to-hs256-key-size")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	other, err := NewSigner("secret-two-padded-to-hs256-key-size")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	token, err := signer.Encode(samplePayload{JobID: "x"}, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var out samplePayload
	if err := other.Decode(token, &out); err == nil {
		t.Error("Decode() with different secret should fail, got nil error")
	}
}

func TestDecodeRejectsExpiredToken(t *testing.T) {
	signer, err := NewSigner("a-shared-job-secret-value-for-hs256")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	token, err := signer.Encode(samplePayload{JobID: "x"}, -time.Minute)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var out samplePayload
	if err := signer.Decode(token, &out); err == nil {
		t.Error("Decode() with expired token should fail, got nil error")
	}
}

func TestDecodeRejectsMalformedToken(t *testing.T) {
	signer, err := NewSigner("a-shared-job-secret-value-for-hs256")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	var out samplePayload
	if err := signer.Decode("not-a-token", &out); err == nil {
		t.Error("Decode() with malformed token should fail, got nil error")
	}
}
