package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIssueAndValidateCookieRoundTrip(t *testing.T) {
	sm, err := NewSessionManager("a-shared-session-secret-for-hs256-tests","beacon_session", "")
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := sm.IssueCookie(rec, "owner-1", false); err != nil {
		t.Fatalf("IssueCookie: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	claims, err := sm.ValidateCookie(req)
	if err != nil {
		t.Fatalf("ValidateCookie: %v", err)
	}
	if claims.OID != "owner-1" {
		t.Errorf("claims.OID = %q, want %q", claims.OID, "owner-1")
	}
}

func TestValidateCookieMissingFails(t *testing.T) {
	sm, err := NewSessionManager("a-shared-session-secret-for-hs256-tests","beacon_session", "")
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := sm.ValidateCookie(req); err == nil {
		t.Error("ValidateCookie with no cookie set should fail, got nil error")
	}
}

func TestValidateCookieRejectsDifferentSecret(t *testing.T) {
	issuer, err := NewSessionManager("secret-one-padded-to-hs256-key-size", "beacon_session", "")
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	verifier, err := NewSessionManager("secret-two-padded-to-hs256-key-size", "beacon_session", "")
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := issuer.IssueCookie(rec, "owner-1", false); err != nil {
		t.Fatalf("IssueCookie: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	if _, err := verifier.ValidateCookie(req); err == nil {
		t.Error("ValidateCookie with mismatched secret should fail, got nil error")
	}
}

func TestClearCookieExpiresImmediately(t *testing.T) {
	sm, err := NewSessionManager("a-shared-session-secret-for-hs256-tests","beacon_session", "")
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	rec := httptest.NewRecorder()
	sm.ClearCookie(rec, false)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("len(cookies) = %d, want 1", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("cleared cookie MaxAge = %d, want negative", cookies[0].MaxAge)
	}
	if cookies[0].Value != "" {
		t.Errorf("cleared cookie Value = %q, want empty", cookies[0].Value)
	}
}
