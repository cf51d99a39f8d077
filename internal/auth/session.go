// Package auth issues and validates the session cookie and performs the
// identity-provider OAuth2/OIDC handshake (spec §6).
package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lanternhq/beacon/internal/envelope"
)

// SessionMaxAge is the session cookie's lifetime (spec §6: "Max-Age=86400").
const SessionMaxAge = 24 * time.Hour

// SessionClaims is the HS256 claim beacon's session cookie carries: `{exp, oid}`.
type SessionClaims struct {
	OID string `json:"oid"`
}

// SessionManager issues and validates beacon's session cookie, adapted from
// the teacher's SessionManager but trimmed to the single oid claim the
// spec's session contract names — no tenant, role, or method fields.
type SessionManager struct {
	signer      *envelope.Signer
	cookieName  string
	cookieDomain string
}

// NewSessionManager builds a SessionManager over the shared web session secret.
func NewSessionManager(secret, cookieName, cookieDomain string) (*SessionManager, error) {
	signer, err := envelope.NewSigner(secret)
	if err != nil {
		return nil, fmt.Errorf("auth: building session signer: %w", err)
	}
	return &SessionManager{signer: signer, cookieName: cookieName, cookieDomain: cookieDomain}, nil
}

// IssueCookie signs a session claim for oid and sets it on the response
// (spec §6: "Set-Cookie: <session>=<jwt>; Max-Age=86400; Path=/;
// SameSite=Strict; HttpOnly[; Secure]; Domain=…").
func (sm *SessionManager) IssueCookie(w http.ResponseWriter, oid string, secure bool) error {
	token, err := sm.signer.Encode(SessionClaims{OID: oid}, SessionMaxAge)
	if err != nil {
		return fmt.Errorf("auth: issuing session token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    token,
		Path:     "/",
		Domain:   sm.cookieDomain,
		MaxAge:   int(SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// ValidateCookie reads and validates the session cookie from the request.
func (sm *SessionManager) ValidateCookie(r *http.Request) (*SessionClaims, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		return nil, fmt.Errorf("auth: reading session cookie: %w", err)
	}
	var claims SessionClaims
	if err := sm.signer.Decode(cookie.Value, &claims); err != nil {
		return nil, fmt.Errorf("auth: validating session cookie: %w", err)
	}
	return &claims, nil
}

// ClearCookie removes the session cookie.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		Domain:   sm.cookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
