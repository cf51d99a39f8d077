// Package envelope implements the HS256-signed compact tokens that wrap
// every job placed on the registrar queue and every render placed on the
// render queue (spec §4.C, §6: "Both queues store HS256 compact tokens with
// claims {exp, job}, signed with the shared job secret"). It is the same
// signing primitive the teacher uses for session cookies
// (wisbric-nightowl's internal/auth/session.go), generalized to wrap an
// arbitrary JSON payload instead of a fixed claims struct.
//
// HS256 here is used defensively — no plaintext secrets sit in the queue or
// the document store — not for authorization. A deployment may substitute
// any authenticated-encryption primitive so long as the contract holds:
// bytes at rest and on the queue require the shared secret to parse.
package envelope

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// Signer signs and verifies envelope tokens with a single shared secret.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer from the deployment-wide job secret.
func NewSigner(secret string) (*Signer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("envelope: secret must not be empty")
	}
	return &Signer{key: []byte(secret)}, nil
}

// registeredClaims carries only the expiry; the payload rides alongside as a
// second claims set, the way SessionManager.IssueToken layers jwt.Claims with
// a custom struct.
type registeredClaims struct {
	Expiry *jwt.NumericDate `json:"exp"`
}

// Encode signs payload (any JSON-marshalable value) into a compact token that
// expires after ttl.
func (s *Signer) Encode(payload any, ttl time.Duration) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: s.key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("envelope: creating signer: %w", err)
	}

	reg := registeredClaims{Expiry: jwt.NewNumericDate(time.Now().Add(ttl))}

	token, err := jwt.Signed(signer).Claims(reg).Claims(payload).Serialize()
	if err != nil {
		return "", fmt.Errorf("envelope: signing token: %w", err)
	}
	return token, nil
}

// Decode verifies raw's signature and expiry, then unmarshals its payload
// claims into out. It rejects expired or malformed tokens without panicking;
// callers (the registrar and renderer workers) are expected to log and skip.
func (s *Signer) Decode(raw string, out any) error {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return fmt.Errorf("envelope: parsing token: %w", err)
	}

	var reg registeredClaims
	if err := tok.Claims(s.key, &reg, out); err != nil {
		return fmt.Errorf("envelope: verifying token: %w", err)
	}

	if reg.Expiry == nil {
		return fmt.Errorf("envelope: token missing exp claim")
	}
	if reg.Expiry.Time().Before(time.Now()) {
		return fmt.Errorf("envelope: token expired at %s", reg.Expiry.Time())
	}

	return nil
}

// RawClaims returns the decoded JSON claims without requiring the caller to
// know the shape in advance.
func (s *Signer) RawClaims(raw string) (json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := s.Decode(raw, &m); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// stringClaim is the claims shape WrapString/UnwrapString ride over, since
// jwt claims must marshal to a JSON object rather than a bare string.
type stringClaim struct {
	Value string `json:"v"`
}

// WrapString signs a plaintext secret (an OAuth access or refresh token) into
// a compact token, so the document store never holds it in the clear
// (spec §3 Token Handle).
func (s *Signer) WrapString(plain string, ttl time.Duration) (string, error) {
	return s.Encode(stringClaim{Value: plain}, ttl)
}

// UnwrapString reverses WrapString.
func (s *Signer) UnwrapString(wrapped string) (string, error) {
	var claim stringClaim
	if err := s.Decode(wrapped, &claim); err != nil {
		return "", err
	}
	return claim.Value, nil
}
