package model

import "time"

// DeviceSnapshot is the per-device entry stored in a User's devices map
// (spec §3 User).
type DeviceSnapshot struct {
	Nickname *string `bson:"nickname,omitempty" json:"nickname,omitempty"`
}

// WrappedToken is an access or refresh token string as stored at rest: a
// signed token wrapping the real value, never the plaintext secret (spec §3
// Token Handle). Produced/consumed via internal/envelope.
type WrappedToken string

// TokenPayload is what an OAuthToken's raw access/refresh strings look like
// and expires_in.
type TokenPayload struct {
	AccessToken  WrappedToken `json:"access_token"`
	RefreshToken WrappedToken `json:"refresh_token,omitempty"`
	ExpiresIn    int          `json:"expires_in"`
}

// TokenHandle is a user's stored OAuth token plus the time it was recorded
// (spec §3 Token Handle).
type TokenHandle struct {
	Created time.Time    `bson:"created" json:"created"`
	Token   TokenPayload `bson:"token" json:"token"`
}

// RefreshWindowSeconds is the threshold below which a token handle is
// refreshed: expires_in - age(created) < 3590s (spec §3, §4.D step 4).
const RefreshWindowSeconds = 3590

// ExpirationDiff returns expires_in - seconds_since(created) as of now.
func (h TokenHandle) ExpirationDiff(now time.Time) int {
	age := int(now.Sub(h.Created).Seconds())
	return h.Token.ExpiresIn - age
}

// NeedsRefresh reports whether the handle should be refreshed as of now.
func (h TokenHandle) NeedsRefresh(now time.Time) bool {
	return h.ExpirationDiff(now) < RefreshWindowSeconds
}

// User is keyed by oid, the external identity provider's subject claim
// (spec §3 User).
type User struct {
	OID         string                    `bson:"oid" json:"oid"`
	Name        string                    `bson:"name" json:"name"`
	Nickname    *string                   `bson:"nickname,omitempty" json:"nickname,omitempty"`
	Picture     *string                   `bson:"picture,omitempty" json:"picture,omitempty"`
	Devices     map[string]DeviceSnapshot `bson:"devices" json:"devices"`
	LatestToken *TokenHandle              `bson:"latest_token,omitempty" json:"latest_token,omitempty"`
}
