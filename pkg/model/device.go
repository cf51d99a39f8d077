package model

import "time"

// RegistrationState tags a device diagnostic's progression from Initial to
// Owned (spec §3 Device Diagnostic).
const (
	RegistrationKindInitial            = "initial"
	RegistrationKindPendingRegistration = "pending_registration"
	RegistrationKindOwned              = "owned"
)

// OwnedRegistration is the Tagged.Content payload for RegistrationKindOwned.
type OwnedRegistration struct {
	OriginalOwner string `json:"original_owner"`
}

// DeviceDiagnostic is the per-device liveness and metadata record (spec §3).
type DeviceDiagnostic struct {
	ID                string  `bson:"id" json:"id"`
	FirstSeen         time.Time `bson:"first_seen" json:"first_seen"`
	LastSeen          time.Time `bson:"last_seen" json:"last_seen"`
	Nickname          *string `bson:"nickname,omitempty" json:"nickname,omitempty"`
	SentMessageCount  int     `bson:"sent_message_count" json:"sent_message_count"`
	RegistrationState Tagged  `bson:"registration_state" json:"registration_state"`
}

// IsInitialOrUnset reports whether the diagnostic has not yet progressed past
// Initial — either the tag is explicitly "initial" or entirely unset (the
// zero value from a first $setOnInsert upsert).
func (d DeviceDiagnostic) IsInitialOrUnset() bool {
	return d.RegistrationState.Kind == "" || d.RegistrationState.Kind == RegistrationKindInitial
}

// AuthorityModel tags the authority kinds (spec §3 Device Authority Record).
const (
	AuthorityKindExclusive = "exclusive"
	AuthorityKindShared    = "shared"
	AuthorityKindPublic    = "public"
)

// ExclusiveAuthority is the Tagged.Content payload for AuthorityKindExclusive.
type ExclusiveAuthority struct {
	Owner string `json:"owner"`
}

// SharedOrPublicAuthority is the Tagged.Content payload for AuthorityKindShared
// and AuthorityKindPublic — both carry an owner and a guest list.
type SharedOrPublicAuthority struct {
	Owner  string   `json:"owner"`
	Guests []string `json:"guests"`
}

// DeviceAuthorityRecord defines who may control a device (spec §3).
type DeviceAuthorityRecord struct {
	DeviceID       string `bson:"device_id" json:"device_id"`
	AuthorityModel Tagged `bson:"authority_model" json:"authority_model"`
}

// DeviceHistoryEntry is one element of a device's bounded render history
// (spec §3 Device History Record).
type DeviceHistoryEntry struct {
	QueuedRender QueuedRender `bson:"queued_render" json:"queued_render"`
	RecordedAt   time.Time    `bson:"recorded_at" json:"recorded_at"`
}

// MaxHistoryEntries bounds Device History Record's render_history list.
const MaxHistoryEntries = 10

// DeviceHistoryRecord is the bounded append-only list of the last 10 queued
// renders for a device (spec §3).
type DeviceHistoryRecord struct {
	DeviceID      string               `bson:"device_id" json:"device_id"`
	RenderHistory []DeviceHistoryEntry `bson:"render_history" json:"render_history"`
}
