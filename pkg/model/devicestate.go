package model

import "time"

// OriginKind tags a message entry's origin (spec §3 Device State).
const (
	OriginKindUnknown = "unknown"
	OriginKindUser    = "user"
)

// UserOrigin is the Tagged.Content payload for OriginKindUser.
type UserOrigin struct {
	Name string `json:"name"`
}

// MessageEntry is one line in a message list or a schedule layout's trailing
// entries (spec §3 Device State: "{content, origin ∈ {Unknown, User(name)}, timestamp}").
type MessageEntry struct {
	Content   string    `bson:"content" json:"content"`
	Origin    Tagged    `bson:"origin" json:"origin"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// NewUnknownOriginEntry builds a MessageEntry with an Unknown origin.
func NewUnknownOriginEntry(content string, at time.Time) MessageEntry {
	return MessageEntry{Content: content, Origin: Tagged{Kind: OriginKindUnknown}, Timestamp: at}
}

// NewUserOriginEntry builds a MessageEntry attributed to the given user name.
func NewUserOriginEntry(content, userName string, at time.Time) MessageEntry {
	tagged, err := MarshalTagged(OriginKindUser, UserOrigin{Name: userName})
	if err != nil {
		// Name is a plain string; MarshalTagged only fails on non-serializable
		// content, which cannot happen here.
		panic(err)
	}
	return MessageEntry{Content: content, Origin: tagged, Timestamp: at}
}

// MaxMessageListEntries bounds a MessageList to at most 4 entries, oldest
// dropped (spec §3 Device State, invariant 5).
const MaxMessageListEntries = 4

// CalendarEvent is one upcoming event rendered into a ScheduleLayout.
type CalendarEvent struct {
	Summary string    `bson:"summary" json:"summary"`
	Start   time.Time `bson:"start" json:"start"`
	End     time.Time `bson:"end" json:"end"`
}

// RenderingKind tags the optional Device State rendering sum.
const (
	RenderingKindMessageList    = "message_list"
	RenderingKindScheduleLayout = "schedule_layout"
)

// MessageListRendering is the Tagged.Content payload for RenderingKindMessageList.
type MessageListRendering struct {
	Entries []MessageEntry `json:"entries"`
}

// ScheduleLayoutRendering is the Tagged.Content payload for
// RenderingKindScheduleLayout.
type ScheduleLayoutRendering struct {
	Events  []CalendarEvent `json:"events"`
	Entries []MessageEntry  `json:"entries"`
}

// DeviceState is keyed by device_id; Rendering is an optional sum
// (spec §3 Device State).
type DeviceState struct {
	DeviceID  string    `bson:"device_id" json:"device_id"`
	Rendering *Tagged   `bson:"rendering,omitempty" json:"rendering,omitempty"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
