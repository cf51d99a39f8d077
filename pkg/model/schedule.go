package model

// ScheduleKindUserEventsBasic is the only Device Schedule kind defined by
// spec §3: render the user's calendar events.
const ScheduleKindUserEventsBasic = "user_events_basic"

// UserEventsBasicSchedule is the Tagged.Content payload for
// ScheduleKindUserEventsBasic.
type UserEventsBasicSchedule struct {
	UserID string `json:"user_id"`
}

// DeviceSchedule is keyed by device_id; its Kind is an optional sum, toggled
// on/off (spec §3 Device Schedule).
type DeviceSchedule struct {
	DeviceID string  `bson:"device_id" json:"device_id"`
	Kind     *Tagged `bson:"kind,omitempty" json:"kind,omitempty"`
}

// Enabled reports whether a schedule currently has an active kind.
func (s DeviceSchedule) Enabled() bool {
	return s.Kind != nil && s.Kind.Kind != ""
}
