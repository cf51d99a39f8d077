package registrar

import (
	"fmt"

	"github.com/lanternhq/beacon/pkg/model"
)

// bodyFontSize and metaFontSize are the two sizes spec §4.D's layout builder
// calls for ("message body at 34pt, then origin + formatted timestamp at
// 24pt"; events "summary at 34pt, time range at 24pt").
const (
	bodyFontSize = 34
	metaFontSize = 24
)

// buildLayout maps a Device State's Rendering into a RenderLayout
// (spec §4.D "Layout builder from device state").
func buildLayout(rendering model.Tagged) (model.Tagged, error) {
	switch rendering.Kind {
	case model.RenderingKindMessageList:
		var ml model.MessageListRendering
		if err := rendering.Decode(&ml); err != nil {
			return model.Tagged{}, fmt.Errorf("decoding message list rendering: %w", err)
		}
		return buildMessageListLayout(ml)

	case model.RenderingKindScheduleLayout:
		var sl model.ScheduleLayoutRendering
		if err := rendering.Decode(&sl); err != nil {
			return model.Tagged{}, fmt.Errorf("decoding schedule layout rendering: %w", err)
		}
		return buildScheduleLayout(sl)

	default:
		return model.Tagged{}, fmt.Errorf("unknown rendering kind %q", rendering.Kind)
	}
}

// buildMessageListLayout builds the left column as stacked pairs — message
// body at 34pt, then origin + timestamp at 24pt, one pair per entry — with
// an empty right column (spec §4.D: "left column of stylized pairs ...
// right empty, ratio 80").
func buildMessageListLayout(ml model.MessageListRendering) (model.Tagged, error) {
	left, err := messageEntryStack(ml.Entries)
	if err != nil {
		return model.Tagged{}, err
	}
	return splitLayoutTag(left, nil, 80)
}

// buildScheduleLayout builds the left column as up to 4 event pairs
// (summary at 34pt, time range at 24pt) and the right column as message
// entries in "Separate layout" — body at 34pt, then origin and timestamp at
// 24pt, as three stacked lines each (spec §4.D).
func buildScheduleLayout(sl model.ScheduleLayoutRendering) (model.Tagged, error) {
	left, err := eventStack(sl.Events)
	if err != nil {
		return model.Tagged{}, err
	}
	right, err := messageEntrySeparateStack(sl.Entries)
	if err != nil {
		return model.Tagged{}, err
	}
	return splitLayoutTag(left, right, 50)
}

func splitLayoutTag(left, right []model.Tagged, ratio int) (model.Tagged, error) {
	return model.MarshalTagged(model.RenderLayoutKindSplit, model.SplitLayout{Left: left, Right: right, Ratio: ratio})
}

// stylizedComponent wraps a single line of text in a left-bordered
// StylizedMessage at the given size (spec §4.D: "All components styled with
// left border (2px), left padding/margin (10px)").
func stylizedComponent(text string, size int) (model.Tagged, error) {
	border, padding, margin := 2, 10, 10
	return model.MarshalTagged(model.RenderLayoutKindStylizedMessage, model.StylizedMessageLayout{
		Text:    text,
		Font:    model.DefaultFont,
		Size:    size,
		Border:  &border,
		Padding: &padding,
		Margin:  &margin,
	})
}

// messageEntryStack builds the body(34pt)/meta(24pt) pair for each message
// entry, in order, bounded to the same entries the device state already
// truncated to MaxMessageListEntries.
func messageEntryStack(entries []model.MessageEntry) ([]model.Tagged, error) {
	stack := make([]model.Tagged, 0, len(entries)*2)
	for _, e := range entries {
		body, err := stylizedComponent(e.Content, bodyFontSize)
		if err != nil {
			return nil, err
		}
		meta, err := stylizedComponent(fmt.Sprintf("%s · %s", originLabel(e.Origin), e.Timestamp.Format("2006-01-02 15:04")), metaFontSize)
		if err != nil {
			return nil, err
		}
		stack = append(stack, body, meta)
	}
	return stack, nil
}

// messageEntrySeparateStack lays out each message entry as three stacked
// lines — body, origin, timestamp — rather than the combined meta line
// messageEntryStack uses for the MessageList layout (spec §4.D: "message
// entries in Separate layout (body, then origin, then timestamp as three
// lines)").
func messageEntrySeparateStack(entries []model.MessageEntry) ([]model.Tagged, error) {
	stack := make([]model.Tagged, 0, len(entries)*3)
	for _, e := range entries {
		body, err := stylizedComponent(e.Content, bodyFontSize)
		if err != nil {
			return nil, err
		}
		origin, err := stylizedComponent(originLabel(e.Origin), metaFontSize)
		if err != nil {
			return nil, err
		}
		timestamp, err := stylizedComponent(e.Timestamp.Format("2006-01-02 15:04"), metaFontSize)
		if err != nil {
			return nil, err
		}
		stack = append(stack, body, origin, timestamp)
	}
	return stack, nil
}

// eventStack builds the summary(34pt)/time-range(24pt) pair for each of up
// to MaxMessageListEntries calendar events (spec §4.D: "left column of up to
// 4 events (summary at 34pt, time range at 24pt)").
func eventStack(events []model.CalendarEvent) ([]model.Tagged, error) {
	limit := len(events)
	if limit > model.MaxMessageListEntries {
		limit = model.MaxMessageListEntries
	}
	stack := make([]model.Tagged, 0, limit*2)
	for _, e := range events[:limit] {
		summary, err := stylizedComponent(e.Summary, bodyFontSize)
		if err != nil {
			return nil, err
		}
		timeRange, err := stylizedComponent(fmt.Sprintf("%s–%s", e.Start.Format("15:04"), e.End.Format("15:04")), metaFontSize)
		if err != nil {
			return nil, err
		}
		stack = append(stack, summary, timeRange)
	}
	return stack, nil
}

func originLabel(origin model.Tagged) string {
	if origin.Kind == model.OriginKindUser {
		var u model.UserOrigin
		if err := origin.Decode(&u); err == nil {
			return u.Name
		}
	}
	return "Unknown"
}
