package registrar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanternhq/beacon/pkg/model"
)

func pushMessageEvent(t *testing.T, content string) model.Tagged {
	t.Helper()
	ev, err := model.MarshalTagged(model.TransitionEventKindPushMessage, model.PushMessageEvent{
		Content: content,
		Origin:  model.Tagged{Kind: model.OriginKindUser},
	})
	require.NoError(t, err)
	return ev
}

func setScheduleEvent(t *testing.T, events []model.CalendarEvent) model.Tagged {
	t.Helper()
	ev, err := model.MarshalTagged(model.TransitionEventKindSetSchedule, model.SetScheduleEvent{Events: events})
	require.NoError(t, err)
	return ev
}

func clearEvent() model.Tagged {
	return model.Tagged{Kind: model.TransitionEventKindClear}
}

// TestTransitionTable exercises the spec §4.D device-state transition table
// current × event → next.
func TestTransitionTable(t *testing.T) {
	t.Run("none + PushMessage -> MessageList[entry]", func(t *testing.T) {
		next, err := transition(nil, pushMessageEvent(t, "hi"))
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, model.RenderingKindMessageList, next.Kind)

		var ml model.MessageListRendering
		require.NoError(t, next.Decode(&ml))
		assert.Len(t, ml.Entries, 1)
		assert.Equal(t, "hi", ml.Entries[0].Content)
	})

	t.Run("MessageList + PushMessage appends, truncated to 4", func(t *testing.T) {
		current, err := model.MarshalTagged(model.RenderingKindMessageList, model.MessageListRendering{
			Entries: []model.MessageEntry{
				model.NewUnknownOriginEntry("a", timeZero()),
				model.NewUnknownOriginEntry("b", timeZero()),
				model.NewUnknownOriginEntry("c", timeZero()),
				model.NewUnknownOriginEntry("d", timeZero()),
			},
		})
		require.NoError(t, err)

		next, err := transition(&current, pushMessageEvent(t, "e"))
		require.NoError(t, err)

		var ml model.MessageListRendering
		require.NoError(t, next.Decode(&ml))
		require.Len(t, ml.Entries, 4)
		assert.Equal(t, []string{"b", "c", "d", "e"}, contentsOf(ml.Entries))
	})

	t.Run("ScheduleLayout + PushMessage keeps events, appends entries", func(t *testing.T) {
		current, err := model.MarshalTagged(model.RenderingKindScheduleLayout, model.ScheduleLayoutRendering{
			Events:  []model.CalendarEvent{{Summary: "standup"}},
			Entries: nil,
		})
		require.NoError(t, err)

		next, err := transition(&current, pushMessageEvent(t, "hello"))
		require.NoError(t, err)
		assert.Equal(t, model.RenderingKindScheduleLayout, next.Kind)

		var sl model.ScheduleLayoutRendering
		require.NoError(t, next.Decode(&sl))
		require.Len(t, sl.Events, 1)
		assert.Equal(t, "standup", sl.Events[0].Summary)
		require.Len(t, sl.Entries, 1)
		assert.Equal(t, "hello", sl.Entries[0].Content)
	})

	t.Run("any + Clear -> none", func(t *testing.T) {
		current, err := model.MarshalTagged(model.RenderingKindMessageList, model.MessageListRendering{
			Entries: []model.MessageEntry{model.NewUnknownOriginEntry("x", timeZero())},
		})
		require.NoError(t, err)

		next, err := transition(&current, clearEvent())
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("Clear then Clear is idempotent", func(t *testing.T) {
		next, err := transition(nil, clearEvent())
		require.NoError(t, err)
		assert.Nil(t, next)

		next2, err := transition(next, clearEvent())
		require.NoError(t, err)
		assert.Nil(t, next2)
	})

	t.Run("ScheduleLayout + SetSchedule replaces events, keeps entries", func(t *testing.T) {
		current, err := model.MarshalTagged(model.RenderingKindScheduleLayout, model.ScheduleLayoutRendering{
			Events:  []model.CalendarEvent{{Summary: "old"}},
			Entries: []model.MessageEntry{model.NewUnknownOriginEntry("kept", timeZero())},
		})
		require.NoError(t, err)

		next, err := transition(&current, setScheduleEvent(t, []model.CalendarEvent{{Summary: "new"}}))
		require.NoError(t, err)

		var sl model.ScheduleLayoutRendering
		require.NoError(t, next.Decode(&sl))
		require.Len(t, sl.Events, 1)
		assert.Equal(t, "new", sl.Events[0].Summary)
		require.Len(t, sl.Entries, 1)
		assert.Equal(t, "kept", sl.Entries[0].Content)
	})

	t.Run("MessageList + SetSchedule drops entries into a fresh ScheduleLayout", func(t *testing.T) {
		current, err := model.MarshalTagged(model.RenderingKindMessageList, model.MessageListRendering{
			Entries: []model.MessageEntry{model.NewUnknownOriginEntry("x", timeZero())},
		})
		require.NoError(t, err)

		next, err := transition(&current, setScheduleEvent(t, []model.CalendarEvent{{Summary: "standup"}}))
		require.NoError(t, err)

		var sl model.ScheduleLayoutRendering
		require.NoError(t, next.Decode(&sl))
		assert.Empty(t, sl.Entries)
		require.Len(t, sl.Events, 1)
	})

	t.Run("unknown event kind errors", func(t *testing.T) {
		_, err := transition(nil, model.Tagged{Kind: "bogus"})
		assert.Error(t, err)
	})
}

func TestAppendBoundedTruncatesAtFour(t *testing.T) {
	var entries []model.MessageEntry
	for i := 0; i < 6; i++ {
		entries = appendBounded(entries, model.NewUnknownOriginEntry(string(rune('a'+i)), timeZero()))
	}
	require.Len(t, entries, model.MaxMessageListEntries)
	assert.Equal(t, "c", entries[0].Content)
	assert.Equal(t, "f", entries[3].Content)
}

func contentsOf(entries []model.MessageEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Content
	}
	return out
}

func timeZero() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
