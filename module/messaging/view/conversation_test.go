package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id int64, sender string) Message {
	return Message{ID: id, SenderID: sender, Body: "m", CreatedAt: time.Unix(id, 0)}
}

func ids(msgs []Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestFirstPageTransitionsToReady(t *testing.T) {
	c := NewConversation("bob")
	require.Equal(t, StateLoading, c.State())

	c.ApplyPage(Page{
		Count:    3,
		Messages: []Message{msg(30, "bob"), msg(20, "alice"), msg(10, "bob")},
	})

	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, []int64{30, 20, 10}, ids(c.Messages()))
	assert.False(t, c.HasMore())
}

func TestLiveMessagePrepends(t *testing.T) {
	c := NewConversation("bob")
	c.ApplyPage(Page{Count: 2, Messages: []Message{msg(20, "bob"), msg(10, "alice")}})

	require.True(t, c.ApplyLive(msg(30, "bob")))
	assert.Equal(t, []int64{30, 20, 10}, ids(c.Messages()))
	assert.EqualValues(t, 3, c.Total())
}

func TestOlderPageAppends(t *testing.T) {
	c := NewConversation("bob")
	c.ApplyPage(Page{Count: 4, Cursor: "30", Messages: []Message{msg(40, "bob"), msg(30, "alice")}})
	require.True(t, c.HasMore())

	cursor, ok := c.BeginFetchOlder()
	require.True(t, ok)
	require.Equal(t, "30", cursor)
	require.Equal(t, StateFetchingMore, c.State())

	c.ApplyPage(Page{Count: 4, Messages: []Message{msg(20, "bob"), msg(10, "alice")}})
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, []int64{40, 30, 20, 10}, ids(c.Messages()))
	assert.False(t, c.HasMore())
}

// A live event that races the initial fetch can also land in the first page;
// the merge keeps one copy.
func TestInitialFetchRaceDeduplicates(t *testing.T) {
	c := NewConversation("bob")
	require.True(t, c.ApplyLive(msg(30, "bob")))

	c.ApplyPage(Page{Count: 3, Messages: []Message{msg(30, "bob"), msg(20, "alice"), msg(10, "bob")}})
	assert.Equal(t, []int64{30, 20, 10}, ids(c.Messages()))
	assert.EqualValues(t, 3, c.Total())

	assert.False(t, c.ApplyLive(msg(30, "bob")), "duplicate live event drops")
	assert.EqualValues(t, 3, c.Total())
}

func TestHasMoreUsesTotalNotCursor(t *testing.T) {
	c := NewConversation("bob")
	// Server hands out a cursor even when the page boundary coincides with
	// the end of the conversation; total is what decides.
	c.ApplyPage(Page{Count: 2, Cursor: "10", Messages: []Message{msg(20, "bob"), msg(10, "alice")}})

	assert.False(t, c.HasMore())
	_, ok := c.BeginFetchOlder()
	assert.False(t, ok, "no fetch fires when everything is held")
}

func TestBeginFetchOlderGating(t *testing.T) {
	c := NewConversation("bob")

	_, ok := c.BeginFetchOlder()
	assert.False(t, ok, "no fetch while loading")

	c.ApplyPage(Page{Count: 3, Cursor: "20", Messages: []Message{msg(30, "bob"), msg(20, "alice")}})
	_, ok = c.BeginFetchOlder()
	require.True(t, ok)

	_, ok = c.BeginFetchOlder()
	assert.False(t, ok, "no second fetch while one is in flight")
}

func TestUnreadBadge(t *testing.T) {
	c := NewConversation("bob")
	c.ApplyPage(Page{Count: 0})

	c.ApplyLive(msg(10, "bob"))
	c.ApplyLive(msg(20, "bob"))
	assert.Equal(t, 2, c.Unread(), "inactive conversation accumulates unread")

	require.True(t, c.Activate(), "activating at newest issues markRead")
	assert.Equal(t, 0, c.Unread())

	c.ApplyLive(msg(30, "bob"))
	assert.Equal(t, 0, c.Unread(), "active at newest stays read")
}

func TestScrolledUpAccumulatesUnread(t *testing.T) {
	c := NewConversation("bob")
	c.ApplyPage(Page{Count: 1, Messages: []Message{msg(10, "bob")}})
	c.Activate()
	c.ScrollTo(false)

	c.ApplyLive(msg(20, "bob"))
	assert.Equal(t, 1, c.Unread())

	assert.True(t, c.ScrollTo(true), "returning to newest issues markRead")
	assert.Equal(t, 0, c.Unread())
	assert.False(t, c.ScrollTo(true), "no repeat markRead without new unread")
}

func TestActivateWhileScrolledUpDefersMarkRead(t *testing.T) {
	c := NewConversation("bob")
	c.ApplyPage(Page{Count: 1, Messages: []Message{msg(10, "bob")}})
	c.ScrollTo(false)

	c.ApplyLive(msg(20, "bob"))
	assert.False(t, c.Activate(), "focus alone is not a read")
	assert.Equal(t, 1, c.Unread())

	assert.True(t, c.ScrollTo(true))
}

func TestTypingIndicatorIsEventDriven(t *testing.T) {
	c := NewConversation("bob")
	assert.False(t, c.Typing())

	c.ApplyTyping(true)
	assert.True(t, c.Typing())

	// No timeout: only the stop event clears it.
	c.ApplyTyping(false)
	assert.False(t, c.Typing())
}

func TestSeenMarkerLifecycle(t *testing.T) {
	c := NewConversation("bob")
	c.ApplyPage(Page{Count: 0})

	c.ApplyRead()
	assert.True(t, c.SeenByCounterparty())

	c.NoteOwnSend()
	assert.False(t, c.SeenByCounterparty(), "own send outdates the marker")

	c.ApplyRead()
	c.ApplyLive(msg(10, "bob"))
	assert.False(t, c.SeenByCounterparty(), "incoming message outdates the marker")
}

func TestInsertAbsorbsMidListArrival(t *testing.T) {
	c := NewConversation("bob")
	c.ApplyPage(Page{Count: 3, Messages: []Message{msg(30, "bob"), msg(10, "alice")}})

	require.True(t, c.ApplyLive(msg(20, "bob")))
	assert.Equal(t, []int64{30, 20, 10}, ids(c.Messages()))
}
