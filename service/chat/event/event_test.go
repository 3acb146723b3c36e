package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unmarshal(t *testing.T, raw []byte) (string, map[string]any) {
	t.Helper()
	var f struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &f))
	return f.Event, f.Data
}

func TestMarshalWireMessage(t *testing.T) {
	ev := NewMessage(MessagePayload{
		ID:        42,
		SenderID:  "alice",
		Body:      "hi",
		CreatedAt: "14:30",
		Sender: &SenderSnapshot{
			DisplayName: "Alice",
			Presence:    PresenceSnapshot{Online: true, LastSeen: "online"},
		},
	})
	raw, err := ev.MarshalWire()
	require.NoError(t, err)

	name, data := unmarshal(t, raw)
	assert.Equal(t, "message", name)
	assert.Equal(t, "alice", data["senderId"])
	assert.Equal(t, "hi", data["body"])
	assert.Equal(t, "14:30", data["createdAt"])
	assert.EqualValues(t, 42, data["id"])
}

func TestMarshalWireTypingAndRead(t *testing.T) {
	raw, err := NewTyping(TypingPayload{FromUserID: "bob", Typing: true}).MarshalWire()
	require.NoError(t, err)
	name, data := unmarshal(t, raw)
	assert.Equal(t, "userTyping", name)
	assert.Equal(t, "bob", data["fromUserId"])
	assert.Equal(t, true, data["typing"])

	raw, err = NewRead(ReadPayload{ReaderID: "bob"}).MarshalWire()
	require.NoError(t, err)
	name, data = unmarshal(t, raw)
	assert.Equal(t, "readMessages", name)
	assert.Equal(t, "bob", data["readerId"])
}

func TestMarshalWireRejectsMismatch(t *testing.T) {
	// Zero-value event has no kind.
	_, err := (Event{}).MarshalWire()
	assert.Error(t, err)

	// Kind without its payload.
	_, err = (Event{Kind: KindMessage}).MarshalWire()
	assert.Error(t, err)
}
