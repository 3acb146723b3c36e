package decode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	To     string `json:"to"`
	Body   string `json:"body"`
	MsgID  int64  `json:"msgId"`
	Typing bool   `json:"typing"`
}

func TestMapDecodesJSONNumbers(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"to":"bob","body":"hi","msgId":7349834882903965696,"typing":true}`), &m))

	p, err := Map[samplePayload](m)
	require.NoError(t, err)
	assert.Equal(t, "bob", p.To)
	assert.Equal(t, "hi", p.Body)
	assert.True(t, p.Typing)
	// json parses the id into float64; the hook maps it back to int64.
	assert.IsType(t, int64(0), p.MsgID)
}

func TestMapIgnoresUnknownFields(t *testing.T) {
	p, err := Map[samplePayload](map[string]any{"to": "bob", "extra": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "bob", p.To)
}

func TestMapNilInput(t *testing.T) {
	_, err := Map[samplePayload](nil)
	require.Error(t, err)
}
