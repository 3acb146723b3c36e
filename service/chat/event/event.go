package event

import (
	"encoding/json"
	"fmt"
)

// Kind is the closed set of events that cross the live channel. Fan-out
// marshals through an explicit switch, so an event with the wrong payload
// shape fails at the sender instead of on a client.
type Kind uint8

const (
	KindMessage Kind = iota + 1
	KindTyping
	KindRead
	KindAck
	KindPresence
)

// Wire names are a compatibility contract with the client.
func (k Kind) Name() string {
	switch k {
	case KindMessage:
		return "message"
	case KindTyping:
		return "userTyping"
	case KindRead:
		return "readMessages"
	case KindAck:
		return "ack"
	case KindPresence:
		return "presence"
	default:
		return ""
	}
}

// PresenceSnapshot is the lightweight online state embedded in payloads so
// the receiving client can refresh its conversation list without a second
// round trip.
type PresenceSnapshot struct {
	Online   bool   `json:"online"`
	LastSeen string `json:"lastSeen"`
}

// SenderSnapshot carries denormalized profile display data for the sender.
type SenderSnapshot struct {
	DisplayName string           `json:"displayName"`
	AvatarURL   string           `json:"avatarUrl"`
	Presence    PresenceSnapshot `json:"presence"`
}

// MessagePayload is delivered to the recipient's room on every send. Id is
// included so the client merge stays idempotent under at-least-once delivery.
type MessagePayload struct {
	ID        int64           `json:"id"`
	SenderID  string          `json:"senderId"`
	Body      string          `json:"body"`
	CreatedAt string          `json:"createdAt"` // time of day, "15:04"
	Sender    *SenderSnapshot `json:"sender,omitempty"`
}

type TypingPayload struct {
	FromUserID string `json:"fromUserId"`
	Typing     bool   `json:"typing"`
}

type ReadPayload struct {
	ReaderID string `json:"readerId"`
}

// AckPayload answers a client send on the same session, correlated by the
// client-supplied temp id.
type AckPayload struct {
	TempID    string `json:"tempId"`
	MessageID int64  `json:"messageId,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

type PresencePayload struct {
	UserID     string `json:"userId"`
	Online     bool   `json:"online"`
	LastActive string `json:"lastActive"`
}

// Event is a tagged union: exactly the payload matching Kind is set.
type Event struct {
	Kind     Kind
	Message  *MessagePayload
	Typing   *TypingPayload
	Read     *ReadPayload
	Ack      *AckPayload
	Presence *PresencePayload
}

type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// MarshalWire encodes the event as the {event, data} frame the client reads.
func (e Event) MarshalWire() ([]byte, error) {
	var data any
	switch e.Kind {
	case KindMessage:
		data = e.Message
	case KindTyping:
		data = e.Typing
	case KindRead:
		data = e.Read
	case KindAck:
		data = e.Ack
	case KindPresence:
		data = e.Presence
	default:
		return nil, fmt.Errorf("unknown event kind %d", e.Kind)
	}
	if data == nil || isNilPtr(data) {
		return nil, fmt.Errorf("event %q has no payload", e.Kind.Name())
	}
	return json.Marshal(frame{Event: e.Kind.Name(), Data: data})
}

func isNilPtr(v any) bool {
	switch p := v.(type) {
	case *MessagePayload:
		return p == nil
	case *TypingPayload:
		return p == nil
	case *ReadPayload:
		return p == nil
	case *AckPayload:
		return p == nil
	case *PresencePayload:
		return p == nil
	}
	return false
}

func NewMessage(p MessagePayload) Event  { return Event{Kind: KindMessage, Message: &p} }
func NewTyping(p TypingPayload) Event    { return Event{Kind: KindTyping, Typing: &p} }
func NewRead(p ReadPayload) Event        { return Event{Kind: KindRead, Read: &p} }
func NewAck(p AckPayload) Event          { return Event{Kind: KindAck, Ack: &p} }
func NewPresence(p PresencePayload) Event { return Event{Kind: KindPresence, Presence: &p} }
