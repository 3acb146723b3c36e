package messaging

import (
	"context"
	"time"

	"linkloop/module/messaging/model"
	socialmodel "linkloop/module/social/model"
	"linkloop/service/chat/event"
)

// Store is the durable message log (implemented by the relational store;
// tests use an in-memory fake).
type Store interface {
	Append(ctx context.Context, m model.Message) error
	MarkRead(ctx context.Context, readerID, counterpartyID string, at time.Time) (int64, error)
	PageBefore(ctx context.Context, userA, userB string, beforeID int64, limit int) ([]model.Message, error)
	Count(ctx context.Context, userA, userB string) (int64, error)
	Newest(ctx context.Context, userA, userB string) (*model.Message, error)
}

// Gate is the external friendship collaborator.
type Gate interface {
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
}

// Directory resolves denormalized profile data embedded in fan-out payloads.
type Directory interface {
	Profile(ctx context.Context, userID string) (socialmodel.User, error)
}

// PresenceSource supplies the sender's presence snapshot for message events.
type PresenceSource interface {
	Snapshot(ctx context.Context, userID string) event.PresenceSnapshot
}

// Fanout delivers an event to every live session of a user. Delivery to a
// user with no sessions is a silent drop, never an error.
type Fanout interface {
	Fanout(userID string, ev event.Event)
}
