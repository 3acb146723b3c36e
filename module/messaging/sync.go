package messaging

import (
	"context"
	"time"

	"linkloop/logger"
	"linkloop/module/messaging/model"
	"linkloop/service/chat/event"
	"linkloop/tools/errs"
	"linkloop/tools/ids"
)

// Syncer orchestrates the write path: gate check, durable append, then
// fan-out to the recipient's room. Persistence decides success; fan-out to
// an offline recipient is not a failure.
type Syncer struct {
	store    Store
	gate     Gate
	dir      Directory
	presence PresenceSource
	fan      Fanout

	newID func() int64
}

func NewSyncer(store Store, gate Gate, dir Directory, presence PresenceSource, fan Fanout) *Syncer {
	return &Syncer{
		store:    store,
		gate:     gate,
		dir:      dir,
		presence: presence,
		fan:      fan,
		newID:    ids.Generate,
	}
}

// SendMessage appends one message and pushes it to the recipient. Returns
// the persisted message so the transport can ack with its id.
func (s *Syncer) SendMessage(ctx context.Context, senderID, recipientID, body string, at time.Time) (model.Message, error) {
	if err := s.requireFriends(ctx, senderID, recipientID); err != nil {
		return model.Message{}, err
	}

	m := model.Message{
		ID:          s.newID(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   at,
	}
	if err := s.store.Append(ctx, m); err != nil {
		return model.Message{}, errs.ErrPersistence.WithCause(err)
	}

	s.fan.Fanout(recipientID, event.NewMessage(event.MessagePayload{
		ID:        m.ID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: at.Format("15:04"),
		Sender:    s.senderSnapshot(ctx, senderID),
	}))
	return m, nil
}

// MarkRead stamps everything unread from counterparty to reader and tells
// the counterparty's room. Idempotent: a second call with nothing unread
// changes no rows and fans out nothing.
func (s *Syncer) MarkRead(ctx context.Context, readerID, counterpartyID string, at time.Time) error {
	if err := s.requireFriends(ctx, readerID, counterpartyID); err != nil {
		return err
	}

	n, err := s.store.MarkRead(ctx, readerID, counterpartyID, at)
	if err != nil {
		return errs.ErrPersistence.WithCause(err)
	}
	if n == 0 {
		return nil
	}

	s.fan.Fanout(counterpartyID, event.NewRead(event.ReadPayload{ReaderID: readerID}))
	return nil
}

// SetTyping relays the typing flag to the counterparty. Ephemeral: nothing
// persists and a drop is acceptable.
func (s *Syncer) SetTyping(ctx context.Context, userID, counterpartyID string, typing bool) error {
	if err := s.requireFriends(ctx, userID, counterpartyID); err != nil {
		return err
	}
	s.fan.Fanout(counterpartyID, event.NewTyping(event.TypingPayload{
		FromUserID: userID,
		Typing:     typing,
	}))
	return nil
}

func (s *Syncer) requireFriends(ctx context.Context, a, b string) error {
	ok, err := s.gate.AreFriends(ctx, a, b)
	if err != nil {
		return errs.ErrPersistence.WithCause(err).WithDetail("friendship gate")
	}
	if !ok {
		return errs.ErrNotFriends
	}
	return nil
}

// Best effort: a missing profile degrades the payload, the message still
// delivers with the snapshot absent.
func (s *Syncer) senderSnapshot(ctx context.Context, senderID string) *event.SenderSnapshot {
	u, err := s.dir.Profile(ctx, senderID)
	if err != nil {
		logger.Warnf("sender profile lookup failed user=%s err=%v", senderID, err)
		return nil
	}
	return &event.SenderSnapshot{
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Presence:    s.presence.Snapshot(ctx, senderID),
	}
}
