package messaging

import (
	"context"
	"sort"
	"sync"
	"time"

	"linkloop/module/messaging/model"
	socialmodel "linkloop/module/social/model"
	"linkloop/service/chat/event"
)

// memStore is an in-memory stand-in for the relational log.
type memStore struct {
	mu        sync.Mutex
	msgs      []model.Message
	appendErr error
	markErr   error
}

func (s *memStore) Append(_ context.Context, m model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.msgs = append(s.msgs, m)
	return nil
}

func (s *memStore) MarkRead(_ context.Context, readerID, counterpartyID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return 0, s.markErr
	}
	var n int64
	for i := range s.msgs {
		m := &s.msgs[i]
		if m.RecipientID == readerID && m.SenderID == counterpartyID && m.ReadAt == nil {
			t := at
			m.ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (s *memStore) pair(userA, userB string) []model.Message {
	var out []model.Message
	for _, m := range s.msgs {
		if (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *memStore) PageBefore(_ context.Context, userA, userB string, beforeID int64, limit int) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Message
	for _, m := range s.pair(userA, userB) {
		if beforeID > 0 && m.ID >= beforeID {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) Count(_ context.Context, userA, userB string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.pair(userA, userB))), nil
}

func (s *memStore) Newest(_ context.Context, userA, userB string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.pair(userA, userB)
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// memGate allows listed pairs in both directions.
type memGate struct {
	pairs map[[2]string]bool
	err   error
}

func newMemGate(pairs ...[2]string) *memGate {
	g := &memGate{pairs: make(map[[2]string]bool)}
	for _, p := range pairs {
		g.pairs[p] = true
		g.pairs[[2]string{p[1], p[0]}] = true
	}
	return g
}

func (g *memGate) AreFriends(_ context.Context, a, b string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	return g.pairs[[2]string{a, b}], nil
}

type memDirectory struct{}

func (memDirectory) Profile(_ context.Context, userID string) (socialmodel.User, error) {
	return socialmodel.User{UserID: userID, DisplayName: "name-" + userID}, nil
}

type memPresence struct{}

func (memPresence) Snapshot(_ context.Context, _ string) event.PresenceSnapshot {
	return event.PresenceSnapshot{Online: true, LastSeen: "online"}
}

// memFanout records every delivered event per target user.
type memFanout struct {
	mu     sync.Mutex
	events []fannedEvent
}

type fannedEvent struct {
	UserID string
	Event  event.Event
}

func (f *memFanout) Fanout(userID string, ev event.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fannedEvent{UserID: userID, Event: ev})
}

func (f *memFanout) all() []fannedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fannedEvent, len(f.events))
	copy(out, f.events)
	return out
}
