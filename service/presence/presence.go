package presence

import (
	"context"
	"sync"
	"time"

	"linkloop/logger"
	"linkloop/service/chat/event"
	"linkloop/tools/timefmt"
)

// Record is one user's presence state.
type Record struct {
	Online     bool
	LastActive time.Time
}

// Store persists presence transitions. Writes are best effort: a failure is
// logged, never retried synchronously, and never fatal to the connection.
type Store interface {
	SetOnline(ctx context.Context, userID string, at time.Time) error
	SetOffline(ctx context.Context, userID string, lastActive time.Time) error
	Get(ctx context.Context, userID string) (Record, bool, error)
}

// FriendLister supplies the audience for presence fan-out.
type FriendLister interface {
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

// Fanout pushes presence events; a nil Fanout disables the push.
type Fanout interface {
	Fanout(userID string, ev event.Event)
}

// Tracker derives online/offline from connection lifecycle events. The
// in-memory map is authoritative for connected users; the store backs reads
// for users this instance has not seen.
type Tracker struct {
	mu    sync.RWMutex
	local map[string]Record

	store   Store
	friends FriendLister
	fan     Fanout
	clock   func() time.Time
}

func NewTracker(store Store, friends FriendLister, fan Fanout) *Tracker {
	return &Tracker{
		local:   make(map[string]Record),
		store:   store,
		friends: friends,
		fan:     fan,
		clock:   time.Now,
	}
}

// SetClock injects a clock for tests.
func (t *Tracker) SetClock(clock func() time.Time) { t.clock = clock }

// Connected handles the first session registration for userID.
func (t *Tracker) Connected(userID string) {
	now := t.clock()
	t.mu.Lock()
	t.local[userID] = Record{Online: true, LastActive: now}
	t.mu.Unlock()

	go t.persistOnline(userID, now)
	t.push(userID, true, now)
}

// Disconnected handles the last session for userID going away.
func (t *Tracker) Disconnected(userID string) {
	now := t.clock()
	t.mu.Lock()
	t.local[userID] = Record{Online: false, LastActive: now}
	t.mu.Unlock()

	go t.persistOffline(userID, now)
	t.push(userID, false, now)
}

// Snapshot returns the presence embedded in message payloads.
func (t *Tracker) Snapshot(ctx context.Context, userID string) event.PresenceSnapshot {
	rec := t.lookup(ctx, userID)
	return event.PresenceSnapshot{
		Online:   rec.Online,
		LastSeen: t.label(rec),
	}
}

// LastSeen renders the human-relative last-seen string. Recomputed on every
// read, never cached.
func (t *Tracker) LastSeen(ctx context.Context, userID string) string {
	return t.label(t.lookup(ctx, userID))
}

// Online reports live state without touching the store for known users.
func (t *Tracker) Online(ctx context.Context, userID string) bool {
	return t.lookup(ctx, userID).Online
}

func (t *Tracker) lookup(ctx context.Context, userID string) Record {
	t.mu.RLock()
	rec, ok := t.local[userID]
	t.mu.RUnlock()
	if ok {
		return rec
	}
	if t.store != nil {
		stored, found, err := t.store.Get(ctx, userID)
		if err != nil {
			logger.Warnf("presence read failed user=%s err=%v", userID, err)
		} else if found {
			return stored
		}
	}
	return Record{}
}

func (t *Tracker) label(rec Record) string {
	if rec.Online {
		return "online"
	}
	if rec.LastActive.IsZero() {
		return ""
	}
	return timefmt.Relative(rec.LastActive, t.clock())
}

func (t *Tracker) persistOnline(userID string, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := t.store.SetOnline(ctx, userID, at); err != nil {
		logger.Warnf("presence persist online failed user=%s err=%v", userID, err)
	}
}

func (t *Tracker) persistOffline(userID string, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := t.store.SetOffline(ctx, userID, at); err != nil {
		logger.Warnf("presence persist offline failed user=%s err=%v", userID, err)
	}
}

// push notifies the user's online friends of the transition. Best effort:
// the fan-out drops for friends with no live session.
func (t *Tracker) push(userID string, online bool, at time.Time) {
	if t.fan == nil || t.friends == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		friends, err := t.friends.FriendIDs(ctx, userID)
		if err != nil {
			logger.Warnf("presence friend list failed user=%s err=%v", userID, err)
			return
		}
		ev := event.NewPresence(event.PresencePayload{
			UserID:     userID,
			Online:     online,
			LastActive: at.Format(time.RFC3339),
		})
		for _, f := range friends {
			t.fan.Fanout(f, ev)
		}
	}()
}
