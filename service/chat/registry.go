package chat

import (
	"hash/fnv"
	"sync"

	"linkloop/logger"
	"linkloop/service/chat/event"
)

const shardCount = 32

// RelayPublisher forwards a fan-out with no local target to peer instances.
// Optional; nil means single-instance.
type RelayPublisher interface {
	Publish(userID string, raw []byte)
}

type shard struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Session // user -> session_id -> session
}

// Registry maps user ids to their live sessions. Sharded by user id so
// unrelated users never contend on one lock; fan-out lookups take only the
// read side of the target's shard.
type Registry struct {
	shards [shardCount]*shard
	pool   *Fanout
	relay  RelayPublisher
}

func NewRegistry(pool *Fanout, relay RelayPublisher) *Registry {
	r := &Registry{pool: pool, relay: relay}
	for i := range r.shards {
		r.shards[i] = &shard{byUser: make(map[string]map[string]*Session)}
	}
	return r
}

func (r *Registry) shardFor(userID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return r.shards[h.Sum32()%shardCount]
}

// Register adds a session to its user's room, idempotent per session id.
// Returns true when this is the user's first live session.
func (r *Registry) Register(s *Session) (first bool) {
	sh := r.shardFor(s.UserID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	m := sh.byUser[s.UserID]
	if m == nil {
		m = make(map[string]*Session)
		sh.byUser[s.UserID] = m
	}
	first = len(m) == 0
	m[s.ID] = s
	return first
}

// Unregister removes the session; returns true when it was the user's last,
// which drives the presence transition to offline.
func (r *Registry) Unregister(s *Session) (last bool) {
	sh := r.shardFor(s.UserID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	m := sh.byUser[s.UserID]
	if m == nil {
		return false
	}
	if _, ok := m[s.ID]; !ok {
		return false
	}
	delete(m, s.ID)
	if len(m) == 0 {
		delete(sh.byUser, s.UserID)
		return true
	}
	return false
}

func (r *Registry) sessions(userID string) []*Session {
	sh := r.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	m := sh.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Session, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out
}

// SessionCount reports live sessions for userID.
func (r *Registry) SessionCount(userID string) int {
	sh := r.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.byUser[userID])
}

// Fanout delivers ev to every live session of userID. With no local session
// the event goes to the relay when one is configured, otherwise it drops
// silently: live-only events are never queued.
func (r *Registry) Fanout(userID string, ev event.Event) {
	raw, err := ev.MarshalWire()
	if err != nil {
		logger.Errorf("fanout marshal failed user=%s err=%v", userID, err)
		return
	}
	conns := r.sessions(userID)
	if len(conns) == 0 {
		if r.relay != nil {
			r.relay.Publish(userID, raw)
		}
		return
	}
	r.pool.Broadcast(conns, raw)
}

// FanoutLocal delivers a relayed frame to local sessions only; it never
// re-enters the relay, so relayed events cannot loop between instances.
func (r *Registry) FanoutLocal(userID string, raw []byte) {
	conns := r.sessions(userID)
	if len(conns) == 0 {
		return
	}
	r.pool.Broadcast(conns, raw)
}
