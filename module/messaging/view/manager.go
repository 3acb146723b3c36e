package view

import (
	"context"
	"sync"

	"linkloop/logger"
)

// Fetcher pulls history pages (the HTTP pager on a real client).
type Fetcher interface {
	GetHistory(ctx context.Context, counterpartyID, cursor string) (Page, error)
}

// ReadMarker issues the read-watermark call back to the server.
type ReadMarker interface {
	MarkRead(ctx context.Context, counterpartyID string) error
}

// Manager owns one Conversation per counterparty and routes the two input
// sources into them. All access is serialized on one mutex; the per-view
// state machines stay lock-free.
type Manager struct {
	mu     sync.Mutex
	convs  map[string]*Conversation
	fetch  Fetcher
	marker ReadMarker
}

func NewManager(fetch Fetcher, marker ReadMarker) *Manager {
	return &Manager{
		convs:  make(map[string]*Conversation),
		fetch:  fetch,
		marker: marker,
	}
}

// Open returns the conversation with counterparty, fetching its first page.
// Reopening refetches page one and merges idempotently, which doubles as
// the reconnect gap-fill for live events missed while disconnected.
func (m *Manager) Open(ctx context.Context, counterparty string) (*Conversation, error) {
	m.mu.Lock()
	c, ok := m.convs[counterparty]
	if !ok {
		c = NewConversation(counterparty)
		m.convs[counterparty] = c
	}
	m.mu.Unlock()

	page, err := m.fetch.GetHistory(ctx, counterparty, "")
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	c.ApplyPage(page)
	m.mu.Unlock()
	return c, nil
}

// LoadOlder is the scroll-threshold input: fetches the next older page when
// the view is ready and more history exists.
func (m *Manager) LoadOlder(ctx context.Context, counterparty string) error {
	m.mu.Lock()
	c, ok := m.convs[counterparty]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	cursor, fire := c.BeginFetchOlder()
	m.mu.Unlock()
	if !fire {
		return nil
	}

	page, err := m.fetch.GetHistory(ctx, counterparty, cursor)
	if err != nil {
		// Back to Ready so a later scroll can retry.
		m.mu.Lock()
		c.state = StateReady
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	c.ApplyPage(page)
	m.mu.Unlock()
	return nil
}

// OnMessage routes a live message event. A conversation that was never
// opened still accumulates its unread badge in a shell view.
func (m *Manager) OnMessage(ctx context.Context, counterparty string, msg Message) {
	m.mu.Lock()
	c, ok := m.convs[counterparty]
	if !ok {
		c = NewConversation(counterparty)
		m.convs[counterparty] = c
	}
	fresh := c.ApplyLive(msg)
	markRead := fresh && c.active && c.atNewest
	if markRead {
		c.unread = 0
	}
	m.mu.Unlock()

	if markRead {
		if err := m.marker.MarkRead(ctx, counterparty); err != nil {
			logger.Warnf("mark read failed counterparty=%s err=%v", counterparty, err)
		}
	}
}

// OnTyping routes a live typing event; ignored for unopened conversations.
func (m *Manager) OnTyping(counterparty string, typing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.convs[counterparty]; ok {
		c.ApplyTyping(typing)
	}
}

// OnRead routes a live seen event from the counterparty.
func (m *Manager) OnRead(counterparty string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.convs[counterparty]; ok {
		c.ApplyRead()
	}
}

// Activate focuses a conversation and issues markRead when due.
func (m *Manager) Activate(ctx context.Context, counterparty string) {
	m.mu.Lock()
	c, ok := m.convs[counterparty]
	var due bool
	if ok {
		due = c.Activate()
	}
	m.mu.Unlock()

	if due {
		if err := m.marker.MarkRead(ctx, counterparty); err != nil {
			logger.Warnf("mark read failed counterparty=%s err=%v", counterparty, err)
		}
	}
}

// Deactivate unfocuses a conversation.
func (m *Manager) Deactivate(counterparty string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.convs[counterparty]; ok {
		c.Deactivate()
	}
}

// Conversation returns the view for counterparty, or nil.
func (m *Manager) Conversation(counterparty string) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.convs[counterparty]
}
