package view

import (
	"time"
)

// State of one open conversation. The transitions are driven by discrete
// inputs (page arrived, live event arrived, scroll threshold crossed) so the
// races between the pull and push sources stay enumerable.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFetchingMore
)

// Message is the client-side projection of one history or live item.
type Message struct {
	ID        int64
	SenderID  string
	Body      string
	CreatedAt time.Time
}

// Page is one history fetch result as consumed by the view.
type Page struct {
	Count    int64
	Cursor   string
	Messages []Message
}

// Conversation reconciles the paged history and the live push feed of one
// 1:1 chat into a single newest-first, de-duplicated message list.
//
// Ordering invariant: msgs is sorted by ID descending. In the supported
// flows pages only ever carry strictly older items (append) and live events
// strictly newer ones (prepend); the sorted insert also absorbs the
// initial-fetch race, where a live message may arrive before the first page
// that already contains it.
//
// Not safe for concurrent use; the Manager serializes access.
type Conversation struct {
	counterparty string
	state        State

	msgs []Message
	have map[int64]struct{}

	cursor string
	total  int64

	active   bool
	atNewest bool
	unread   int

	typing             bool
	seenByCounterparty bool
}

func NewConversation(counterparty string) *Conversation {
	return &Conversation{
		counterparty: counterparty,
		state:        StateLoading,
		have:         make(map[int64]struct{}),
		atNewest:     true,
	}
}

func (c *Conversation) Counterparty() string { return c.counterparty }
func (c *Conversation) State() State         { return c.state }
func (c *Conversation) Messages() []Message  { return c.msgs }
func (c *Conversation) Unread() int          { return c.unread }
func (c *Conversation) Typing() bool         { return c.typing }
func (c *Conversation) Cursor() string       { return c.cursor }
func (c *Conversation) Total() int64         { return c.total }

// SeenByCounterparty reports whether the counterparty has read everything
// sent so far; cleared by the next own send.
func (c *Conversation) SeenByCounterparty() bool { return c.seenByCounterparty }

// HasMore compares held items against the server-reported total rather than
// trusting cursor presence, defending against a page boundary that
// coincides with the total.
func (c *Conversation) HasMore() bool {
	return int64(len(c.msgs)) < c.total
}

// ApplyPage merges a history page. Every state accepts a page: Loading and
// FetchingMore transition to Ready, and a refetched first page on Ready
// merges idempotently.
func (c *Conversation) ApplyPage(p Page) {
	for _, m := range p.Messages {
		c.insert(m)
	}
	c.cursor = p.Cursor
	if p.Count > c.total {
		c.total = p.Count
	}
	c.state = StateReady
}

// ApplyLive merges one live message event. Returns true when the message
// was new (a duplicate of an already-held item is dropped).
func (c *Conversation) ApplyLive(m Message) bool {
	if !c.insert(m) {
		return false
	}
	c.total++
	if !c.active || !c.atNewest {
		c.unread++
	}
	// A new incoming message invalidates the seen marker for our own.
	c.seenByCounterparty = false
	return true
}

// ApplyTyping updates the indicator. Purely event-driven: there is no
// timeout fallback, a lost stop event leaves it set until the next input.
func (c *Conversation) ApplyTyping(on bool) { c.typing = on }

// ApplyRead notes that the counterparty has read our messages.
func (c *Conversation) ApplyRead() { c.seenByCounterparty = true }

// NoteOwnSend clears the seen marker after this side sends.
func (c *Conversation) NoteOwnSend() { c.seenByCounterparty = false }

// BeginFetchOlder is the scroll-threshold input. It returns the cursor to
// fetch with; ok is false when no fetch should fire (already fetching,
// still loading, or nothing older remains).
func (c *Conversation) BeginFetchOlder() (cursor string, ok bool) {
	if c.state != StateReady || !c.HasMore() || c.cursor == "" {
		return "", false
	}
	c.state = StateFetchingMore
	return c.cursor, true
}

// Activate focuses the conversation. Returns true when a markRead should be
// issued: focused with the scroll position at the newest message.
func (c *Conversation) Activate() bool {
	c.active = true
	if c.atNewest {
		c.unread = 0
		return true
	}
	return false
}

func (c *Conversation) Deactivate() { c.active = false }

// ScrollTo records whether the viewport sits at the newest message. Returns
// true when reaching the newest edge should trigger a markRead.
func (c *Conversation) ScrollTo(atNewest bool) bool {
	c.atNewest = atNewest
	if atNewest && c.active && c.unread > 0 {
		c.unread = 0
		return true
	}
	return false
}

// insert places m keeping msgs sorted by ID descending; false on duplicate.
func (c *Conversation) insert(m Message) bool {
	if _, dup := c.have[m.ID]; dup {
		return false
	}
	c.have[m.ID] = struct{}{}

	switch {
	case len(c.msgs) == 0 || m.ID < c.msgs[len(c.msgs)-1].ID:
		c.msgs = append(c.msgs, m) // older than everything held
	case m.ID > c.msgs[0].ID:
		c.msgs = append([]Message{m}, c.msgs...) // newer than everything held
	default:
		i := 0
		for i < len(c.msgs) && c.msgs[i].ID > m.ID {
			i++
		}
		c.msgs = append(c.msgs, Message{})
		copy(c.msgs[i+1:], c.msgs[i:])
		c.msgs[i] = m
	}
	return true
}
