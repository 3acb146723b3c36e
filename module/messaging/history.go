package messaging

import (
	"context"
	"strconv"
	"time"

	"linkloop/tools/errs"
	"linkloop/tools/timefmt"
)

// PageSize is a wire contract with the client pager.
const PageSize = 20

// HistoryMessage is one history item as the client sees it.
type HistoryMessage struct {
	ID        int64     `json:"id"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryPage is the response of one history fetch. Cursor is empty on the
// final page; LastSeenLabel is set only on the cursorless first page when
// the newest pair message is the requester's own and has been read.
type HistoryPage struct {
	Count         int64            `json:"count"`
	Cursor        string           `json:"cursor"`
	LastSeenLabel *string          `json:"lastSeenLabel"`
	Messages      []HistoryMessage `json:"messages"`
}

// Pager reads the durable log independently of the live channel. History
// stays readable after unfriending: the gate applies to writes, not reads.
type Pager struct {
	store Store
	size  int
	now   func() time.Time
}

func NewPager(store Store) *Pager {
	return &Pager{store: store, size: PageSize, now: time.Now}
}

// GetHistory returns one page of messages between userID and counterpartyID,
// newest first. cursor is the id returned by the previous page, or empty for
// the newest page.
func (p *Pager) GetHistory(ctx context.Context, userID, counterpartyID, cursor string) (HistoryPage, error) {
	var beforeID int64
	if cursor != "" {
		n, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return HistoryPage{}, errs.Wrapf(err, "bad cursor %q", cursor)
		}
		beforeID = n
	}

	msgs, err := p.store.PageBefore(ctx, userID, counterpartyID, beforeID, p.size)
	if err != nil {
		return HistoryPage{}, err
	}
	count, err := p.store.Count(ctx, userID, counterpartyID)
	if err != nil {
		return HistoryPage{}, err
	}

	page := HistoryPage{Count: count, Messages: make([]HistoryMessage, 0, len(msgs))}
	for _, m := range msgs {
		page.Messages = append(page.Messages, HistoryMessage{
			ID:        m.ID,
			SenderID:  m.SenderID,
			Body:      m.Body,
			CreatedAt: m.CreatedAt,
		})
	}
	if len(msgs) == p.size {
		page.Cursor = strconv.FormatInt(msgs[len(msgs)-1].ID, 10)
	}

	// Seen marker is a read-time derivation off the newest message only.
	if beforeID == 0 && len(msgs) > 0 {
		newest := msgs[0]
		if newest.SenderID == userID && newest.Read() {
			label := timefmt.Seen(*newest.ReadAt, p.now())
			page.LastSeenLabel = &label
		}
	}
	return page, nil
}
