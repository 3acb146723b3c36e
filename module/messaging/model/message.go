package model

import "time"

// Message is one row of the durable log. Immutable once created except for
// ReadAt, which is set exactly once by the read-state watermark update.
type Message struct {
	ID          int64 // snowflake; sort key and history cursor
	SenderID    string
	RecipientID string
	Body        string
	CreatedAt   time.Time
	ReadAt      *time.Time
}

func (m Message) Read() bool { return m.ReadAt != nil }
