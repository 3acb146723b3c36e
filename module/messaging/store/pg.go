package store

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"linkloop/module/messaging/model"
	"linkloop/tools/errs"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id            BIGINT PRIMARY KEY,
	sender_id     TEXT NOT NULL,
	recipient_id  TEXT NOT NULL,
	body          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	read_at       TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_messages_pair
	ON messages (sender_id, recipient_id, id DESC);
CREATE INDEX IF NOT EXISTS idx_messages_unread
	ON messages (recipient_id, sender_id) WHERE read_at IS NULL;
`

// Both directions of the pair; placeholders are (a, b).
const pairWhere = `((sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1))`

// Store is the relational message log. It is the source of truth for history
// and counts; live delivery never bypasses it.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// Connect opens a pgx pool and verifies the connection.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.Wrap(err, "connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.Wrap(err, "ping postgres")
	}
	return pool, nil
}

// EnsureSchema creates the table and indexes; safe on every boot.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return errs.Wrap(err, "ensure messages schema")
}

func (s *Store) Append(ctx context.Context, m model.Message) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, sender_id, recipient_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.SenderID, m.RecipientID, m.Body, m.CreatedAt,
	)
	return errs.Wrap(err, "append message")
}

// MarkRead stamps every unread message from counterparty to reader and
// returns how many rows changed. Zero means the call was a no-op, which the
// synchronizer uses to suppress duplicate read fan-out.
func (s *Store) MarkRead(ctx context.Context, readerID, counterpartyID string, at time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE messages SET read_at = $3
		 WHERE recipient_id = $1 AND sender_id = $2 AND read_at IS NULL`,
		readerID, counterpartyID, at,
	)
	if err != nil {
		return 0, errs.Wrap(err, "mark read")
	}
	return tag.RowsAffected(), nil
}

// PageBefore returns up to limit messages between the pair, newest first,
// strictly older than beforeID. Pass beforeID <= 0 for the newest page.
func (s *Store) PageBefore(ctx context.Context, userA, userB string, beforeID int64, limit int) ([]model.Message, error) {
	q := `SELECT id, sender_id, recipient_id, body, created_at, read_at
		 FROM messages WHERE ` + pairWhere
	args := []any{userA, userB}
	if beforeID > 0 {
		q += ` AND id < $3`
		args = append(args, beforeID)
	}
	if limit <= 0 {
		limit = 1
	}
	q += ` ORDER BY id DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, errs.Wrap(err, "page messages")
	}
	defer rows.Close()
	return scanMessages(rows)
}

// Count reports the total number of messages between the pair.
func (s *Store) Count(ctx context.Context, userA, userB string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE `+pairWhere, userA, userB,
	).Scan(&n)
	return n, errs.Wrap(err, "count messages")
}

// Newest returns the most recent message between the pair, or nil.
func (s *Store) Newest(ctx context.Context, userA, userB string) (*model.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sender_id, recipient_id, body, created_at, read_at
		 FROM messages WHERE `+pairWhere+` ORDER BY id DESC LIMIT 1`,
		userA, userB,
	)
	if err != nil {
		return nil, errs.Wrap(err, "newest message")
	}
	defer rows.Close()
	msgs, err := scanMessages(rows)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return &msgs[0], nil
}

func scanMessages(rows pgx.Rows) ([]model.Message, error) {
	var out []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.CreatedAt, &m.ReadAt); err != nil {
			return nil, errs.Wrap(err, "scan message")
		}
		out = append(out, m)
	}
	return out, errs.Wrap(rows.Err(), "iterate messages")
}
