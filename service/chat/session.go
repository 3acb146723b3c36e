package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"linkloop/logger"
	"linkloop/tools/ids"
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	readLimit    = 1 << 20 // 1MB
)

// Session is one live websocket connection (tab/device) of a user. A user
// may hold any number of sessions; the registry groups them into the room.
type Session struct {
	ID     string
	UserID string

	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func NewSession(userID string, conn *websocket.Conn, queueSize int) *Session {
	return &Session{
		ID:     ids.GenerateString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue hands a frame to the writer goroutine. Non-blocking: a full queue
// means a slow client and the frame is dropped.
func (s *Session) Enqueue(raw []byte) bool {
	select {
	case s.send <- raw:
		return true
	case <-s.done:
		return false
	default:
		logger.Warnf("slow client, dropping frame user=%s session=%s", s.UserID, s.ID)
		return false
	}
}

// Close stops the writer; the read loop notices via the closed connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// writePump is the single writer for this connection. It drains the send
// queue and keeps the connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case raw := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				logger.Debugf("write failed user=%s session=%s err=%v", s.UserID, s.ID, err)
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
