package chat

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"linkloop/logger"
	"linkloop/middleware"
	"linkloop/module/messaging/model"
	"linkloop/service/chat/event"
	"linkloop/tools/decode"
	"linkloop/tools/errs"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Conversations is the server-side synchronizer the read loop dispatches to.
type Conversations interface {
	SendMessage(ctx context.Context, senderID, recipientID, body string, at time.Time) (model.Message, error)
	MarkRead(ctx context.Context, readerID, counterpartyID string, at time.Time) error
	SetTyping(ctx context.Context, userID, counterpartyID string, typing bool) error
}

// PresenceNotifier receives lifecycle transitions derived from the registry.
type PresenceNotifier interface {
	Connected(userID string)
	Disconnected(userID string)
}

type Server struct {
	reg      *Registry
	conv     Conversations
	presence PresenceNotifier

	sendQueueSize int
	clock         func() time.Time
}

func NewServer(reg *Registry, conv Conversations, presence PresenceNotifier) *Server {
	return &Server{
		reg:           reg,
		conv:          conv,
		presence:      presence,
		sendQueueSize: 64,
		clock:         time.Now,
	}
}

// Client frames are {event, data}; data is decoded per event kind.
type inboundFrame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

type inboundMessage struct {
	To     string `json:"to"`
	Body   string `json:"body"`
	TempID string `json:"tempId"`
}

type inboundTyping struct {
	To     string `json:"to"`
	Typing bool   `json:"typing"`
}

type inboundRead struct {
	CounterpartyID string `json:"counterpartyId"`
}

// Server-side floor on typing frames per connection. Not a debounce; the
// client owns start/stop timing.
const typingMinInterval = 200 * time.Millisecond

// HandleWS upgrades the connection and runs its read loop. The user id was
// resolved by the auth middleware; the connection is trusted from here on.
func (s *Server) HandleWS(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed user=%s err=%v", userID, err)
		return
	}

	sess := NewSession(userID, ws, s.sendQueueSize)
	if first := s.reg.Register(sess); first {
		s.presence.Connected(userID)
	}
	go sess.writePump()

	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	logger.Infof("[ws] connected user=%s session=%s", userID, sess.ID)
	s.readLoop(c.Request.Context(), sess)

	sess.Close()
	if last := s.reg.Unregister(sess); last {
		s.presence.Disconnected(userID)
	}
	logger.Infof("[ws] disconnected user=%s session=%s", userID, sess.ID)
}

func (s *Server) readLoop(ctx context.Context, sess *Session) {
	var lastTyping time.Time

	for {
		mt, data, rerr := sess.conn.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Debugf("[ws] peer closed session=%s", sess.ID)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout session=%s", sess.ID)
			} else {
				logger.Infof("[ws] read err session=%s err=%v", sess.ID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var f inboundFrame
		if err := json.Unmarshal(data, &f); err != nil {
			logger.Infof("[ws] bad frame session=%s err=%v len=%d", sess.ID, err, len(data))
			continue
		}

		switch f.Event {
		case event.KindMessage.Name():
			s.handleSend(ctx, sess, f.Data)
		case event.KindTyping.Name():
			if in, err := decode.Map[inboundTyping](f.Data); err == nil {
				now := s.clock()
				if !lastTyping.IsZero() && now.Sub(lastTyping) < typingMinInterval {
					continue
				}
				lastTyping = now
				s.handleTyping(ctx, sess, in)
			}
		case event.KindRead.Name():
			if in, err := decode.Map[inboundRead](f.Data); err == nil {
				s.handleRead(ctx, sess, in)
			}
		default:
			logger.Debugf("[ws] unknown event %q session=%s", f.Event, sess.ID)
		}
	}
}

// handleSend persists and fans out, then always acks on the same session so
// the sending client can mark its optimistic message as confirmed or failed.
func (s *Server) handleSend(ctx context.Context, sess *Session, data map[string]any) {
	in, err := decode.Map[inboundMessage](data)
	if err != nil || in.To == "" || in.Body == "" || in.To == sess.UserID {
		return
	}

	m, err := s.conv.SendMessage(ctx, sess.UserID, in.To, in.Body, s.clock())
	ack := event.AckPayload{TempID: in.TempID, Success: err == nil}
	if err != nil {
		logger.Infof("[ws] send failed user=%s to=%s err=%v", sess.UserID, in.To, err)
		ack.Error = ackError(err)
	} else {
		ack.MessageID = m.ID
	}
	if raw, merr := event.NewAck(ack).MarshalWire(); merr == nil {
		sess.Enqueue(raw)
	}
}

func (s *Server) handleTyping(ctx context.Context, sess *Session, in *inboundTyping) {
	if in.To == "" || in.To == sess.UserID {
		return
	}
	// Dropped no-op on a missing friendship; no ack for typing.
	if err := s.conv.SetTyping(ctx, sess.UserID, in.To, in.Typing); err != nil && !errors.Is(err, errs.ErrNotFriends) {
		logger.Warnf("[ws] typing relay failed user=%s err=%v", sess.UserID, err)
	}
}

func (s *Server) handleRead(ctx context.Context, sess *Session, in *inboundRead) {
	if in.CounterpartyID == "" {
		return
	}
	if err := s.conv.MarkRead(ctx, sess.UserID, in.CounterpartyID, s.clock()); err != nil && !errors.Is(err, errs.ErrNotFriends) {
		logger.Warnf("[ws] mark read failed user=%s err=%v", sess.UserID, err)
	}
}

func ackError(err error) string {
	if errors.Is(err, errs.ErrNotFriends) {
		return "not_friends"
	}
	return "persistence"
}
