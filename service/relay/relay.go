package relay

import (
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"linkloop/logger"
	"linkloop/tools/errs"
)

const subjectPrefix = "im.fanout."

// Relay forwards fan-out frames between backend instances over core NATS.
// Best effort: live-only events may drop, the durable log is the source of
// truth for history.
type Relay struct {
	nc  *nats.Conn
	sub *nats.Subscription
}

func Dial(url, name string) (*Relay, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500 * time.Millisecond),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(3 * time.Second),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}
	return &Relay{nc: nc}, nil
}

// Publish sends a frame for userID to peer instances. Errors are logged and
// swallowed; the caller already persisted whatever mattered.
func (r *Relay) Publish(userID string, raw []byte) {
	if err := r.nc.Publish(subjectPrefix+userID, raw); err != nil {
		logger.Warnf("relay publish failed user=%s err=%v", userID, err)
	}
}

// Subscribe delivers relayed frames to this instance's local sessions. The
// handler must not republish, or frames would loop between instances.
func (r *Relay) Subscribe(deliver func(userID string, raw []byte)) error {
	sub, err := r.nc.Subscribe(subjectPrefix+"*", func(m *nats.Msg) {
		userID := strings.TrimPrefix(m.Subject, subjectPrefix)
		if userID == "" {
			return
		}
		deliver(userID, m.Data)
	})
	if err != nil {
		return errs.Wrap(err, "subscribe relay")
	}
	r.sub = sub
	return nil
}

func (r *Relay) Close() {
	if r.sub != nil {
		_ = r.sub.Drain()
	}
	if r.nc != nil {
		_ = r.nc.Drain()
	}
}
