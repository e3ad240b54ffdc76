package realtime

import (
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

type RealtimeLogHook struct{}

func (h *RealtimeLogHook) Fire(entry *logrus.Entry) error {
	entry.Message = "Realtime: " + entry.Message
	return nil
}

func (h *RealtimeLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Channel is the push-event source. Connect is best-effort: a failed
// connection leaves the channel unusable but is not fatal for callers.
type Channel struct {
	mu   sync.Mutex
	conn *nats.Conn
	url  string
	log  *logrus.Entry
}

func NewChannel(url string, log *logrus.Entry) *Channel {
	return &Channel{
		url: url,
		log: log,
	}
}

func (c *Channel) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.conn.IsConnected() {
		return nil
	}

	conn, err := nats.Connect(c.url,
		nats.Name("aggregator-client"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to realtime channel - %w", err)
	}

	c.conn = conn
	c.log.Infof("connected to %s", c.url)
	return nil
}

func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.conn.IsConnected()
}

// Subscribe registers handler for raw messages on subject and returns an
// unsubscribe func. The handle must be released on teardown to avoid
// duplicate handlers after a reconnect.
func (c *Channel) Subscribe(subject string, handler func(msg []byte)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("realtime channel is not connected")
	}

	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s - %w", subject, err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			c.log.Debugf("unsubscribe %s - %v", subject, err)
		}
	}, nil
}

func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
