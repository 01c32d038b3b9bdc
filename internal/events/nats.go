package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	headerContentType = "Content-Type"
	headerSentAt      = "Sitenav-Sent-At"

	topicPrefix = "sitenav."
)

func connect(url, name string, opts ...nats.Option) (*nats.Conn, error) {
	nc, err := nats.Connect(url, append([]nats.Option{nats.Name(name)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes crawl events as JSON messages tagged with a
// content type and send time.
type NATSPublisher struct {
	conn *nats.Conn
	now  func() time.Time
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := connect(url, "sitenav-publisher")
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc, now: time.Now}, nil
}

// Publish rejects topics outside the sitenav namespace so subscribers on
// TopicAll see every event the backend emits.
func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if !strings.HasPrefix(topic, topicPrefix) {
		return fmt.Errorf("publishing to %q: topic must start with %q", topic, topicPrefix)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	msg := nats.NewMsg(topic)
	msg.Data = data
	msg.Header.Set(headerContentType, "application/json")
	msg.Header.Set(headerSentAt, p.now().UTC().Format(time.RFC3339Nano))
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber delivers sitenav events from NATS. It reconnects forever;
// messages arriving while a consumer's channel is full are dropped and
// counted rather than stalling the connection.
type NATSSubscriber struct {
	conn    *nats.Conn
	dropped atomic.Int64
}

// NewNATSSubscriber connects with unlimited reconnects. Extra options such
// as disconnect or reconnect handlers are applied after the defaults.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	defaults := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := connect(url, "sitenav-subscriber", append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

// Dropped reports how many messages were discarded because a consumer
// fell behind.
func (s *NATSSubscriber) Dropped() int64 {
	return s.dropped.Load()
}

// Subscribe accepts NATS wildcards such as TopicAll. The subscription is
// registered on the server before Subscribe returns.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	ch := make(chan Message, 64)

	// mu orders deliveries against cancel so nothing is sent on a closed channel.
	var (
		mu     sync.Mutex
		closed bool
	)
	deliver := func(msg *nats.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- Message{Topic: msg.Subject, Data: msg.Data}:
		default:
			s.dropped.Add(1)
		}
	}

	sub, err := s.conn.Subscribe(topic, deliver)
	if err == nil {
		err = s.conn.Flush()
		if err != nil {
			_ = sub.Unsubscribe()
		}
	}
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			mu.Lock()
			closed = true
			mu.Unlock()
			// Undelivered events are stale once the caller has cancelled.
			for drained := false; !drained; {
				select {
				case <-ch:
				default:
					drained = true
				}
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
