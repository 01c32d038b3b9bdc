package events

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// startTestNATS runs an in-process NATS server on a random port.
func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1, NoSigs: true})
	if err != nil {
		t.Fatalf("nats server: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server did not become ready")
	}
	return srv.ClientURL()
}

// bus connects a publisher and subscriber to a fresh server.
func bus(t *testing.T, opts ...nats.Option) (*NATSPublisher, *NATSSubscriber) {
	t.Helper()
	url := startTestNATS(t)
	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	t.Cleanup(func() { pub.Close() })
	sub, err := NewNATSSubscriber(url, opts...)
	if err != nil {
		t.Fatalf("subscriber: %v", err)
	}
	t.Cleanup(func() { sub.Close() })
	return pub, sub
}

func publish(t *testing.T, pub *NATSPublisher, topic string, ev any) {
	t.Helper()
	if err := pub.Publish(context.Background(), topic, ev); err != nil {
		t.Fatalf("publish %s: %v", topic, err)
	}
	if err := pub.conn.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func next(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
	return Message{}
}

func TestNATSSubscriber_ScanEventRoundTrip(t *testing.T) {
	pub, sub := bus(t)
	ch, cancel, err := sub.Subscribe(TopicAll)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	want := ScanEvent{TaskID: "task-9", URL: "https://docs.test/guide", Nodes: 4}
	publish(t, pub, TopicScanProgress, want)

	msg := next(t, ch)
	if msg.Topic != TopicScanProgress {
		t.Errorf("topic = %q", msg.Topic)
	}
	got, err := DecodeScanEvent(msg.Data)
	if err != nil {
		t.Fatalf("DecodeScanEvent: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestNATSSubscriber_ScanTopicsOnly(t *testing.T) {
	pub, sub := bus(t)
	ch, cancel, err := sub.Subscribe("sitenav.scan.>")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	publish(t, pub, TopicReset, ResetEvent{})
	publish(t, pub, TopicScanAccepted, ScanEvent{URL: "https://a.test"})
	publish(t, pub, TopicScanCompleted, ScanEvent{URL: "https://a.test"})

	for _, want := range []string{TopicScanAccepted, TopicScanCompleted} {
		if got := next(t, ch).Topic; got != want {
			t.Errorf("topic = %q, want %q", got, want)
		}
	}
}

func TestNATSSubscriber_CancelClosesChannel(t *testing.T) {
	pub, sub := bus(t)
	ch, cancel, err := sub.Subscribe(TopicAll)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	flood := make(chan struct{})
	go func() {
		defer close(flood)
		for range 100 {
			_ = pub.Publish(context.Background(), TopicScanProgress, ScanEvent{URL: "https://a.test"})
		}
	}()
	cancel()
	cancel()
	<-flood

	for range ch {
	}
}

func TestNATSSubscriber_CountsDrops(t *testing.T) {
	pub, sub := bus(t)
	ch, cancel, err := sub.Subscribe(TopicAll)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	// Nobody reads ch, so everything past its buffer is dropped.
	total := cap(ch) + 10
	for range total {
		publish(t, pub, TopicScanProgress, ScanEvent{URL: "https://a.test"})
	}
	if err := sub.conn.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for sub.Dropped() < 10 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := sub.Dropped(); got != 10 {
		t.Errorf("Dropped() = %d, want 10", got)
	}
}

func TestNATSSubscriber_ExtraOptions(t *testing.T) {
	_, sub := bus(t, nats.ReconnectHandler(func(*nats.Conn) {}))

	var _ Subscriber = sub
	if !sub.conn.IsConnected() {
		t.Fatal("subscriber not connected")
	}
	if got := sub.conn.Opts.Name; got != "sitenav-subscriber" {
		t.Errorf("connection name = %q", got)
	}
}
