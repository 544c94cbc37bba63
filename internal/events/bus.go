package events

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"orgconsole-backend/internal/models"
)

const (
	streamName    = "CONSOLE_EVENTS"
	subjectPrefix = "console.events."
)

// NotificationEvent is the wire form of a notification on the bus.
type NotificationEvent struct {
	ID        string                 `msgpack:"id"`
	Type      string                 `msgpack:"type"`
	ActorID   string                 `msgpack:"actor_id,omitempty"`
	Payload   map[string]interface{} `msgpack:"payload,omitempty"`
	CreatedAt time.Time              `msgpack:"created_at"`
}

type Bus struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// Connect establishes the NATS connection and makes sure the console
// event stream exists.
func Connect() (*Bus, error) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(1 * time.Second),
		nats.ReconnectJitter(500*time.Millisecond, 2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("WARN NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("INFO NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("INFO NATS connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	log.Printf("INFO Connected to NATS at %s", nc.ConnectedUrl())

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if err := ensureStream(js); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return &Bus{nc: nc, js: js}, nil
}

// PublishNotification puts a notification on the event stream, keyed
// by its type (console.events.approval, console.events.organization_signup, ...).
func (b *Bus) PublishNotification(n models.Notification) error {
	event := NotificationEvent{
		ID:        n.ID,
		Type:      n.Type,
		Payload:   n.Payload,
		CreatedAt: n.CreatedAt,
	}
	if n.ActorID != nil {
		event.ActorID = *n.ActorID
	}

	payload, err := msgpack.Marshal(&event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = b.js.Publish(subjectPrefix+n.Type, payload)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (b *Bus) Close() error {
	return b.nc.Drain()
}

func ensureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(streamName)
	if err == nats.ErrStreamNotFound {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:       streamName,
			Subjects:   []string{subjectPrefix + ">"},
			Retention:  nats.LimitsPolicy,
			MaxAge:     7 * 24 * time.Hour,
			MaxBytes:   1 * 1024 * 1024 * 1024, // 1GB
			MaxMsgSize: 256 * 1024,
			Discard:    nats.DiscardOld,
			Storage:    nats.FileStorage,
		})
		if err != nil {
			return fmt.Errorf("create stream %s: %w", streamName, err)
		}
		log.Printf("INFO Created JetStream stream %s", streamName)
		return nil
	}
	return err
}
