package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const subjectPrefix = "connecthub.events."

// LocalBus delivers events in-process. It is used when no broker is configured.
type LocalBus struct {
	deliver func(userID primitive.ObjectID, ev Event)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Start(deliver func(userID primitive.ObjectID, ev Event)) error {
	b.deliver = deliver
	return nil
}

func (b *LocalBus) Publish(userID primitive.ObjectID, ev Event) error {
	if b.deliver == nil {
		return fmt.Errorf("local bus not started")
	}
	b.deliver(userID, ev)
	return nil
}

func (b *LocalBus) Close() {}

// NATSBus fans events out through NATS so every API instance can reach its
// own sockets. Subjects are connecthub.events.<userID>.
type NATSBus struct {
	conn *nats.Conn
	sub  *nats.Subscription
}

// NewNATSBus connects to url with reconnect handling.
func NewNATSBus(url string) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name("connecthub-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logrus.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logrus.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NATSBus{conn: conn}, nil
}

func (b *NATSBus) Publish(userID primitive.ObjectID, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.conn.Publish(subjectPrefix+userID.Hex(), data)
}

func (b *NATSBus) Start(deliver func(userID primitive.ObjectID, ev Event)) error {
	sub, err := b.conn.Subscribe(subjectPrefix+"*", func(msg *nats.Msg) {
		userID, err := primitive.ObjectIDFromHex(strings.TrimPrefix(msg.Subject, subjectPrefix))
		if err != nil {
			logrus.WithField("subject", msg.Subject).Warn("Dropping event with bad subject")
			return
		}
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logrus.WithError(err).Warn("Dropping undecodable event")
			return
		}
		deliver(userID, ev)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}
	b.sub = sub
	return nil
}

func (b *NATSBus) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}
