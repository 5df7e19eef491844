// Package broker mirrors room broadcasts onto RabbitMQ so dashboards or
// sibling processes outside this instance can observe order traffic.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/remyvnkhiemtruong/12a6/internal/realtime/fanout"
	"github.com/remyvnkhiemtruong/12a6/pkg/logger"
)

const exchange = "orders.events"

// Broker publishes fan-out messages to a topic exchange with the room as
// routing key ("cashier", "kitchen", ..., "all"). It implements
// fanout.Mirror.
type Broker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
	log     logger.Logger
}

// Connect dials RabbitMQ and declares the broadcast exchange.
func Connect(user, password, host string, port int, log logger.Logger) (*Broker, error) {
	connStr := fmt.Sprintf("amqp://%s:%s@%s:%d/", user, password, host, port)
	conn, err := amqp.Dial(connStr)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	log.Action("rabbitmq_connected").With("exchange", exchange).Info("connected to RabbitMQ")
	return &Broker{conn: conn, channel: channel, log: log}, nil
}

// Publish sends one message with the room as routing key. Messages are
// transient; a dead broker loses broadcasts, never orders.
func (b *Broker) Publish(ctx context.Context, room string, msg fanout.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channel.PublishWithContext(ctx,
		exchange, // exchange
		room,     // routing key
		false,    // mandatory
		false,    // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Type:        msg.Event,
			Body:        body,
		},
	)
}

func (b *Broker) Close() {
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		b.conn.Close()
	}
	b.log.Action("rabbitmq_closed").Info("RabbitMQ connection closed")
}
