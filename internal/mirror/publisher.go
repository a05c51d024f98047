// Package mirror publishes a copy of every chat exchange to Kafka so other
// tools can observe the bot's traffic without touching the sqlite log.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Envelope is the wire format for mirrored exchanges.
type Envelope struct {
	TraceID   string    `json:"trace_id"`
	Channel   string    `json:"channel"`
	ChatID    string    `json:"chat_id"`
	Mode      string    `json:"mode"`
	Direction string    `json:"direction"` // "in" or "out"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher writes envelopes to a single per-instance topic. Publish is
// best-effort from the caller's point of view; a broker outage must never
// block or fail a chat turn.
type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// Topic returns the topic name for an instance.
func Topic(name string) string {
	return fmt.Sprintf("trubot.%s.exchanges", name)
}

// NewPublisher creates a publisher. brokers is a comma-separated list.
func NewPublisher(brokers, name string) *Publisher {
	topic := Topic(name)
	return &Publisher{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.ChatID),
		Value: value,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
