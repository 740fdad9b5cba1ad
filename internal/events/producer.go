// Package events publishes account audit events (registrations, logins, role
// and user administration) to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	UserRegistered  = "user_registered"
	UserLoggedIn    = "user_logged_in"
	PasswordChanged = "password_changed"
	RoleCreated     = "role_created"
	RoleDeleted     = "role_deleted"
	UserRoleUpdated = "user_role_updated"
	UserDeleted     = "user_deleted"
)

const writeTimeout = 5 * time.Second

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Username   string    `json:"username,omitempty"`
	Role       string    `json:"role,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(typ, username string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Username:   username,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards events. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           writeTimeout,
	}
	return &Producer{writer: w}
}

// Publish writes ev keyed by username so one user's events stay ordered
// within a partition.
func (p *Producer) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Username),
		Value: data,
		Time:  ev.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
