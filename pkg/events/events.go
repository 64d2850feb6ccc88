package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/trailpeak/tours-api/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// NoopPublisher is used when no event bus is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	logger.DebugContext(ctx, "Event bus disabled, dropping event", "subject", subject)
	return nil
}

func (NoopPublisher) Close() error { return nil }

// Event subjects
const (
	TourCreated    = "tour.created"
	TourUpdated    = "tour.updated"
	TourDeleted    = "tour.deleted"
	ReviewCreated  = "review.created"
	ReviewUpdated  = "review.updated"
	ReviewDeleted  = "review.deleted"
	BookingCreated = "booking.created"
	UserSignedUp   = "user.signed_up"
)

type TourEvent struct {
	TourID int64     `json:"tour_id"`
	Name   string    `json:"name"`
	At     time.Time `json:"at"`
}

type ReviewEvent struct {
	ReviewID int64     `json:"review_id"`
	TourID   int64     `json:"tour_id"`
	UserID   int64     `json:"user_id"`
	Rating   float64   `json:"rating"`
	At       time.Time `json:"at"`
}

type BookingCreatedEvent struct {
	BookingID int64     `json:"booking_id"`
	TourID    int64     `json:"tour_id"`
	UserID    int64     `json:"user_id"`
	Price     float64   `json:"price"`
	Paid      bool      `json:"paid"`
	At        time.Time `json:"at"`
}

type UserSignedUpEvent struct {
	UserID int64     `json:"user_id"`
	Email  string    `json:"email"`
	At     time.Time `json:"at"`
}
