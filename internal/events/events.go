package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type names, also used as Kafka topics.
const (
	EventRoomCreated      = "room.created"
	EventRoomRated        = "room.rated"
	EventMessagePosted    = "message.posted"
	EventPaymentCompleted = "room.payment_completed"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope with a fresh id and the service identity.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "room-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ===== EVENT PAYLOADS =====

type RoomCreatedEvent struct {
	RoomID uint    `json:"room_id"`
	HostID string  `json:"host_id"`
	Name   string  `json:"name"`
	Topic  string  `json:"topic"`
	Price  float64 `json:"price"`
}

type RoomRatedEvent struct {
	RoomID    uint    `json:"room_id"`
	UserID    string  `json:"user_id"`
	Score     int     `json:"score"`
	NewRating float64 `json:"new_rating"`
}

type MessagePostedEvent struct {
	MessageID uint   `json:"message_id"`
	RoomID    uint   `json:"room_id"`
	UserID    string `json:"user_id"`
}

type PaymentCompletedEvent struct {
	PaymentID      uint    `json:"payment_id"`
	GatewayOrderID string  `json:"gateway_order_id"`
	RoomID         uint    `json:"room_id"`
	UserID         string  `json:"user_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
}
