package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment tracks one checkout against the external gateway. GatewayOrderID
// is the gateway's id for the order and the lookup key on the execute
// callback. A completed row is terminal and the execute phase treats it as
// a successful no-op; a failed row records a declined capture and may be
// retried by executing the same order again.
type Payment struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	GatewayOrderID string        `json:"gateway_order_id" gorm:"uniqueIndex;not null;size:255"`
	RoomID         uint          `json:"room_id" gorm:"not null;index"`
	UserID         string        `json:"user_id" gorm:"not null;size:255;index"`
	PayerID        *string       `json:"payer_id" gorm:"size:255"`
	Amount         float64       `json:"amount" gorm:"type:numeric(10,2);not null"`
	Currency       string        `json:"currency" gorm:"not null;size:3"`
	Status         PaymentStatus `json:"status" gorm:"not null;default:pending;index"`

	// Raw gateway response from the last create/capture call, for audits.
	GatewayPayload datatypes.JSON `json:"-"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// Relations
	Room *Room `json:"room,omitempty" gorm:"foreignKey:RoomID"`
}

func (Payment) TableName() string {
	return "payments"
}
