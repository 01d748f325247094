package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/studybud-app/room-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type RoomFilters struct {
	Query          *string `json:"query"` // substring over name/description/topic name
	TopicID        *uint   `json:"topic_id"`
	HostID         *string `json:"host_id"`
	PayeeID        *string `json:"payee_id"`         // only rooms this user has paid for
	ExcludePayeeID *string `json:"exclude_payee_id"` // only rooms this user has NOT paid for
	Limit          int     `json:"limit"`
	Offset         int     `json:"offset"`
	SortBy         string  `json:"sort_by"`    // "created_at", "updated_at", "name", "rating", "price"
	SortOrder      string  `json:"sort_order"` // "asc", "desc"
}

type MessageFilters struct {
	RoomID     *uint   `json:"room_id"`
	UserID     *string `json:"user_id"`
	TopicQuery *string `json:"topic_query"` // substring over the room's topic name
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}

type PaymentFilters struct {
	RoomID *uint                 `json:"room_id"`
	UserID *string               `json:"user_id"`
	Status *models.PaymentStatus `json:"status"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type TopicFilters struct {
	Query  *string `json:"query"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type RoomStats struct {
	RatingCount      int     `json:"rating_count"`
	AverageRating    float64 `json:"average_rating"`
	MessageCount     int     `json:"message_count"`
	ParticipantCount int     `json:"participant_count"`
	PayeeCount       int     `json:"payee_count"`
}

// ===== REPOSITORY INTERFACES =====

type RoomRepository interface {
	Create(ctx context.Context, tx *gorm.DB, room *models.Room) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Room, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Room, error)
	Update(ctx context.Context, tx *gorm.DB, room *models.Room) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters RoomFilters) ([]*models.Room, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters RoomFilters) ([]*models.Room, int64, error)

	// Payee set operations; AddPayee is idempotent (set semantics).
	AddPayee(ctx context.Context, tx *gorm.DB, roomID uint, userID string) error
	IsPayee(ctx context.Context, tx *gorm.DB, roomID uint, userID string) (bool, error)

	AddParticipant(ctx context.Context, tx *gorm.DB, roomID uint, userID string) error

	GetStats(ctx context.Context, tx *gorm.DB, roomID uint) (*RoomStats, error)
}

type TopicRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Topic, error)
	GetOrCreateByName(ctx context.Context, tx *gorm.DB, name string) (*models.Topic, error)
	List(ctx context.Context, tx *gorm.DB, filters TopicFilters) ([]*models.Topic, int64, error)
}

type RatingRepository interface {
	// Upsert collapses to exactly one row per (user, room) pair.
	Upsert(ctx context.Context, tx *gorm.DB, rating *models.RoomRating) error
	GetByRoomAndUser(ctx context.Context, tx *gorm.DB, roomID uint, userID string) (*models.RoomRating, error)
	ListByRoom(ctx context.Context, tx *gorm.DB, roomID uint) ([]*models.RoomRating, error)

	// AverageForRoom returns the mean score and the row count; mean is 0.0
	// when the room has no ratings.
	AverageForRoom(ctx context.Context, tx *gorm.DB, roomID uint) (float64, int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, tx *gorm.DB, message *models.Message) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Message, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters MessageFilters) ([]*models.Message, int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	GetByGatewayOrderID(ctx context.Context, tx *gorm.DB, gatewayOrderID string) (*models.Payment, error)
	Update(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	List(ctx context.Context, tx *gorm.DB, filters PaymentFilters) ([]*models.Payment, int64, error)
}
