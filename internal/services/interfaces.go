package services

import (
	"context"

	"github.com/xuri/excelize/v2"

	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
	"github.com/studybud-app/room-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateRoomRequest = validator.RoomCreateRequest
type UpdateRoomRequest = validator.RoomUpdateRequest
type RateRoomRequest = validator.RateRoomRequest
type CreateMessageRequest = validator.MessageCreateRequest

type RoomResponse struct {
	*models.Room
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanAccess bool `json:"can_access"`

	// True once any payment for the room has completed. The stored flag is
	// checked first, then the payee set (the host does not count).
	HasPayments bool `json:"has_payments"`
}

type RoomListResponse struct {
	Rooms []*RoomResponse `json:"rooms"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

// HomeResponse mirrors the landing view: the caller's paid rooms, the rest,
// a topic sample and the latest activity matching the search.
type HomeResponse struct {
	PaidRooms      []*RoomResponse    `json:"paid_rooms"`
	UnpaidRooms    []*RoomResponse    `json:"unpaid_rooms"`
	Topics         []*models.Topic    `json:"topics"`
	RoomCount      int64              `json:"room_count"`
	RecentMessages []*models.Message  `json:"recent_messages"`
}

type RatingResponse struct {
	*models.RoomRating
	RoomRatingMean float64 `json:"room_rating_mean"`
	RatingCount    int64   `json:"rating_count"`
}

type MessageResponse struct {
	*models.Message
	CanDelete bool `json:"can_delete"`
}

type MessageListResponse struct {
	Messages []*MessageResponse `json:"messages"`
	Total    int64              `json:"total"`
}

type StartPaymentResponse struct {
	PaymentID      uint   `json:"payment_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	ApprovalURL    string `json:"approval_url"`
}

type ExecutePaymentResponse struct {
	PaymentID uint   `json:"payment_id"`
	RoomID    uint   `json:"room_id"`
	Status    string `json:"status"`
}

type PaymentListResponse struct {
	Payments []*models.Payment `json:"payments"`
	Total    int64             `json:"total"`
}

type TopicListResponse struct {
	Topics []*models.Topic `json:"topics"`
	Total  int64           `json:"total"`
}

// ===== SERVICE INTERFACES =====

type RoomService interface {
	Create(ctx context.Context, req *CreateRoomRequest, creatorID string) (*RoomResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*RoomResponse, error)

	// GetByIDWithDetails is the gated room view: payees only.
	GetByIDWithDetails(ctx context.Context, id uint, userID string) (*RoomResponse, error)

	Update(ctx context.Context, id uint, req *UpdateRoomRequest, userID string) (*RoomResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	List(ctx context.Context, filters repositories.RoomFilters, userID string) (*RoomListResponse, error)
	Search(ctx context.Context, query string, filters repositories.RoomFilters, userID string) (*RoomListResponse, error)
	Home(ctx context.Context, query string, userID string) (*HomeResponse, error)

	// CanAccess reports payee membership: the single access-control gate
	// applied before room detail, messages and ratings.
	CanAccess(ctx context.Context, roomID uint, userID string) (bool, error)

	ListTopics(ctx context.Context, query string, limit, offset int) (*TopicListResponse, error)
}

type RatingService interface {
	// RecordRating upserts the caller's score and synchronously recomputes
	// the room's cached mean inside one transaction.
	RecordRating(ctx context.Context, roomID uint, userID string, req *RateRoomRequest) (*RatingResponse, error)

	GetRoomRatings(ctx context.Context, roomID uint, userID string) ([]*models.RoomRating, error)
}

type MessageService interface {
	Post(ctx context.Context, roomID uint, req *CreateMessageRequest, userID string) (*MessageResponse, error)
	Delete(ctx context.Context, messageID uint, userID string) error
	ListByRoom(ctx context.Context, roomID uint, userID string, limit, offset int) (*MessageListResponse, error)
	RecentActivity(ctx context.Context, topicQuery string, limit int) ([]*models.Message, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) (*MessageListResponse, error)
}

type PaymentService interface {
	// StartPayment opens a gateway checkout for the room and returns the
	// approval URL the buyer must be redirected to.
	StartPayment(ctx context.Context, roomID uint, userID string) (*StartPaymentResponse, error)

	// ExecutePayment captures the approved checkout identified by the
	// gateway order id and unlocks the room for the calling user.
	ExecutePayment(ctx context.Context, gatewayOrderID, payerID, userID string) (*ExecutePaymentResponse, error)

	ListByUser(ctx context.Context, userID string, limit, offset int) (*PaymentListResponse, error)
}

type ExportService interface {
	// ExportRoomActivity builds a spreadsheet of the room's messages and
	// ratings. Host only.
	ExportRoomActivity(ctx context.Context, roomID uint, userID string) (*excelize.File, error)
}

// ServiceManager provides access to all services
type ServiceManager interface {
	Room() RoomService
	Rating() RatingService
	Message() MessageService
	Payment() PaymentService
	Export() ExportService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
