package validator

// RoomCreateRequest represents the request structure for creating rooms
type RoomCreateRequest struct {
	Name        string  `json:"name" validate:"required,room_name"`
	Description *string `json:"description" validate:"omitempty,room_description"`
	Topic       string  `json:"topic" validate:"required,min=1,max=200"`
	Price       float64 `json:"price" validate:"room_price"`
	FileURL     *string `json:"file_url" validate:"omitempty,url,max=500"`
}

// RoomUpdateRequest represents the request structure for updating rooms
type RoomUpdateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,room_name"`
	Description *string  `json:"description" validate:"omitempty,room_description"`
	Topic       *string  `json:"topic" validate:"omitempty,min=1,max=200"`
	Price       *float64 `json:"price" validate:"omitempty,room_price"`
	FileURL     *string  `json:"file_url" validate:"omitempty,url,max=500"`
}

// RateRoomRequest carries one rating submission
type RateRoomRequest struct {
	Score int `json:"score" validate:"required,rating_score"`
}

// MessageCreateRequest represents posting a message into a room
type MessageCreateRequest struct {
	Body    string  `json:"body" validate:"required,min=1,max=10000"`
	FileURL *string `json:"file_url" validate:"omitempty,url,max=500"`
}

// StartPaymentRequest opens a checkout for a room
type StartPaymentRequest struct {
	RoomID uint `json:"room_id" validate:"required"`
}
