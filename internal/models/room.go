package models

import (
	"time"

	"gorm.io/gorm"
)

// Room is a study room hosted by a teacher. Access to the room body
// (messages, ratings) requires membership in Payees.
type Room struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Price       float64 `json:"price" gorm:"type:numeric(10,2);not null;default:0" validate:"min=0"`
	FileURL     *string `json:"file_url" gorm:"size:500"`

	// Cached mean of all RoomRating rows; 0.0 when the room has no ratings.
	// Recomputed by the rating service inside the same transaction as the
	// rating upsert, never written from request input.
	Rating float64 `json:"rating" gorm:"not null;default:0"`

	// Legacy flag, true once at least one payment has completed. Kept for
	// compatibility with older consumers; Payees is the authoritative record.
	Paye bool `json:"paye" gorm:"not null;default:false"`

	// Host and topic survive their targets being deleted (SET NULL).
	HostID  *string `json:"host_id" gorm:"size:255;index"`
	TopicID *uint   `json:"topic_id" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Host         *User        `json:"host,omitempty" gorm:"foreignKey:HostID;constraint:OnDelete:SET NULL"`
	Topic        *Topic       `json:"topic,omitempty" gorm:"foreignKey:TopicID;constraint:OnDelete:SET NULL"`
	Participants []User       `json:"participants,omitempty" gorm:"many2many:room_participants"`
	Payees       []User       `json:"payees,omitempty" gorm:"many2many:room_payees"`
	Ratings      []RoomRating `json:"ratings,omitempty" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	Messages     []Message    `json:"messages,omitempty" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`

	// Computed fields (not stored)
	MessageCount int `json:"message_count" gorm:"-"`
}

// RoomRating holds exactly one score per (user, room) pair; submitting
// again overwrites the previous score.
type RoomRating struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	RoomID uint   `json:"room_id" gorm:"not null;uniqueIndex:idx_room_user_rating;constraint:OnDelete:CASCADE"`
	UserID string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_room_user_rating"`
	Score  int    `json:"score" gorm:"not null" validate:"required,min=1,max=5"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Room) TableName() string {
	return "rooms"
}

func (RoomRating) TableName() string {
	return "room_ratings"
}
