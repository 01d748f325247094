package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is a post in a room. Deleted together with its room or author.
type Message struct {
	ID      uint    `json:"id" gorm:"primaryKey"`
	RoomID  uint    `json:"room_id" gorm:"not null;index;constraint:OnDelete:CASCADE"`
	UserID  string  `json:"user_id" gorm:"not null;size:255;index"`
	Body    string  `json:"body" gorm:"type:text;not null" validate:"required,min=1,max=10000"`
	FileURL *string `json:"file_url" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"index"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Room *Room `json:"room,omitempty" gorm:"foreignKey:RoomID"`
}

func (Message) TableName() string {
	return "messages"
}
