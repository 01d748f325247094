package models

type Topic struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null;size:200" validate:"required,min=1,max=200"`
}

func (Topic) TableName() string {
	return "topics"
}
