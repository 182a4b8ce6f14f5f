package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is someone the user lends to, borrows from or splits with.
// Contacts are not users of the app.
type Contact struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	Phone     string    `gorm:"size:30" json:"phone,omitempty"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	Nickname  string    `gorm:"size:50" json:"nickname,omitempty"`
	Notes     string    `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CreateContactRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Notes    string `json:"notes"`
}
