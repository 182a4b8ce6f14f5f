package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string       `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Name         string       `gorm:"not null;size:100" json:"name"`
	PasswordHash string       `gorm:"not null;size:255" json:"-"`
	FCMToken     string       `json:"-"`
	Context      *UserContext `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Preferences drive the assistant and the savings progress tool.
type Preferences struct {
	MonthlyBudget float64  `json:"monthlyBudget"`
	SavingsGoal   float64  `json:"savingsGoal"`
	Categories    []string `json:"categories"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		MonthlyBudget: 3000,
		SavingsGoal:   5000,
		Categories:    []string{"housing", "food", "utilities", "entertainment", "dining", "savings"},
	}
}

type ChatTurn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

type UserContext struct {
	ID                  uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID   `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Preferences         Preferences `gorm:"serializer:json" json:"preferences"`
	ConversationHistory []ChatTurn  `gorm:"serializer:json" json:"conversationHistory"`
	LastInteraction     *time.Time  `json:"lastInteraction"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

func (c *UserContext) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ConversationHistory == nil {
		c.ConversationHistory = []ChatTurn{}
	}
	return nil
}

// Response struct (what we return to clients)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
