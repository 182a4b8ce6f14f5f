package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountType string

const (
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
	AccountCash     AccountType = "cash"
	AccountCredit   AccountType = "credit"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCash, AccountCredit:
		return true
	}
	return false
}

type Account struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID   `gorm:"type:uuid;index;not null" json:"userId"`
	Name      string      `gorm:"not null;size:100" json:"name"`
	Bank      string      `gorm:"size:100" json:"bank"`
	Type      AccountType `gorm:"not null;size:20;default:checking" json:"type"`
	Movements []Movement  `gorm:"foreignKey:AccountID" json:"movements,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type CreateAccountRequest struct {
	Name string      `json:"name" binding:"required"`
	Bank string      `json:"bank"`
	Type AccountType `json:"type"`
}
