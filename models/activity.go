package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityType string

const (
	ActivityLoanCreated          ActivityType = "loan_created"
	ActivityLoanSettled          ActivityType = "loan_settled"
	ActivitySharedExpenseCreated ActivityType = "shared_expense_created"
	ActivityMovementCreated      ActivityType = "movement_created"
	ActivityMovementUpdated      ActivityType = "movement_updated"
	ActivityMovementDeleted      ActivityType = "movement_deleted"
)

type Activity struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID    `gorm:"type:uuid;index;not null" json:"userId"`
	Type        ActivityType `gorm:"not null;size:30" json:"type"`
	ReferenceID uuid.UUID    `gorm:"type:uuid" json:"referenceId,omitempty"`
	Description string       `gorm:"size:600" json:"description"`
	CreatedAt   time.Time    `gorm:"index" json:"createdAt"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
