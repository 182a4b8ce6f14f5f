package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type MovementType string

const (
	MovementIncome  MovementType = "income"
	MovementExpense MovementType = "expense"
)

func (t MovementType) Valid() bool {
	return t == MovementIncome || t == MovementExpense
}

// Concept is the budgeting bucket of a movement.
type Concept string

const (
	ConceptNeeds   Concept = "needs"
	ConceptWants   Concept = "wants"
	ConceptSavings Concept = "savings"
	ConceptOthers  Concept = "others"
)

func (c Concept) Valid() bool {
	switch c {
	case ConceptNeeds, ConceptWants, ConceptSavings, ConceptOthers:
		return true
	}
	return false
}

type LoanType string

const (
	LoanShared   LoanType = "shared"
	LoanLent     LoanType = "lent"
	LoanBorrowed LoanType = "borrowed"
)

func (t LoanType) Valid() bool {
	return t == LoanShared || t == LoanLent || t == LoanBorrowed
}

type LoanStatus string

const (
	LoanActive  LoanStatus = "active"
	LoanSettled LoanStatus = "settled"
)

// StatusFor derives the loan status from what is still pending.
func StatusFor(pending decimal.Decimal) LoanStatus {
	if pending.LessThanOrEqual(decimal.Zero) {
		return LoanSettled
	}
	return LoanActive
}

// Well-known categories set by the ledger itself.
const (
	CategoryLoan           = "loan"
	CategoryPendingLoan    = "pending_loan"
	CategoryLoanSettlement = "loan_settlement"
)

type Movement struct {
	ID                uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID         uuid.UUID           `gorm:"type:uuid;index;not null" json:"accountId"`
	Account           *Account            `gorm:"foreignKey:AccountID" json:"-"`
	Type              MovementType        `gorm:"not null;size:10" json:"type"`
	Concept           Concept             `gorm:"not null;size:10" json:"concept"`
	Amount            decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description       string              `gorm:"not null;size:500" json:"description"`
	Date              time.Time           `gorm:"type:date;index" json:"date"`
	Category          string              `gorm:"size:50" json:"category"`
	IsLoan            bool                `gorm:"not null;index" json:"isLoan"`
	LoanType          *LoanType           `gorm:"size:10" json:"loanType"`
	OriginalAmount    decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"originalAmount"`
	Participants      *int                `json:"participants"`
	PendingAmount     decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"pendingAmount"`
	RelatedPeople     []string            `gorm:"serializer:json" json:"relatedPeople"`
	LoanStatus        *LoanStatus         `gorm:"size:10;index" json:"loanStatus"`
	RelatedMovementID *uuid.UUID          `gorm:"type:uuid" json:"relatedMovementId"`
	AccountName       string              `gorm:"-" json:"accountName,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

func (m *Movement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.RelatedPeople == nil {
		m.RelatedPeople = []string{}
	}
	return nil
}

// Pending returns the pending amount, or zero when the movement carries none.
func (m *Movement) Pending() decimal.Decimal {
	if !m.PendingAmount.Valid {
		return decimal.Zero
	}
	return m.PendingAmount.Decimal
}

func LoanTypePtr(t LoanType) *LoanType       { return &t }
func LoanStatusPtr(s LoanStatus) *LoanStatus { return &s }

func NullAmount(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Request structs
type CreateMovementRequest struct {
	Type        MovementType    `json:"type"`
	Concept     Concept         `json:"concept"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Category    string          `json:"category"`
}

// UpdateMovementRequest is a partial edit; nil fields are left alone.
type UpdateMovementRequest struct {
	Type        *MovementType    `json:"type"`
	Concept     *Concept         `json:"concept"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	Date        *string          `json:"date"`
	Category    *string          `json:"category"`
}

type MonthlyExpenses struct {
	Month         string          `json:"month"`
	Concept       Concept         `json:"concept"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	MovementCount int             `json:"movementCount"`
	Movements     []Movement      `json:"movements"`
}
