package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportType string

const (
	ReportLoansSummary  ReportType = "loans_summary"
	ReportWeeklySummary ReportType = "weekly_summary"
	ReportDebtAlert     ReportType = "debt_alert"
)

func (t ReportType) Valid() bool {
	return t == ReportLoansSummary || t == ReportWeeklySummary || t == ReportDebtAlert
}

type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyImmediate Frequency = "immediate"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyImmediate:
		return true
	}
	return false
}

// EmailReport is a user's subscription to a scheduled report.
type EmailReport struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID         `gorm:"type:uuid;index;not null" json:"userId"`
	User       *User             `gorm:"foreignKey:UserID" json:"-"`
	ReportType ReportType        `gorm:"not null;size:20" json:"reportType"`
	Frequency  Frequency         `gorm:"not null;size:10;index" json:"frequency"`
	IsActive   bool              `gorm:"not null;index" json:"isActive"`
	LastSent   *time.Time        `json:"lastSent"`
	NextSend   *time.Time        `json:"nextSend"`
	Config     map[string]string `gorm:"serializer:json" json:"config"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func (r *EmailReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type CreateReportRequest struct {
	ReportType ReportType        `json:"reportType" binding:"required"`
	Frequency  Frequency         `json:"frequency" binding:"required"`
	Config     map[string]string `json:"config"`
}

// LoanLine is one pending loan as shown in a report; Amount is what is still pending.
type LoanLine struct {
	ID            uuid.UUID       `json:"id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	LoanType      LoanType        `json:"type"`
	Date          time.Time       `json:"date"`
	RelatedPeople []string        `json:"relatedPeople"`
	Account       string          `json:"account"`
}

type LoansReport struct {
	TotalLent     decimal.Decimal `json:"totalLent"`
	TotalBorrowed decimal.Decimal `json:"totalBorrowed"`
	NetPosition   decimal.Decimal `json:"netPosition"`
	PendingLoans  []LoanLine      `json:"pendingLoans"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type WeeklyReport struct {
	Period        string          `json:"period"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Balance       decimal.Decimal `json:"balance"`
	TopCategories []CategoryTotal `json:"topCategories"`
	Loans         LoansReport     `json:"loans"`
}
