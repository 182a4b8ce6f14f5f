package models

import "github.com/shopspring/decimal"

// Request structs

type SharedExpenseRequest struct {
	AccountID        string          `json:"accountId"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	Participants     int             `json:"participants"`
	Description      string          `json:"description"`
	Date             string          `json:"date"` // YYYY-MM-DD
	Category         string          `json:"category"`
	Concept          Concept         `json:"concept"` // defaults to others
	ParticipantsList []string        `json:"participantsList"`
}

type SimpleLoanRequest struct {
	AccountID     string          `json:"accountId"`
	Amount        decimal.Decimal `json:"amount"`
	LoanType      LoanType        `json:"loanType"` // lent or borrowed
	Description   string          `json:"description"`
	Date          string          `json:"date"`
	Category      string          `json:"category"` // defaults to loan
	RelatedPerson string          `json:"relatedPerson"`
}

type SettleLoanRequest struct {
	AmountPaid  decimal.NullDecimal `json:"amountPaid"` // full pending amount when absent
	Description string              `json:"description"`
}

// Responses

type SharedExpenseSummary struct {
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	MyShare       decimal.Decimal `json:"myShare"`
	PendingAmount decimal.Decimal `json:"pendingAmount"`
	Participants  int             `json:"participants"`
	Description   string          `json:"description"`
}

type SharedExpenseResult struct {
	Expense Movement             `json:"expense"`
	Pending *Movement            `json:"-"`
	Summary SharedExpenseSummary `json:"summary"`
}

type SimpleLoanSummary struct {
	Amount        decimal.Decimal `json:"amount"`
	LoanType      LoanType        `json:"loanType"`
	Description   string          `json:"description"`
	RelatedPerson string          `json:"relatedPerson,omitempty"`
}

type SimpleLoanResult struct {
	Loan    Movement          `json:"loan"`
	Summary SimpleLoanSummary `json:"summary"`
}

// PendingLoansSummary is returned for GET /loans/pending
type PendingLoansSummary struct {
	TotalLent     decimal.Decimal `json:"totalLent"`
	TotalBorrowed decimal.Decimal `json:"totalBorrowed"`
	NetBalance    decimal.Decimal `json:"netBalance"` // positive = others owe you
}

type PendingLoans struct {
	Loans   []Movement          `json:"loans"`
	Count   int                 `json:"count"`
	Summary PendingLoansSummary `json:"summary"`
}

type SettlementResult struct {
	Settlement      Movement        `json:"settlement"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	Status          LoanStatus      `json:"status"`
}
