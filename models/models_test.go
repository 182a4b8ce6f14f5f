package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumsValid(t *testing.T) {
	assert.True(t, MovementIncome.Valid())
	assert.False(t, MovementType("transfer").Valid())
	assert.True(t, ConceptSavings.Valid())
	assert.False(t, Concept("").Valid())
	assert.True(t, LoanShared.Valid())
	assert.False(t, LoanType("gift").Valid())
	assert.True(t, AccountCredit.Valid())
	assert.False(t, AccountType("crypto").Valid())
	assert.True(t, ReportDebtAlert.Valid())
	assert.True(t, FrequencyImmediate.Valid())
	assert.False(t, Frequency("hourly").Valid())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, LoanActive, StatusFor(decimal.RequireFromString("0.01")))
	assert.Equal(t, LoanSettled, StatusFor(decimal.Zero))
	assert.Equal(t, LoanSettled, StatusFor(decimal.RequireFromString("-1")))
}

func TestMovementJSON(t *testing.T) {
	m := Movement{
		Type:          MovementExpense,
		Amount:        decimal.RequireFromString("33.33"),
		PendingAmount: NullAmount(decimal.RequireFromString("66.67")),
		LoanType:      LoanTypePtr(LoanShared),
	}
	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"amount":33.33`)
	assert.Contains(t, string(out), `"pendingAmount":66.67`)
	assert.Contains(t, string(out), `"originalAmount":null`)
	assert.Contains(t, string(out), `"loanType":"shared"`)
	assert.NotContains(t, string(out), "accountName")

	var empty Movement
	assert.True(t, empty.Pending().IsZero())
	assert.Equal(t, "66.67", m.Pending().String())
}

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()
	assert.Equal(t, 3000.0, p.MonthlyBudget)
	assert.Equal(t, 5000.0, p.SavingsGoal)
	assert.Contains(t, p.Categories, "savings")
}
