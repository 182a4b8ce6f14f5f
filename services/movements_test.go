package services

import (
	"becky-backend/models"
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMovementCreateAndUpdate(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")
	account := seedAccount(t, db, user.ID, "Main")
	svc := NewMovementService(db)
	ctx := context.Background()

	movement, err := svc.Create(ctx, user.ID, account.ID, models.CreateMovementRequest{
		Type:        models.MovementExpense,
		Concept:     models.ConceptNeeds,
		Amount:      dec("12.345"),
		Description: "<b>Groceries</b>",
		Date:        "2024-03-04",
		Category:    "food",
	})
	require.NoError(t, err)
	assertAmount(t, "12.35", movement.Amount)
	assert.Equal(t, "Groceries", movement.Description)
	assert.False(t, movement.IsLoan)

	amount := dec("15")
	category := "market"
	updated, err := svc.Update(ctx, user.ID, movement.ID, models.UpdateMovementRequest{
		Amount:   &amount,
		Category: &category,
	})
	require.NoError(t, err)
	assertAmount(t, "15", updated.Amount)
	assert.Equal(t, "market", updated.Category)
	assert.Equal(t, "Groceries", updated.Description)

	_, err = svc.Update(ctx, user.ID, movement.ID, models.UpdateMovementRequest{})
	assert.EqualError(t, err, "No fields to update")

	tiny := dec("0.004")
	_, err = svc.Update(ctx, user.ID, movement.ID, models.UpdateMovementRequest{Amount: &tiny})
	assert.EqualError(t, err, "Amount must be a positive number")
	assertAmount(t, "15", reload(t, db, movement.ID).Amount)

	other := seedUser(t, db, "bob@example.com")
	_, err = svc.Update(ctx, other.ID, movement.ID, models.UpdateMovementRequest{Amount: &amount})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMovementCreate_Validation(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")
	account := seedAccount(t, db, user.ID, "Main")
	svc := NewMovementService(db)

	tests := []struct {
		name string
		req  models.CreateMovementRequest
	}{
		{"bad type", models.CreateMovementRequest{Type: "transfer", Concept: models.ConceptNeeds, Amount: dec("1"), Description: "x", Date: "2024-01-01"}},
		{"expense without concept", models.CreateMovementRequest{Type: models.MovementExpense, Amount: dec("1"), Description: "x", Date: "2024-01-01"}},
		{"zero amount", models.CreateMovementRequest{Type: models.MovementIncome, Amount: dec("0"), Description: "x", Date: "2024-01-01"}},
		{"amount below a cent", models.CreateMovementRequest{Type: models.MovementIncome, Amount: dec("0.004"), Description: "x", Date: "2024-01-01"}},
		{"empty description", models.CreateMovementRequest{Type: models.MovementIncome, Amount: dec("1"), Description: "   ", Date: "2024-01-01"}},
		{"long description", models.CreateMovementRequest{Type: models.MovementIncome, Amount: dec("1"), Description: strings.Repeat("a", 501), Date: "2024-01-01"}},
		{"bad date", models.CreateMovementRequest{Type: models.MovementIncome, Amount: dec("1"), Description: "x", Date: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), user.ID, account.ID, tt.req)
			require.Error(t, err)
			assert.True(t, IsValidation(err), err.Error())
		})
	}
}

func TestMovementDelete_UnlinksPair(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")
	account := seedAccount(t, db, user.ID, "Main")
	ctx := context.Background()

	shared, err := NewLedger(db).CreateSharedExpense(ctx, user.ID, models.SharedExpenseRequest{
		AccountID: account.ID.String(), TotalAmount: dec("60"), Participants: 3,
		Description: "Cab", Date: "2024-03-03",
	})
	require.NoError(t, err)

	svc := NewMovementService(db)
	other := seedUser(t, db, "bob@example.com")
	assert.ErrorIs(t, svc.Delete(ctx, other.ID, shared.Expense.ID), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, user.ID, shared.Expense.ID))

	var count int64
	require.NoError(t, db.Model(&models.Movement{}).Where("id = ?", shared.Expense.ID).Count(&count).Error)
	assert.Zero(t, count)

	income := reload(t, db, shared.Pending.ID)
	assert.Nil(t, income.RelatedMovementID)
	assertAmount(t, "40", income.Pending())

	// the orphan can still be settled on its own
	result, err := NewLedger(db).SettleLoan(ctx, user.ID, income.ID, models.SettleLoanRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.LoanSettled, result.Status)
}

func TestMonthlyExpenses(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")
	account := seedAccount(t, db, user.ID, "Main")
	other := seedUser(t, db, "bob@example.com")
	otherAccount := seedAccount(t, db, other.ID, "Bob's")

	expense := func(accountID uuid.UUID, concept models.Concept, amount, date string) {
		seedMovement(t, db, models.Movement{
			AccountID: accountID, Type: models.MovementExpense, Concept: concept,
			Amount: dec(amount), Description: "e", Date: day(date),
		})
	}
	expense(account.ID, models.ConceptNeeds, "10", "2024-03-01")
	expense(account.ID, models.ConceptWants, "5.50", "2024-03-31")
	expense(account.ID, models.ConceptNeeds, "7", "2024-02-29")
	expense(account.ID, models.ConceptNeeds, "9", "2024-04-01")
	expense(otherAccount.ID, models.ConceptNeeds, "100", "2024-03-10")
	seedMovement(t, db, models.Movement{
		AccountID: account.ID, Type: models.MovementIncome, Concept: models.ConceptOthers,
		Amount: dec("1000"), Description: "salary", Date: day("2024-03-05"),
	})

	svc := NewMovementService(db)
	svc.now = fixedClock("2024-06-15T10:00:00Z")
	ctx := context.Background()

	needs, err := svc.MonthlyExpenses(ctx, user.ID, "March", models.ConceptNeeds)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", needs.Month)
	assert.Equal(t, 1, needs.MovementCount)
	assertAmount(t, "10", needs.TotalAmount)

	all, err := svc.MonthlyExpenses(ctx, user.ID, "marzo", "all")
	require.NoError(t, err)
	assert.Equal(t, 2, all.MovementCount)
	assertAmount(t, "15.5", all.TotalAmount)

	feb, err := svc.MonthlyExpenses(ctx, user.ID, "2", "")
	require.NoError(t, err)
	assertAmount(t, "7", feb.TotalAmount)

	current, err := svc.MonthlyExpenses(ctx, user.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-06", current.Month)
	assert.Zero(t, current.MovementCount)
	assert.NotNil(t, current.Movements)

	_, err = svc.MonthlyExpenses(ctx, user.ID, "smarch", "")
	assert.True(t, IsValidation(err))
	_, err = svc.MonthlyExpenses(ctx, user.ID, "march", "fun")
	assert.True(t, IsValidation(err))
}

func TestExportMovements(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")
	account := seedAccount(t, db, user.ID, "Main")
	ctx := context.Background()

	_, err := NewLedger(db).CreateSimpleLoan(ctx, user.ID, models.SimpleLoanRequest{
		AccountID: account.ID.String(), Amount: dec("25"), LoanType: models.LoanLent,
		Description: "To Bob", Date: "2024-03-02",
	})
	require.NoError(t, err)
	seedMovement(t, db, models.Movement{
		AccountID: account.ID, Type: models.MovementExpense, Concept: models.ConceptWants,
		Amount: dec("3.5"), Description: "=HYPERLINK(\"x\")", Date: day("2024-03-01"),
	})
	svc := NewMovementService(db)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, user.ID, account.ID, ExportCSV, &buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, []string{"2024-03-02", "expense", "others", "loan", "Presté: To Bob", "25.00", "lent", "25.00", "active"}, records[1])
	assert.Equal(t, `'=HYPERLINK("x")`, records[2][4])
	assert.Equal(t, "3.50", records[2][5])

	buf.Reset()
	require.NoError(t, svc.Export(ctx, user.ID, account.ID, ExportXLSX, &buf))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Movimientos")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Fecha", rows[0][0])
	assert.Equal(t, "To Bob", strings.TrimPrefix(rows[1][4], "Presté: "))
	width, err := f.GetColWidth("Movimientos", "E")
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)

	assert.True(t, IsValidation(svc.Export(ctx, user.ID, account.ID, "pdf", &buf)))
	other := seedUser(t, db, "bob@example.com")
	assert.ErrorIs(t, svc.Export(ctx, other.ID, account.ID, ExportCSV, &buf), ErrNotFound)
}
