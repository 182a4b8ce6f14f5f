package services

import (
	"becky-backend/models"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type debtAlertRecorder struct {
	reports []models.LoansReport
}

func (r *debtAlertRecorder) NotifyDebtAlert(_ context.Context, _ uuid.UUID, report models.LoansReport) {
	r.reports = append(r.reports, report)
}

func seedLoans(t *testing.T, ledger *Ledger, userID, accountID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	_, err := ledger.CreateSimpleLoan(ctx, userID, models.SimpleLoanRequest{
		AccountID: accountID.String(), Amount: dec("80"), LoanType: models.LoanLent,
		Description: "To Bob", Date: "2024-03-01", RelatedPerson: "Bob",
	})
	require.NoError(t, err)
	_, err = ledger.CreateSimpleLoan(ctx, userID, models.SimpleLoanRequest{
		AccountID: accountID.String(), Amount: dec("30"), LoanType: models.LoanBorrowed,
		Description: "From Carla", Date: "2024-03-02",
	})
	require.NoError(t, err)
	_, err = ledger.CreateSharedExpense(ctx, userID, models.SharedExpenseRequest{
		AccountID: accountID.String(), TotalAmount: dec("40"), Participants: 2,
		Description: "Dinner", Date: "2024-03-03",
	})
	require.NoError(t, err)
}

func TestCalculateNextSend(t *testing.T) {
	from := time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, from.AddDate(0, 0, 1), CalculateNextSend(models.FrequencyDaily, from))
	assert.Equal(t, from.AddDate(0, 0, 7), CalculateNextSend(models.FrequencyWeekly, from))
	assert.Equal(t, from.AddDate(0, 1, 0), CalculateNextSend(models.FrequencyMonthly, from))
	assert.Equal(t, from.AddDate(0, 0, 1), CalculateNextSend(models.FrequencyImmediate, from))
}

func TestLoansReport(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")
	account := seedAccount(t, db, user.ID, "Main")
	seedLoans(t, NewLedger(db), user.ID, account.ID)

	report, err := NewReportService(db, nil).LoansReport(context.Background(), user.ID)
	require.NoError(t, err)

	// the shared half is listed, only lent and borrowed enter the totals
	assert.Len(t, report.PendingLoans, 4)
	assertAmount(t, "100", report.TotalLent)
	assertAmount(t, "30", report.TotalBorrowed)
	assertAmount(t, "70", report.NetPosition)
	for _, line := range report.PendingLoans {
		assert.Equal(t, "Main", line.Account)
	}

	nobody := seedUser(t, db, "bob@example.com")
	empty, err := NewReportService(db, nil).LoansReport(context.Background(), nobody.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.PendingLoans)
	assert.True(t, empty.NetPosition.IsZero())
}

func TestWeeklyReport(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")
	account := seedAccount(t, db, user.ID, "Main")
	add := func(kind models.MovementType, amount, category, date string) {
		seedMovement(t, db, models.Movement{
			AccountID: account.ID, Type: kind, Concept: models.ConceptOthers,
			Amount: dec(amount), Description: "m", Category: category, Date: day(date),
		})
	}
	add(models.MovementIncome, "500", "salary", "2024-03-14")
	add(models.MovementExpense, "40", "food", "2024-03-12")
	add(models.MovementExpense, "25", "food", "2024-03-13")
	add(models.MovementExpense, "90", "rent", "2024-03-10")
	add(models.MovementExpense, "15", "", "2024-03-15")
	add(models.MovementExpense, "999", "old", "2024-03-01")
	seedLoans(t, NewLedger(db), user.ID, account.ID)

	svc := NewReportService(db, nil)
	svc.now = fixedClock("2024-03-15T12:00:00Z")
	report, err := svc.WeeklyReport(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, "08/03/2024 - 15/03/2024", report.Period)
	assertAmount(t, "500", report.TotalIncome)
	assertAmount(t, "170", report.TotalExpenses)
	assertAmount(t, "330", report.Balance)
	require.Len(t, report.TopCategories, 3)
	assert.Equal(t, "rent", report.TopCategories[0].Category)
	assert.Equal(t, "food", report.TopCategories[1].Category)
	assertAmount(t, "65", report.TopCategories[1].Amount)
	assert.Equal(t, uncategorized, report.TopCategories[2].Category)
	assertAmount(t, "30", report.Loans.TotalBorrowed)
}

func TestReportSubscriptions(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")
	other := seedUser(t, db, "bob@example.com")
	svc := NewReportService(db, nil)
	svc.now = fixedClock("2024-03-15T12:00:00Z")
	ctx := context.Background()

	report, err := svc.Create(ctx, user.ID, models.CreateReportRequest{
		ReportType: models.ReportLoansSummary,
		Frequency:  models.FrequencyWeekly,
	})
	require.NoError(t, err)
	assert.True(t, report.IsActive)
	require.NotNil(t, report.NextSend)
	assert.Equal(t, "2024-03-22", report.NextSend.UTC().Format("2006-01-02"))

	_, err = svc.Create(ctx, user.ID, models.CreateReportRequest{ReportType: "monthly_digest", Frequency: models.FrequencyDaily})
	assert.EqualError(t, err, "Invalid report type")
	_, err = svc.Create(ctx, user.ID, models.CreateReportRequest{ReportType: models.ReportDebtAlert, Frequency: "hourly"})
	assert.EqualError(t, err, "Invalid frequency")

	toggled, err := svc.Toggle(ctx, user.ID, report.ID, false)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	_, err = svc.Toggle(ctx, other.ID, report.ID, true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other.ID, report.ID), ErrNotFound)

	reports, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].IsActive)

	require.NoError(t, svc.Delete(ctx, user.ID, report.ID))
	reports, err = svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestSendNow(t *testing.T) {
	ctrl := gomock.NewController(t)
	mailer := NewMockMailer(ctrl)
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")
	account := seedAccount(t, db, user.ID, "Main")
	seedLoans(t, NewLedger(db), user.ID, account.ID)
	svc := NewReportService(db, mailer)
	ctx := context.Background()

	mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, email Email) error {
		assert.Equal(t, "ana@example.com", email.ToEmail)
		assert.Contains(t, email.Subject, "Resumen de Préstamos")
		assert.Contains(t, email.HTML, "Hola Ana")
		assert.Contains(t, email.HTML, "$100.00")
		assert.Contains(t, email.HTML, "From Carla")
		return nil
	})
	require.NoError(t, svc.SendNow(ctx, user.ID, models.ReportLoansSummary))

	mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("sendgrid down"))
	assert.Error(t, svc.SendNow(ctx, user.ID, models.ReportWeeklySummary))

	err := svc.SendNow(ctx, user.ID, models.ReportDebtAlert)
	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, svc.SendNow(ctx, uuid.New(), models.ReportLoansSummary), ErrNotFound)
}

func TestDeliverDebtAlert(t *testing.T) {
	ctrl := gomock.NewController(t)
	mailer := NewMockMailer(ctrl)
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")
	account := seedAccount(t, db, user.ID, "Main")
	alerts := &debtAlertRecorder{}
	svc := NewReportService(db, mailer).WithDebtAlerter(alerts)
	ctx := context.Background()
	sub := models.EmailReport{UserID: user.ID, ReportType: models.ReportDebtAlert, Frequency: models.FrequencyDaily}

	// no debt, no email
	sent, err := svc.Deliver(ctx, sub)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, alerts.reports)

	seedLoans(t, NewLedger(db), user.ID, account.ID)
	mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, email Email) error {
		assert.Contains(t, email.Subject, "Tienes deudas pendientes")
		return nil
	})
	sent, err = svc.Deliver(ctx, sub)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, alerts.reports, 1)
	assertAmount(t, "30", alerts.reports[0].TotalBorrowed)
}

func TestPreviewIsCached(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")
	account := seedAccount(t, db, user.ID, "Main")
	svc := NewReportService(db, nil)
	ctx := context.Background()

	first, err := svc.Preview(ctx, user.ID, models.ReportLoansSummary)
	require.NoError(t, err)
	assert.Empty(t, first.(*models.LoansReport).PendingLoans)

	seedLoans(t, NewLedger(db), user.ID, account.ID)
	second, err := svc.Preview(ctx, user.ID, models.ReportLoansSummary)
	require.NoError(t, err)
	assert.Same(t, first, second)

	weekly, err := svc.Preview(ctx, user.ID, models.ReportWeeklySummary)
	require.NoError(t, err)
	assert.IsType(t, &models.WeeklyReport{}, weekly)

	_, err = svc.Preview(ctx, user.ID, "yearly")
	assert.True(t, IsValidation(err))
}

func TestSendTestEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	mailer := NewMockMailer(ctrl)
	db := newTestDB(t)
	user := seedUser(t, db, "ana@example.com")

	mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, email Email) error {
		assert.Contains(t, email.Subject, "Email de prueba")
		assert.Contains(t, email.HTML, "Hola Ana")
		return nil
	})
	require.NoError(t, NewReportService(db, mailer).SendTestEmail(context.Background(), user.ID))
}
