package services

import (
	"becky-backend/logger"
	"becky-backend/models"
	"becky-backend/utils"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementNotifier is told about every recorded settlement, after commit.
type SettlementNotifier interface {
	NotifySettlement(ctx context.Context, userID uuid.UUID, loan models.Movement, result models.SettlementResult)
}

// Ledger creates loans and shared expenses and applies settlements to them.
type Ledger struct {
	db       *gorm.DB
	notifier SettlementNotifier
	now      func() time.Time
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

func (l *Ledger) WithNotifier(n SettlementNotifier) *Ledger {
	l.notifier = n
	return l
}

// SplitShare is the caller's part of total split evenly between participants,
// rounded half-up to cents. The remainder (total - share) is what the others owe,
// so share and remainder always add up to total exactly.
func SplitShare(total decimal.Decimal, participants int) decimal.Decimal {
	return total.DivRound(decimal.NewFromInt(int64(participants)), 2)
}

func (l *Ledger) CreateSharedExpense(ctx context.Context, userID uuid.UUID, req models.SharedExpenseRequest) (*models.SharedExpenseResult, error) {
	if req.AccountID == "" || req.TotalAmount.IsZero() || req.Participants == 0 ||
		strings.TrimSpace(req.Description) == "" || req.Date == "" {
		return nil, invalid("accountId, totalAmount, participants, description, and date are required")
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return nil, invalid("Invalid accountId")
	}
	total := utils.RoundMoney(req.TotalAmount)
	if !total.IsPositive() {
		return nil, invalid("totalAmount must be greater than 0")
	}
	if req.Participants < 2 {
		return nil, invalid("Participants must be at least 2")
	}
	myShare := SplitShare(total, req.Participants)
	if !myShare.IsPositive() {
		return nil, invalid("totalAmount is too small to split between %d participants", req.Participants)
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, invalid("date must be in YYYY-MM-DD format")
	}
	concept := req.Concept
	if concept == "" {
		concept = models.ConceptOthers
	}
	if !concept.Valid() {
		return nil, invalid("Invalid concept %q", concept)
	}
	description := utils.CleanText(req.Description)
	if description == "" {
		return nil, invalid("description is required")
	}

	pending := total.Sub(myShare)
	people := utils.CleanList(req.ParticipantsList)
	participants := req.Participants

	expense := models.Movement{
		AccountID: accountID,
		Type:      models.MovementExpense,
		Concept:   concept,
		Amount:    myShare,
		Description: fmt.Sprintf("%s (mi parte: %s de %s entre %d personas)",
			description, myShare.String(), total.String(), participants),
		Date:           date,
		Category:       utils.CleanText(req.Category),
		IsLoan:         true,
		LoanType:       models.LoanTypePtr(models.LoanShared),
		OriginalAmount: models.NullAmount(total),
		Participants:   &participants,
		PendingAmount:  models.NullAmount(pending),
		RelatedPeople:  people,
		LoanStatus:     models.LoanStatusPtr(models.StatusFor(pending)),
	}
	result := &models.SharedExpenseResult{
		Summary: models.SharedExpenseSummary{
			TotalAmount:   total,
			MyShare:       myShare,
			PendingAmount: pending,
			Participants:  participants,
			Description:   description,
		},
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedAccount(tx, userID, accountID); err != nil {
			return err
		}
		if err := tx.Create(&expense).Error; err != nil {
			return fmt.Errorf("create shared expense: %w", err)
		}

		if pending.IsPositive() {
			income := models.Movement{
				AccountID:         accountID,
				Type:              models.MovementIncome,
				Concept:           models.ConceptOthers,
				Amount:            pending,
				Description:       "Pendiente por cobrar: " + description,
				Date:              date,
				Category:          models.CategoryPendingLoan,
				IsLoan:            true,
				LoanType:          models.LoanTypePtr(models.LoanLent),
				OriginalAmount:    models.NullAmount(total),
				Participants:      &participants,
				PendingAmount:     models.NullAmount(pending),
				RelatedPeople:     people,
				LoanStatus:        models.LoanStatusPtr(models.LoanActive),
				RelatedMovementID: &expense.ID,
			}
			if err := tx.Create(&income).Error; err != nil {
				return fmt.Errorf("create pending income: %w", err)
			}
			if err := tx.Model(&models.Movement{}).Where("id = ?", expense.ID).
				Update("related_movement_id", income.ID).Error; err != nil {
				return fmt.Errorf("link shared expense: %w", err)
			}
			expense.RelatedMovementID = &income.ID
			result.Pending = &income
		}

		return recordActivity(tx, userID, models.ActivitySharedExpenseCreated, expense.ID,
			fmt.Sprintf("Gasto compartido: %s (%s entre %d)", description, utils.FormatMoney(total), participants))
	})
	if err != nil {
		return nil, err
	}

	result.Expense = expense
	logger.FromContext(ctx).Info("shared expense created",
		"movementID", expense.ID, "total", total.String(), "participants", participants)
	return result, nil
}

func (l *Ledger) CreateSimpleLoan(ctx context.Context, userID uuid.UUID, req models.SimpleLoanRequest) (*models.SimpleLoanResult, error) {
	if req.AccountID == "" || req.Amount.IsZero() || req.LoanType == "" ||
		strings.TrimSpace(req.Description) == "" || req.Date == "" {
		return nil, invalid("accountId, amount, loanType, description, and date are required")
	}
	if req.LoanType != models.LoanLent && req.LoanType != models.LoanBorrowed {
		return nil, invalid(`loanType must be either "lent" or "borrowed"`)
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return nil, invalid("Invalid accountId")
	}
	amount := utils.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, invalid("amount must be greater than 0")
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, invalid("date must be in YYYY-MM-DD format")
	}
	description := utils.CleanText(req.Description)
	if description == "" {
		return nil, invalid("description is required")
	}
	category := utils.CleanText(req.Category)
	if category == "" {
		category = models.CategoryLoan
	}

	movementType, prefix := models.MovementExpense, "Presté: "
	if req.LoanType == models.LoanBorrowed {
		movementType, prefix = models.MovementIncome, "Me prestaron: "
	}
	people := []string{}
	person := utils.CleanText(req.RelatedPerson)
	if person != "" {
		people = append(people, person)
	}
	two := 2

	loan := models.Movement{
		AccountID:      accountID,
		Type:           movementType,
		Concept:        models.ConceptOthers,
		Amount:         amount,
		Description:    prefix + description,
		Date:           date,
		Category:       category,
		IsLoan:         true,
		LoanType:       models.LoanTypePtr(req.LoanType),
		OriginalAmount: models.NullAmount(amount),
		Participants:   &two,
		PendingAmount:  models.NullAmount(amount),
		RelatedPeople:  people,
		LoanStatus:     models.LoanStatusPtr(models.LoanActive),
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedAccount(tx, userID, accountID); err != nil {
			return err
		}
		if err := tx.Create(&loan).Error; err != nil {
			return fmt.Errorf("create loan: %w", err)
		}
		return recordActivity(tx, userID, models.ActivityLoanCreated, loan.ID,
			fmt.Sprintf("%s%s (%s)", prefix, description, utils.FormatMoney(amount)))
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("loan created", "movementID", loan.ID, "loanType", req.LoanType)
	return &models.SimpleLoanResult{
		Loan: loan,
		Summary: models.SimpleLoanSummary{
			Amount:        amount,
			LoanType:      req.LoanType,
			Description:   description,
			RelatedPerson: person,
		},
	}, nil
}

// GetPendingLoans lists the active loans across every account of the user,
// newest first. Both sides of a shared expense pair count towards totalLent.
func (l *Ledger) GetPendingLoans(ctx context.Context, userID uuid.UUID) (*models.PendingLoans, error) {
	result := &models.PendingLoans{
		Loans: []models.Movement{},
		Summary: models.PendingLoansSummary{
			TotalLent:     decimal.Zero,
			TotalBorrowed: decimal.Zero,
			NetBalance:    decimal.Zero,
		},
	}

	db := l.db.WithContext(ctx)
	var accounts []models.Account
	if err := db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	if len(accounts) == 0 {
		return result, nil
	}

	names := make(map[uuid.UUID]string, len(accounts))
	ids := make([]uuid.UUID, 0, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
		ids = append(ids, a.ID)
	}

	if err := db.Where("account_id IN ? AND is_loan = ? AND loan_status = ?", ids, true, models.LoanActive).
		Order("date DESC").Order("created_at DESC").
		Find(&result.Loans).Error; err != nil {
		return nil, fmt.Errorf("load pending loans: %w", err)
	}

	for i := range result.Loans {
		loan := &result.Loans[i]
		loan.AccountName = names[loan.AccountID]
		if loan.LoanType == nil {
			continue
		}
		switch *loan.LoanType {
		case models.LoanLent, models.LoanShared:
			result.Summary.TotalLent = result.Summary.TotalLent.Add(loan.Pending())
		case models.LoanBorrowed:
			result.Summary.TotalBorrowed = result.Summary.TotalBorrowed.Add(loan.Pending())
		}
	}
	result.Count = len(result.Loans)
	result.Summary.NetBalance = result.Summary.TotalLent.Sub(result.Summary.TotalBorrowed)
	return result, nil
}

// SettleLoan records a payment against a loan. The payment defaults to the whole
// pending amount and may not exceed it. The new pending amount and status are
// written to the loan and to its paired movement, if any.
func (l *Ledger) SettleLoan(ctx context.Context, userID, movementID uuid.UUID, req models.SettleLoanRequest) (*models.SettlementResult, error) {
	var (
		loan   models.Movement
		result models.SettlementResult
	)

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.Account{}).Select("id").Where("user_id = ?", userID)
		err := tx.Where("id = ? AND is_loan = ? AND account_id IN (?)", movementID, true, owned).
			First(&loan).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Loan not found")
		}
		if err != nil {
			return fmt.Errorf("load loan: %w", err)
		}

		if loan.LoanStatus != nil && *loan.LoanStatus == models.LoanSettled {
			return invalid("Loan is already settled")
		}
		pending := loan.Pending()
		paid := pending
		if req.AmountPaid.Valid {
			paid = utils.RoundMoney(req.AmountPaid.Decimal)
		}
		if !paid.IsPositive() {
			return invalid("amountPaid must be greater than 0")
		}
		if paid.GreaterThan(pending) {
			return invalid("amountPaid (%s) exceeds the pending amount (%s)", paid.StringFixed(2), pending.StringFixed(2))
		}

		description := utils.CleanText(req.Description)
		if description == "" {
			description = "Cobro/Pago de préstamo: " + loan.Description
		}
		settlementType := models.MovementExpense
		if loan.LoanType != nil && *loan.LoanType == models.LoanLent {
			settlementType = models.MovementIncome
		}

		settlement := models.Movement{
			AccountID:   loan.AccountID,
			Type:        settlementType,
			Concept:     models.ConceptOthers,
			Amount:      paid,
			Description: description,
			Date:        l.today(),
			Category:    models.CategoryLoanSettlement,
			IsLoan:      false,
		}
		if err := tx.Create(&settlement).Error; err != nil {
			return fmt.Errorf("create settlement: %w", err)
		}

		remaining := pending.Sub(paid)
		status := models.StatusFor(remaining)
		updates := map[string]interface{}{
			"pending_amount": models.NullAmount(remaining),
			"loan_status":    status,
		}
		ids := []uuid.UUID{loan.ID}
		if loan.RelatedMovementID != nil {
			ids = append(ids, *loan.RelatedMovementID)
		}
		if err := tx.Model(&models.Movement{}).Where("id IN ?", ids).Updates(updates).Error; err != nil {
			return fmt.Errorf("update loan: %w", err)
		}

		result = models.SettlementResult{
			Settlement:      settlement,
			RemainingAmount: remaining,
			Status:          status,
		}
		return recordActivity(tx, userID, models.ActivityLoanSettled, loan.ID,
			fmt.Sprintf("%s: %s, pendiente %s", description, utils.FormatMoney(paid), utils.FormatMoney(remaining)))
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("loan settled",
		"movementID", loan.ID, "remaining", result.RemainingAmount.String(), "status", result.Status)
	if l.notifier != nil {
		go l.notifier.NotifySettlement(context.WithoutCancel(ctx), userID, loan, result)
	}
	return &result, nil
}

func (l *Ledger) today() time.Time {
	y, m, d := l.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
