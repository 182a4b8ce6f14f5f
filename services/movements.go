package services

import (
	"becky-backend/models"
	"becky-backend/utils"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type MovementService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMovementService(db *gorm.DB) *MovementService {
	return &MovementService{db: db, now: time.Now}
}

func (s *MovementService) ListByAccount(ctx context.Context, userID, accountID uuid.UUID) ([]models.Movement, error) {
	db := s.db.WithContext(ctx)
	if _, err := ownedAccount(db, userID, accountID); err != nil {
		return nil, err
	}

	movements := []models.Movement{}
	if err := db.Where("account_id = ?", accountID).
		Order("date DESC").Order("created_at DESC").
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

func (s *MovementService) Create(ctx context.Context, userID, accountID uuid.UUID, req models.CreateMovementRequest) (*models.Movement, error) {
	if !req.Type.Valid() {
		return nil, invalid(`Movement type must be either "income" or "expense"`)
	}
	concept := req.Concept
	if concept == "" && req.Type == models.MovementIncome {
		concept = models.ConceptOthers
	}
	if !concept.Valid() {
		return nil, invalid("Movement concept must be one of: needs, wants, savings, others")
	}
	amount := utils.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, invalid("Amount must be a positive number")
	}
	description, err := cleanDescription(req.Description)
	if err != nil {
		return nil, err
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, invalid("Valid date is required (YYYY-MM-DD)")
	}

	movement := models.Movement{
		AccountID:   accountID,
		Type:        req.Type,
		Concept:     concept,
		Amount:      amount,
		Description: description,
		Date:        date,
		Category:    utils.CleanText(req.Category),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedAccount(tx, userID, accountID); err != nil {
			return err
		}
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		return recordActivity(tx, userID, models.ActivityMovementCreated, movement.ID,
			fmt.Sprintf("%s: %s (%s)", movement.Type, description, utils.FormatMoney(movement.Amount)))
	})
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

// Update edits the plain fields of a movement. Loan bookkeeping
// (pending amount, status, pairing) only changes through settlements.
func (s *MovementService) Update(ctx context.Context, userID, movementID uuid.UUID, req models.UpdateMovementRequest) (*models.Movement, error) {
	updates := map[string]interface{}{}
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, invalid(`Movement type must be either "income" or "expense"`)
		}
		updates["type"] = *req.Type
	}
	if req.Concept != nil {
		if !req.Concept.Valid() {
			return nil, invalid("Movement concept must be one of: needs, wants, savings, others")
		}
		updates["concept"] = *req.Concept
	}
	if req.Amount != nil {
		amount := utils.RoundMoney(*req.Amount)
		if !amount.IsPositive() {
			return nil, invalid("Amount must be a positive number")
		}
		updates["amount"] = amount
	}
	if req.Description != nil {
		description, err := cleanDescription(*req.Description)
		if err != nil {
			return nil, err
		}
		updates["description"] = description
	}
	if req.Date != nil {
		date, err := utils.ParseDate(*req.Date)
		if err != nil {
			return nil, invalid("Valid date is required (YYYY-MM-DD)")
		}
		updates["date"] = date
	}
	if req.Category != nil {
		updates["category"] = utils.CleanText(*req.Category)
	}
	if len(updates) == 0 {
		return nil, invalid("No fields to update")
	}

	var movement models.Movement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownedMovement(tx, userID, movementID, &movement); err != nil {
			return err
		}
		if err := tx.Model(&movement).Updates(updates).Error; err != nil {
			return fmt.Errorf("update movement: %w", err)
		}
		if err := tx.First(&movement, "id = ?", movementID).Error; err != nil {
			return fmt.Errorf("reload movement: %w", err)
		}
		return recordActivity(tx, userID, models.ActivityMovementUpdated, movement.ID,
			"Movimiento editado: "+movement.Description)
	})
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

// Delete removes a movement. A paired movement survives but loses its link.
func (s *MovementService) Delete(ctx context.Context, userID, movementID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var movement models.Movement
		if err := ownedMovement(tx, userID, movementID, &movement); err != nil {
			return err
		}
		if err := tx.Model(&models.Movement{}).
			Where("related_movement_id = ?", movementID).
			Update("related_movement_id", nil).Error; err != nil {
			return fmt.Errorf("unlink pair: %w", err)
		}
		if err := tx.Delete(&movement).Error; err != nil {
			return fmt.Errorf("delete movement: %w", err)
		}
		return recordActivity(tx, userID, models.ActivityMovementDeleted, movement.ID,
			"Movimiento eliminado: "+movement.Description)
	})
}

// MonthlyExpenses totals the user's expenses of one month of the current year,
// optionally restricted to one concept. month is a month name (English or
// Spanish), a number 1-12 or YYYY-MM.
func (s *MovementService) MonthlyExpenses(ctx context.Context, userID uuid.UUID, month string, concept models.Concept) (*models.MonthlyExpenses, error) {
	start, err := parseMonth(month, s.now())
	if err != nil {
		return nil, err
	}
	if concept != "" && concept != "all" && !concept.Valid() {
		return nil, invalid("Invalid concept %q", concept)
	}
	end := start.AddDate(0, 1, 0)

	db := s.db.WithContext(ctx)
	owned := db.Model(&models.Account{}).Select("id").Where("user_id = ?", userID)
	q := db.Where("account_id IN (?) AND type = ? AND date >= ? AND date < ?",
		owned, models.MovementExpense, start, end)
	if concept != "" && concept != "all" {
		q = q.Where("concept = ?", concept)
	}

	result := &models.MonthlyExpenses{
		Month:       start.Format("2006-01"),
		Concept:     concept,
		TotalAmount: decimal.Zero,
		Movements:   []models.Movement{},
	}
	if err := q.Order("date DESC").Find(&result.Movements).Error; err != nil {
		return nil, fmt.Errorf("monthly expenses: %w", err)
	}
	for _, m := range result.Movements {
		result.TotalAmount = result.TotalAmount.Add(m.Amount)
	}
	result.MovementCount = len(result.Movements)
	return result, nil
}

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

var exportHeader = []string{"Fecha", "Tipo", "Concepto", "Categoría", "Descripción", "Monto", "Préstamo", "Pendiente", "Estado"}

// Export writes the account's movements to w.
func (s *MovementService) Export(ctx context.Context, userID, accountID uuid.UUID, format ExportFormat, w io.Writer) error {
	if format != ExportCSV && format != ExportXLSX {
		return invalid("format must be csv or xlsx")
	}
	movements, err := s.ListByAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, exportRow(m))
	}

	if format == ExportCSV {
		return writeCSV(w, rows)
	}
	return writeXLSX(w, rows)
}

func exportRow(m models.Movement) []string {
	loanType, status, pending := "", "", ""
	if m.LoanType != nil {
		loanType = string(*m.LoanType)
	}
	if m.LoanStatus != nil {
		status = string(*m.LoanStatus)
	}
	if m.PendingAmount.Valid {
		pending = m.PendingAmount.Decimal.StringFixed(2)
	}
	return []string{
		m.Date.Format(utils.DateLayout),
		string(m.Type),
		string(m.Concept),
		utils.SafeCell(m.Category),
		utils.SafeCell(m.Description),
		m.Amount.StringFixed(2),
		loanType,
		pending,
		status,
	}
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Movimientos"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		// amount column as a number so spreadsheets can sum it
		if amount, err := strconv.ParseFloat(row[5], 64); err == nil {
			cells[5] = amount
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d cell: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 12); err != nil {
		return fmt.Errorf("date column width: %w", err)
	}
	if err := f.SetColWidth(sheet, "E", "E", 40); err != nil {
		return fmt.Errorf("description column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func ownedMovement(tx *gorm.DB, userID, movementID uuid.UUID, out *models.Movement) error {
	owned := tx.Model(&models.Account{}).Select("id").Where("user_id = ?", userID)
	err := tx.Where("id = ? AND account_id IN (?)", movementID, owned).First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("Movement not found")
	}
	if err != nil {
		return fmt.Errorf("load movement: %w", err)
	}
	return nil
}

func cleanDescription(s string) (string, error) {
	description := utils.CleanText(s)
	if description == "" {
		return "", invalid("Description is required")
	}
	if utf8.RuneCountInString(description) > 500 {
		return "", invalid("Description must be less than 500 characters")
	}
	return description, nil
}

var monthNames = map[string]time.Month{
	"january": time.January, "enero": time.January,
	"february": time.February, "febrero": time.February,
	"march": time.March, "marzo": time.March,
	"april": time.April, "abril": time.April,
	"may": time.May, "mayo": time.May,
	"june": time.June, "junio": time.June,
	"july": time.July, "julio": time.July,
	"august": time.August, "agosto": time.August,
	"september": time.September, "septiembre": time.September, "setiembre": time.September,
	"october": time.October, "octubre": time.October,
	"november": time.November, "noviembre": time.November,
	"december": time.December, "diciembre": time.December,
}

// parseMonth returns the first day of the requested month. An empty month
// means the current one.
func parseMonth(month string, now time.Time) (time.Time, error) {
	month = strings.ToLower(strings.TrimSpace(month))
	year := now.Year()
	switch {
	case month == "":
		return time.Date(year, now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case monthNames[month] != 0:
		return time.Date(year, monthNames[month], 1, 0, 0, 0, 0, time.UTC), nil
	}
	if n, err := strconv.Atoi(month); err == nil && n >= 1 && n <= 12 {
		return time.Date(year, time.Month(n), 1, 0, 0, 0, 0, time.UTC), nil
	}
	if t, err := time.Parse("2006-01", month); err == nil {
		return t, nil
	}
	return time.Time{}, invalid("Invalid month %q", month)
}
