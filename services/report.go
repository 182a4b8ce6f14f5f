package services

import (
	"becky-backend/models"
	"becky-backend/utils"
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const uncategorized = "Sin categoría"

var previewCache = cache.New(5*time.Minute, 10*time.Minute)

type DebtAlerter interface {
	NotifyDebtAlert(ctx context.Context, userID uuid.UUID, report models.LoansReport)
}

// ReportService builds the loans and weekly summaries, manages report
// subscriptions and emails the summaries.
type ReportService struct {
	db      *gorm.DB
	mailer  Mailer
	alerter DebtAlerter
	cache   *cache.Cache
	now     func() time.Time
}

func NewReportService(db *gorm.DB, mailer Mailer) *ReportService {
	return &ReportService{db: db, mailer: mailer, cache: previewCache, now: time.Now}
}

func (s *ReportService) WithDebtAlerter(a DebtAlerter) *ReportService {
	s.alerter = a
	return s
}

// CalculateNextSend returns when a subscription of the given frequency is due
// again, counting from from. Unknown frequencies repeat daily.
func CalculateNextSend(frequency models.Frequency, from time.Time) time.Time {
	switch frequency {
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	default:
		return from.AddDate(0, 0, 1)
	}
}

func (s *ReportService) List(ctx context.Context, userID uuid.UUID) ([]models.EmailReport, error) {
	reports := []models.EmailReport{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func (s *ReportService) Create(ctx context.Context, userID uuid.UUID, req models.CreateReportRequest) (*models.EmailReport, error) {
	if !req.ReportType.Valid() {
		return nil, invalid("Invalid report type")
	}
	if !req.Frequency.Valid() {
		return nil, invalid("Invalid frequency")
	}
	cfg := req.Config
	if cfg == nil {
		cfg = map[string]string{}
	}

	next := CalculateNextSend(req.Frequency, s.now())
	report := models.EmailReport{
		UserID:     userID,
		ReportType: req.ReportType,
		Frequency:  req.Frequency,
		IsActive:   true,
		NextSend:   &next,
		Config:     cfg,
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return &report, nil
}

func (s *ReportService) Toggle(ctx context.Context, userID, reportID uuid.UUID, active bool) (*models.EmailReport, error) {
	db := s.db.WithContext(ctx)
	report, err := s.owned(db, userID, reportID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(report).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("toggle report: %w", err)
	}
	report.IsActive = active
	return report, nil
}

func (s *ReportService) Delete(ctx context.Context, userID, reportID uuid.UUID) error {
	db := s.db.WithContext(ctx)
	report, err := s.owned(db, userID, reportID)
	if err != nil {
		return err
	}
	if err := db.Delete(report).Error; err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

func (s *ReportService) owned(db *gorm.DB, userID, reportID uuid.UUID) (*models.EmailReport, error) {
	var report models.EmailReport
	err := db.Where("id = ? AND user_id = ?", reportID, userID).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Reporte no encontrado")
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	return &report, nil
}

// LoansReport summarises the active loans that still have something pending.
// Shared expenses are listed but only lent and borrowed loans enter the totals.
func (s *ReportService) LoansReport(ctx context.Context, userID uuid.UUID) (*models.LoansReport, error) {
	db := s.db.WithContext(ctx)
	var accounts []models.Account
	if err := db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	names := make(map[uuid.UUID]string, len(accounts))
	ids := make([]uuid.UUID, 0, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
		ids = append(ids, a.ID)
	}

	report := &models.LoansReport{
		TotalLent:     decimal.Zero,
		TotalBorrowed: decimal.Zero,
		NetPosition:   decimal.Zero,
		PendingLoans:  []models.LoanLine{},
	}
	if len(ids) == 0 {
		return report, nil
	}

	var loans []models.Movement
	if err := db.Where("account_id IN ? AND is_loan = ? AND loan_status = ? AND pending_amount > 0",
		ids, true, models.LoanActive).
		Order("date DESC").
		Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}

	for _, loan := range loans {
		var loanType models.LoanType
		if loan.LoanType != nil {
			loanType = *loan.LoanType
		}
		switch loanType {
		case models.LoanLent:
			report.TotalLent = report.TotalLent.Add(loan.Pending())
		case models.LoanBorrowed:
			report.TotalBorrowed = report.TotalBorrowed.Add(loan.Pending())
		}
		report.PendingLoans = append(report.PendingLoans, models.LoanLine{
			ID:            loan.ID,
			Description:   loan.Description,
			Amount:        loan.Pending(),
			LoanType:      loanType,
			Date:          loan.Date,
			RelatedPeople: loan.RelatedPeople,
			Account:       names[loan.AccountID],
		})
	}
	report.NetPosition = report.TotalLent.Sub(report.TotalBorrowed)
	return report, nil
}

// WeeklyReport covers the non-loan movements of the last seven days.
func (s *ReportService) WeeklyReport(ctx context.Context, userID uuid.UUID) (*models.WeeklyReport, error) {
	now := s.now()
	weekAgo := now.AddDate(0, 0, -7)
	since := time.Date(weekAgo.Year(), weekAgo.Month(), weekAgo.Day(), 0, 0, 0, 0, time.UTC)

	db := s.db.WithContext(ctx)
	owned := db.Model(&models.Account{}).Select("id").Where("user_id = ?", userID)
	var movements []models.Movement
	if err := db.Where("account_id IN (?) AND is_loan = ? AND date >= ?", owned, false, since).
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("load weekly movements: %w", err)
	}

	report := &models.WeeklyReport{
		Period:        weekAgo.Format("02/01/2006") + " - " + now.Format("02/01/2006"),
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		TopCategories: []models.CategoryTotal{},
	}
	byCategory := map[string]decimal.Decimal{}
	for _, m := range movements {
		if m.Type == models.MovementIncome {
			report.TotalIncome = report.TotalIncome.Add(m.Amount)
			continue
		}
		report.TotalExpenses = report.TotalExpenses.Add(m.Amount)
		category := m.Category
		if category == "" {
			category = uncategorized
		}
		byCategory[category] = byCategory[category].Add(m.Amount)
	}
	report.Balance = report.TotalIncome.Sub(report.TotalExpenses)

	for category, amount := range byCategory {
		report.TopCategories = append(report.TopCategories, models.CategoryTotal{Category: category, Amount: amount})
	}
	sort.Slice(report.TopCategories, func(i, j int) bool {
		a, b := report.TopCategories[i], report.TopCategories[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Category < b.Category
	})
	if len(report.TopCategories) > 5 {
		report.TopCategories = report.TopCategories[:5]
	}

	loans, err := s.LoansReport(ctx, userID)
	if err != nil {
		return nil, err
	}
	report.Loans = *loans
	return report, nil
}

// Preview returns the report data, cached per user and type for a few minutes.
func (s *ReportService) Preview(ctx context.Context, userID uuid.UUID, reportType models.ReportType) (interface{}, error) {
	key := userID.String() + ":" + string(reportType)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	var (
		data interface{}
		err  error
	)
	switch reportType {
	case models.ReportLoansSummary, models.ReportDebtAlert:
		data, err = s.LoansReport(ctx, userID)
	case models.ReportWeeklySummary:
		data, err = s.WeeklyReport(ctx, userID)
	default:
		return nil, invalid("Tipo de reporte inválido")
	}
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, data, cache.DefaultExpiration)
	return data, nil
}

// SendNow emails a loans or weekly summary right away.
func (s *ReportService) SendNow(ctx context.Context, userID uuid.UUID, reportType models.ReportType) error {
	if reportType != models.ReportLoansSummary && reportType != models.ReportWeeklySummary {
		return invalid("Tipo de reporte inválido")
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	_, err = s.deliver(ctx, user, reportType)
	return err
}

// Deliver sends the report of a subscription. It reports false when there
// was nothing to send, which only happens for debt alerts without debt.
func (s *ReportService) Deliver(ctx context.Context, sub models.EmailReport) (bool, error) {
	user, err := s.user(ctx, sub.UserID)
	if err != nil {
		return false, err
	}
	return s.deliver(ctx, user, sub.ReportType)
}

func (s *ReportService) deliver(ctx context.Context, user *models.User, reportType models.ReportType) (bool, error) {
	switch reportType {
	case models.ReportWeeklySummary:
		summary, err := s.WeeklyReport(ctx, user.ID)
		if err != nil {
			return false, err
		}
		return true, s.send(ctx, user, "📈 Resumen Semanal - Becky", weeklyEmail, summary)

	case models.ReportLoansSummary, models.ReportDebtAlert:
		summary, err := s.LoansReport(ctx, user.ID)
		if err != nil {
			return false, err
		}
		subject := "📊 Resumen de Préstamos - Becky"
		if reportType == models.ReportDebtAlert {
			if !summary.TotalBorrowed.IsPositive() {
				return false, nil
			}
			subject = "⚠️ Tienes deudas pendientes - Becky"
			if s.alerter != nil {
				s.alerter.NotifyDebtAlert(ctx, user.ID, *summary)
			}
		}
		return true, s.send(ctx, user, subject, loansEmail, summary)
	}
	return false, invalid("Tipo de reporte inválido")
}

// SendTestEmail checks the mail setup by sending a short message to the user.
func (s *ReportService) SendTestEmail(ctx context.Context, userID uuid.UUID) error {
	user, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	return s.send(ctx, user, "🧪 Email de prueba - Becky", testEmail, nil)
}

func (s *ReportService) send(ctx context.Context, user *models.User, subject string, tmpl *template.Template, data interface{}) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, emailData{UserName: user.Name, Data: data}); err != nil {
		return fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	if err := s.mailer.Send(ctx, Email{
		ToEmail: user.Email,
		ToName:  user.Name,
		Subject: subject,
		HTML:    buf.String(),
	}); err != nil {
		return fmt.Errorf("send %s to %s: %w", tmpl.Name(), user.Email, err)
	}
	return nil
}

func (s *ReportService) user(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Usuario no encontrado")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// ============================================================
// EMAIL TEMPLATES
// ============================================================

type emailData struct {
	UserName string
	Data     interface{}
}

var emailFuncs = template.FuncMap{
	"money":    utils.FormatMoney,
	"negative": func(d decimal.Decimal) bool { return d.IsNegative() },
	"date":     func(t time.Time) string { return t.Format("02/01/2006") },
}

const emailLayout = `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5;">
	<div style="max-width: 600px; margin: 0 auto; background: white; padding: 30px; border-radius: 10px;">
		{{template "content" .}}
		<div style="text-align: center; margin-top: 30px; color: #6b7280; font-size: 14px;">
			<p>Este reporte fue generado automáticamente por Becky 🤖</p>
			<p>Para más detalles, inicia sesión en tu cuenta</p>
		</div>
	</div>
</body>
</html>`

const loansSummaryBlock = `
{{define "loansSummary"}}
<div style="background: #f8fafc; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #2563eb;">
	<h3>💳 Estado de Préstamos</h3>
	<p><strong>Total prestado:</strong> <span style="color: #059669;">{{money .TotalLent}}</span></p>
	<p><strong>Total adeudado:</strong> <span style="color: #dc2626;">{{money .TotalBorrowed}}</span></p>
	<p><strong>Posición neta:</strong>
		<span style="color: {{if negative .NetPosition}}#dc2626{{else}}#059669{{end}};">{{money .NetPosition}}</span></p>
</div>
{{end}}`

var loansEmail = template.Must(template.New("loans_summary").Funcs(emailFuncs).Parse(emailLayout + loansSummaryBlock + `
{{define "content"}}
<div style="text-align: center; color: #2563eb;">
	<h1>📊 Resumen de Préstamos</h1>
	<p>Hola {{.UserName}}, aquí está tu resumen de deudas pendientes</p>
</div>
{{template "loansSummary" .Data}}
{{if .Data.PendingLoans}}
<div style="background: #f8fafc; padding: 20px; border-radius: 8px; margin: 20px 0;">
	<h3>📋 Préstamos Pendientes</h3>
	{{range .Data.PendingLoans}}
	<div style="background: white; padding: 15px; margin: 10px 0; border-radius: 6px; border: 1px solid #e2e8f0;">
		<p><strong>{{.Description}}</strong></p>
		<p>Tipo: {{if eq .LoanType "borrowed"}}💳 Adeudado{{else}}💸 Prestado{{end}}</p>
		<p>Monto: {{money .Amount}}</p>
		<p>Fecha: {{date .Date}}</p>
		{{if .RelatedPeople}}<p>Involucrados: {{range $i, $p := .RelatedPeople}}{{if $i}}, {{end}}{{$p}}{{end}}</p>{{end}}
	</div>
	{{end}}
</div>
{{else}}
<div style="background: #f8fafc; padding: 20px; border-radius: 8px;"><p>🎉 ¡No tienes préstamos pendientes!</p></div>
{{end}}
{{end}}`))

var weeklyEmail = template.Must(template.New("weekly_summary").Funcs(emailFuncs).Parse(emailLayout + loansSummaryBlock + `
{{define "content"}}
<div style="text-align: center; color: #2563eb;">
	<h1>📈 Resumen Semanal</h1>
	<p>Hola {{.UserName}}, aquí está tu resumen financiero</p>
	<p><em>{{.Data.Period}}</em></p>
</div>
<div style="background: #f8fafc; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #2563eb;">
	<h3>💰 Resumen Financiero</h3>
	<p><strong>Ingresos:</strong> <span style="color: #059669;">{{money .Data.TotalIncome}}</span></p>
	<p><strong>Gastos:</strong> <span style="color: #dc2626;">{{money .Data.TotalExpenses}}</span></p>
	<p><strong>Balance:</strong>
		<span style="color: {{if negative .Data.Balance}}#dc2626{{else}}#059669{{end}};">{{money .Data.Balance}}</span></p>
</div>
{{if .Data.TopCategories}}
<div style="background: #f8fafc; padding: 20px; border-radius: 8px; margin: 20px 0;">
	<h3>🏷️ Principales Categorías de Gasto</h3>
	{{range .Data.TopCategories}}
	<p>{{.Category}}: <span style="color: #dc2626;">{{money .Amount}}</span></p>
	{{end}}
</div>
{{end}}
{{template "loansSummary" .Data.Loans}}
{{end}}`))

var testEmail = template.Must(template.New("test_email").Funcs(emailFuncs).Parse(emailLayout + `
{{define "content"}}
<h2 style="color: #2563eb;">🧪 Email de prueba</h2>
<p>Hola {{.UserName}}, si estás leyendo esto los reportes por email funcionan correctamente.</p>
{{end}}`))
