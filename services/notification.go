package services

import (
	"becky-backend/config"
	"becky-backend/database"
	"becky-backend/logger"
	"becky-backend/models"
	"becky-backend/utils"
	"context"
	"fmt"
	"os"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// NotificationService fans ledger events out to the user's device (FCM)
// and mailbox (SendGrid).
type NotificationService struct {
	db     *gorm.DB
	push   *messaging.Client
	mailer Mailer
}

var (
	notifService *NotificationService
	notifOnce    sync.Once
)

func NewNotificationService(db *gorm.DB, mailer Mailer) *NotificationService {
	return &NotificationService{db: db, mailer: mailer}
}

func GetNotificationService() *NotificationService {
	notifOnce.Do(func() {
		cfg := config.AppConfig
		if cfg == nil {
			cfg = &config.Config{}
		}
		notifService = NewNotificationService(database.DB,
			NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.AppName))
	})
	return notifService
}

func (ns *NotificationService) Mailer() Mailer {
	return ns.mailer
}

// InitPush connects to Firebase Cloud Messaging with a service account file.
// Without credentials push is disabled and the rest keeps working.
func (ns *NotificationService) InitPush(ctx context.Context, credentialsPath string) error {
	if credentialsPath == "" {
		return nil
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		logger.L.Warn("firebase credentials not found, push disabled", "path", credentialsPath)
		return nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("firebase messaging: %w", err)
	}
	ns.push = client
	logger.L.Info("push notifications enabled")
	return nil
}

func (ns *NotificationService) sendPush(ctx context.Context, fcmToken, title, body string, data map[string]string) {
	if ns.push == nil || fcmToken == "" {
		return
	}

	msg := &messaging.Message{
		Token: fcmToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if _, err := ns.push.Send(ctx, msg); err != nil {
		logger.FromContext(ctx).Warn("push send failed", "error", err)
		return
	}
	logger.FromContext(ctx).Debug("push sent", "title", title)
}

func (ns *NotificationService) userToken(ctx context.Context, userID uuid.UUID) string {
	if ns.db == nil {
		return ""
	}
	var user models.User
	if err := ns.db.WithContext(ctx).Select("id", "fcm_token").First(&user, "id = ?", userID).Error; err != nil {
		return ""
	}
	return user.FCMToken
}

// NotifySettlement pushes the new balance of a loan to the owner's device.
func (ns *NotificationService) NotifySettlement(ctx context.Context, userID uuid.UUID, loan models.Movement, result models.SettlementResult) {
	if ns.push == nil {
		return
	}

	title := "Pago registrado"
	body := fmt.Sprintf("%s: quedan %s pendientes", loan.Description, utils.FormatMoney(result.RemainingAmount))
	if result.Status == models.LoanSettled {
		title = "Préstamo saldado"
		body = fmt.Sprintf("%s quedó saldado", loan.Description)
	}

	ns.sendPush(ctx, ns.userToken(ctx, userID), title, body, map[string]string{
		"type":        "loan_settled",
		"movement_id": loan.ID.String(),
		"status":      string(result.Status),
	})
}

// NotifyDebtAlert pushes a reminder that the user owes money.
func (ns *NotificationService) NotifyDebtAlert(ctx context.Context, userID uuid.UUID, report models.LoansReport) {
	if ns.push == nil {
		return
	}
	ns.sendPush(ctx, ns.userToken(ctx, userID), "Tienes deudas pendientes",
		fmt.Sprintf("Debes %s en total", utils.FormatMoney(report.TotalBorrowed)),
		map[string]string{"type": "debt_alert"})
}
