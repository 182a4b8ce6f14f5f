package services

import (
	"becky-backend/models"
	"becky-backend/utils"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const recentMovementsPerAccount = 10

type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// List returns the user's accounts, each with its latest movements.
func (s *AccountService) List(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	db := s.db.WithContext(ctx)
	accounts := []models.Account{}
	if err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	for i := range accounts {
		movements := []models.Movement{}
		if err := db.Where("account_id = ?", accounts[i].ID).
			Order("date DESC").Order("created_at DESC").
			Limit(recentMovementsPerAccount).
			Find(&movements).Error; err != nil {
			return nil, fmt.Errorf("recent movements for %s: %w", accounts[i].ID, err)
		}
		accounts[i].Movements = movements
	}
	return accounts, nil
}

func (s *AccountService) Create(ctx context.Context, userID uuid.UUID, req models.CreateAccountRequest) (*models.Account, error) {
	name := utils.CleanText(req.Name)
	if name == "" {
		return nil, invalid("Account name is required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return nil, invalid("Account name must be at most 100 characters")
	}
	accountType := req.Type
	if accountType == "" {
		accountType = models.AccountChecking
	}
	if !accountType.Valid() {
		return nil, invalid("Account type must be one of checking, savings, cash, credit")
	}

	account := models.Account{
		UserID: userID,
		Name:   name,
		Bank:   utils.CleanText(req.Bank),
		Type:   accountType,
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	account.Movements = []models.Movement{}
	return &account, nil
}

// ownedAccount loads an account only if it belongs to userID. Someone else's
// account is reported as not found.
func ownedAccount(tx *gorm.DB, userID, accountID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := tx.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &account, nil
}
