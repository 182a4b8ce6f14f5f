package services

import (
	"becky-backend/models"
	"becky-backend/utils"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContactService struct {
	db *gorm.DB
}

func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{db: db}
}

func (s *ContactService) List(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	contacts := []models.Contact{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) Create(ctx context.Context, userID uuid.UUID, req models.CreateContactRequest) (*models.Contact, error) {
	name := utils.CleanText(req.Name)
	if name == "" {
		return nil, invalid("Contact name is required")
	}

	contact := models.Contact{
		UserID:   userID,
		Name:     name,
		Phone:    utils.CleanText(req.Phone),
		Email:    strings.ToLower(utils.CleanText(req.Email)),
		Nickname: utils.CleanText(req.Nickname),
		Notes:    utils.CleanText(req.Notes),
	}
	if err := s.db.WithContext(ctx).Create(&contact).Error; err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &contact, nil
}
