package services

import (
	"becky-backend/models"
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// List returns the user's feed, newest first.
func (s *ActivityService) List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Activity, error) {
	activities := []models.Activity{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return activities, nil
}

func recordActivity(tx *gorm.DB, userID uuid.UUID, kind models.ActivityType, ref uuid.UUID, description string) error {
	err := tx.Create(&models.Activity{
		UserID:      userID,
		Type:        kind,
		ReferenceID: ref,
		Description: truncate(description, 600),
	}).Error
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
