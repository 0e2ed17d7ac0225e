package propertyevents

import (
	"context"
	"errors"

	"property-dapp-backend/internal/domain"

	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

func (s *Service) Record(ctx context.Context, e *domain.PropertyEvent) error {
	if e.AppID == 0 {
		return errors.New("Application ID is required")
	}
	return s.DB.WithContext(ctx).Create(e).Error
}

func (s *Service) ListByApp(ctx context.Context, appID uint64) ([]domain.PropertyEvent, error) {
	if appID == 0 {
		return nil, errors.New("Application ID is required")
	}

	var events []domain.PropertyEvent
	if err := s.DB.WithContext(ctx).Where("app_id = ?", appID).Order(`"createdAt" ASC`).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
