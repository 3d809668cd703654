package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sajangnote/internal/models/db_models"
)

type CopyRepository interface {
	Create(ctx context.Context, c *db_models.MarketingCopy) error
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.MarketingCopy, error)
	ListByPlace(ctx context.Context, placeID uuid.UUID) ([]db_models.MarketingCopy, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type copyRepository struct {
	db *gorm.DB
}

func NewCopyRepository(db *gorm.DB) CopyRepository {
	return &copyRepository{db: db}
}

func (r *copyRepository) Create(ctx context.Context, c *db_models.MarketingCopy) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *copyRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.MarketingCopy, error) {
	var c db_models.MarketingCopy
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *copyRepository) ListByPlace(ctx context.Context, placeID uuid.UUID) ([]db_models.MarketingCopy, error) {
	var copies []db_models.MarketingCopy
	err := r.db.WithContext(ctx).
		Where("place_id = ?", placeID).
		Order("created_at DESC").
		Find(&copies).Error
	if err != nil {
		return nil, err
	}
	return copies, nil
}

func (r *copyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Delete(&db_models.MarketingCopy{}, "id = ?", id).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}
