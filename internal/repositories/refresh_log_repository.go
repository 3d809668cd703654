package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sajangnote/internal/models/db_models"
)

// RefreshLogRepository is append and read only.
type RefreshLogRepository interface {
	Append(ctx context.Context, entry *db_models.RefreshLog) error
	CountSince(ctx context.Context, accountID uuid.UUID, since int64) (int64, error)
}

type refreshLogRepository struct {
	db *gorm.DB
}

func NewRefreshLogRepository(db *gorm.DB) RefreshLogRepository {
	return &refreshLogRepository{db: db}
}

func (r *refreshLogRepository) Append(ctx context.Context, entry *db_models.RefreshLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *refreshLogRepository) CountSince(ctx context.Context, accountID uuid.UUID, since int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db_models.RefreshLog{}).
		Where("account_id = ? AND created_at >= ?", accountID, since).
		Count(&count).Error
	return count, err
}
