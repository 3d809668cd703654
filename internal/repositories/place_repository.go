package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sajangnote/internal/models/db_models"
)

type PlaceRepository interface {
	Create(ctx context.Context, place *db_models.Place) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Place, error)
	GetByAccountAndProviderID(ctx context.Context, accountID uuid.UUID, providerID string) (*db_models.Place, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.Place, error)

	// CountActive excludes failed places; they do not consume quota.
	CountActive(ctx context.Context, accountID uuid.UUID) (int64, error)

	// MarkProcessing is the compare-and-swap guard against concurrent
	// lifecycle operations on one place: the update only lands when the row
	// is not already processing, and the caller checks the returned flag.
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)

	MarkCompleted(ctx context.Context, id uuid.UUID) error
	// ApplyAnalysis lands the analysis output and completes the row in one
	// update; only the analysis worker calls it.
	ApplyAnalysis(ctx context.Context, id uuid.UUID, name, address string, crawledData []byte, contentChanged bool) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
	// MarkCompletedWithError covers the refresh failure path, which keeps the
	// old data visible instead of flipping to failed.
	MarkCompletedWithError(ctx context.Context, id uuid.UUID, errorMessage string) error

	// PreparePlaceChange atomically points the row at the new storefront and
	// resets crawl state, without touching the owner's change allowance.
	PreparePlaceChange(ctx context.Context, id uuid.UUID, newProviderID, newURL string) (bool, error)

	DecrementRefreshes(ctx context.Context, id uuid.UUID) error
	// SetRemainingRefreshes tops up the refresh allowance on every place an
	// account owns; it runs inside the caller's transaction when a plan
	// grant is applied.
	SetRemainingRefreshes(tx *gorm.DB, accountID uuid.UUID, n int) error

	// DeleteCascade removes dependent copy and embedding rows and the place
	// in one transaction.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

type placeRepository struct {
	db *gorm.DB
}

func NewPlaceRepository(db *gorm.DB) PlaceRepository {
	return &placeRepository{db: db}
}

func (r *placeRepository) Create(ctx context.Context, place *db_models.Place) (uuid.UUID, error) {
	if err := r.db.WithContext(ctx).Create(place).Error; err != nil {
		return uuid.Nil, err
	}
	return place.ID, nil
}

func (r *placeRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Place, error) {
	var place db_models.Place
	err := r.db.WithContext(ctx).First(&place, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &place, nil
}

func (r *placeRepository) GetByAccountAndProviderID(ctx context.Context, accountID uuid.UUID, providerID string) (*db_models.Place, error) {
	var place db_models.Place
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND provider_place_id = ?", accountID, providerID).
		First(&place).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &place, nil
}

func (r *placeRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.Place, error) {
	var places []db_models.Place
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&places).Error
	if err != nil {
		return nil, err
	}
	return places, nil
}

func (r *placeRepository) CountActive(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db_models.Place{}).
		Where("account_id = ? AND status <> ?", accountID, db_models.PlaceStatusFailed).
		Count(&count).Error
	return count, err
}

func (r *placeRepository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.Place{}).
		Where("id = ? AND status <> ?", id, db_models.PlaceStatusProcessing).
		Updates(map[string]interface{}{
			"status":        db_models.PlaceStatusProcessing,
			"error_message": nil,
			"updated_at":    time.Now().Unix(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *placeRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	now := time.Now().Unix()
	return r.db.WithContext(ctx).
		Model(&db_models.Place{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          db_models.PlaceStatusCompleted,
			"error_message":   nil,
			"last_crawled_at": now,
			"updated_at":      now,
		}).Error
}

func (r *placeRepository) ApplyAnalysis(ctx context.Context, id uuid.UUID, name, address string, crawledData []byte, contentChanged bool) error {
	now := time.Now().Unix()
	updates := map[string]interface{}{
		"status":          db_models.PlaceStatusCompleted,
		"error_message":   nil,
		"crawled_data":    crawledData,
		"last_crawled_at": now,
		"updated_at":      now,
	}
	if name != "" {
		updates["name"] = name
	}
	if address != "" {
		updates["address"] = address
	}
	if contentChanged {
		updates["content_last_changed_at"] = now
	}
	return r.db.WithContext(ctx).
		Model(&db_models.Place{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *placeRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Place{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        db_models.PlaceStatusFailed,
			"error_message": errorMessage,
			"updated_at":    time.Now().Unix(),
		}).Error
}

func (r *placeRepository) MarkCompletedWithError(ctx context.Context, id uuid.UUID, errorMessage string) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Place{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        db_models.PlaceStatusCompleted,
			"error_message": errorMessage,
			"updated_at":    time.Now().Unix(),
		}).Error
}

func (r *placeRepository) PreparePlaceChange(ctx context.Context, id uuid.UUID, newProviderID, newURL string) (bool, error) {
	var swapped bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db_models.Place{}).
			Where("id = ? AND status <> ?", id, db_models.PlaceStatusProcessing).
			Updates(map[string]interface{}{
				"provider_place_id": newProviderID,
				"canonical_url":     newURL,
				"status":            db_models.PlaceStatusProcessing,
				"error_message":     nil,
				"last_crawled_at":   nil,
				"updated_at":        time.Now().Unix(),
			})
		if res.Error != nil {
			return res.Error
		}
		swapped = res.RowsAffected == 1
		if !swapped {
			return nil
		}
		// Old embeddings describe the old storefront.
		return tx.Where("place_id = ?", id).Delete(&db_models.PlaceEmbedding{}).Error
	})
	return swapped, err
}

func (r *placeRepository) DecrementRefreshes(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Place{}).
		Where("id = ? AND remaining_refreshes > 0", id).
		UpdateColumn("remaining_refreshes", gorm.Expr("remaining_refreshes - 1")).Error
}

func (r *placeRepository) SetRemainingRefreshes(tx *gorm.DB, accountID uuid.UUID, n int) error {
	return tx.Model(&db_models.Place{}).
		Where("account_id = ?", accountID).
		UpdateColumn("remaining_refreshes", n).Error
}

func (r *placeRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("place_id = ?", id).Delete(&db_models.MarketingCopy{}).Error; err != nil {
			return err
		}
		if err := tx.Where("place_id = ?", id).Delete(&db_models.PlaceEmbedding{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db_models.Place{}, "id = ?", id).Error
	})
}
