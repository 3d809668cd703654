package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sajangnote/internal/models/db_models"
)

type AccountRepository interface {
	Insert(ctx context.Context, account *db_models.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Account, error)
	FindByEmail(ctx context.Context, email string) (*db_models.Account, error)

	// CommitPlaceChange is the second phase of a place change: charge the
	// allowance (or the first free change) and start the cooldown, in one
	// transaction. Only called once the place row reached completed.
	CommitPlaceChange(ctx context.Context, accountID uuid.UUID, isFirstChange bool, nextChangeAt int64) error

	// ApplyPlanGrant copies a plan's feature grant onto the account when its
	// subscription activates.
	ApplyPlanGrant(tx *gorm.DB, accountID uuid.UUID, grant db_models.PlanFeatures) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (a *accountRepository) Insert(ctx context.Context, account *db_models.Account) error {
	return a.db.WithContext(ctx).Create(account).Error
}

func (a *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (a *accountRepository) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).First(&account, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (a *accountRepository) CommitPlaceChange(ctx context.Context, accountID uuid.UUID, isFirstChange bool, nextChangeAt int64) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"next_place_change_date": nextChangeAt,
			"updated_at":             time.Now().Unix(),
		}
		if isFirstChange {
			updates["first_place_change_used"] = true
		}

		query := tx.Model(&db_models.Account{}).Where("id = ?", accountID)
		if !isFirstChange {
			query = query.Where("remaining_place_changes > 0")
			updates["remaining_place_changes"] = gorm.Expr("remaining_place_changes - 1")
		}

		res := query.Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (a *accountRepository) ApplyPlanGrant(tx *gorm.DB, accountID uuid.UUID, grant db_models.PlanFeatures) error {
	return tx.Model(&db_models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"subscription_tier":       grant.Tier,
			"subscription_status":     db_models.AccountSubActive,
			"max_places":              grant.MaxPlaces,
			"remaining_place_changes": grant.MonthlyChanges,
			"updated_at":              time.Now().Unix(),
		}).Error
}
