package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sajangnote/internal/models/db_models"
	"sajangnote/internal/models/request_models"
	"sajangnote/internal/models/response_models"
	"sajangnote/internal/repositories"
	"sajangnote/pkg/utils"
)

type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, request request_models.SignUpRequest) error
	Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error)
	GetMe(ctx context.Context, accountID uuid.UUID) (*response_models.AccountResponse, error)
}

type AccountService struct {
	accountRepo repositories.AccountRepository
}

func NewAccountService(accountRepo repositories.AccountRepository) AccountServiceInterface {
	return &AccountService{accountRepo: accountRepo}
}

func (a *AccountService) CreateAccount(ctx context.Context, request request_models.SignUpRequest) error {
	existing, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if existing != nil {
		return utils.ErrEmailAlreadyExists
	}

	hashed, err := utils.HashPassword(request.Password)
	if err != nil {
		log.Error().Err(err).Msg("password hashing failed")
		return utils.ErrDatabaseError
	}

	account := &db_models.Account{
		Name:               request.DisplayName,
		Email:              request.Email,
		PasswordHash:       hashed,
		Role:               "user",
		SubscriptionTier:   db_models.TierFree,
		SubscriptionStatus: db_models.AccountSubNone,
		MaxPlaces:          1,
	}
	if err := a.accountRepo.Insert(ctx, account); err != nil {
		log.Error().Err(err).Msg("account insert failed")
		return utils.ErrDatabaseError
	}
	return nil
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error) {
	account, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(account.PasswordHash, request.Password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	token, err := utils.CreateToken(account.ID, account.Role, string(account.SubscriptionTier))
	if err != nil {
		log.Error().Err(err).Msg("token creation failed")
		return nil, utils.ErrInvalidCredentials
	}

	return &response_models.AccountLoginResponse{
		Token:            token,
		SubscriptionTier: string(account.SubscriptionTier),
	}, nil
}

func (a *AccountService) GetMe(ctx context.Context, accountID uuid.UUID) (*response_models.AccountResponse, error) {
	account, err := a.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	resp := &response_models.AccountResponse{
		ID:                    account.ID.String(),
		Name:                  account.Name,
		Email:                 account.Email,
		SubscriptionTier:      string(account.SubscriptionTier),
		SubscriptionStatus:    string(account.SubscriptionStatus),
		MaxPlaces:             account.MaxPlaces,
		RemainingPlaceChanges: account.RemainingPlaceChanges,
		FirstPlaceChangeUsed:  account.FirstPlaceChangeUsed,
	}
	if account.NextPlaceChangeDate != nil {
		resp.NextPlaceChangeDate = utils.FormatRFC3339KST(utils.FromUnixSecondsKST(*account.NextPlaceChangeDate))
	}
	return resp, nil
}
