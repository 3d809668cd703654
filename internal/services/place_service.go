package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"sajangnote/internal/firecrawl"
	"sajangnote/internal/models/db_models"
	"sajangnote/internal/models/response_models"
	"sajangnote/internal/repositories"
	"sajangnote/pkg/utils"
)

// placeChangeCooldown is how long an account waits between place changes
// once the first free change is spent. Deletion counts as a change.
const placeChangeCooldown = 30 * 24 * time.Hour

const placeURLTemplate = "https://m.place.naver.com/place/%s/home"

type PlaceServiceInterface interface {
	RegisterOrGetPlace(ctx context.Context, accountID uuid.UUID, url string) (*response_models.RegisterPlaceResponse, error)
	GetPlace(ctx context.Context, accountID, placeID uuid.UUID) (*response_models.PlaceResponse, error)
	ListMyPlaces(ctx context.Context, accountID uuid.UUID) ([]response_models.PlaceResponse, error)
	PreparePlaceChange(ctx context.Context, accountID, placeID uuid.UUID, newURL string) (*response_models.ChangePlaceResponse, error)
	CompletePlaceChange(ctx context.Context, accountID, placeID uuid.UUID, isFirstChange bool) error
	RefreshPlace(ctx context.Context, accountID, placeID uuid.UUID) error
	DeletePlace(ctx context.Context, accountID, placeID uuid.UUID) error
}

type PlaceService struct {
	placeRepo   repositories.PlaceRepository
	accountRepo repositories.AccountRepository
	refreshLogs repositories.RefreshLogRepository
	scraper     firecrawl.Scraper
	invoker     AnalysisInvoker
}

func NewPlaceService(
	placeRepo repositories.PlaceRepository,
	accountRepo repositories.AccountRepository,
	refreshLogs repositories.RefreshLogRepository,
	scraper firecrawl.Scraper,
	invoker AnalysisInvoker,
) PlaceServiceInterface {
	return &PlaceService{
		placeRepo:   placeRepo,
		accountRepo: accountRepo,
		refreshLogs: refreshLogs,
		scraper:     scraper,
		invoker:     invoker,
	}
}

// RegisterOrGetPlace is idempotent on (account, provider place id): an
// existing row is returned as-is, with no re-crawl even when its data is
// stale. Only a genuinely new row pays the quota check and the crawl.
func (p *PlaceService) RegisterOrGetPlace(ctx context.Context, accountID uuid.UUID, url string) (*response_models.RegisterPlaceResponse, error) {
	providerID := utils.ExtractProviderPlaceID(url)
	if providerID == "" {
		return nil, utils.ErrInvalidPlaceURL
	}

	existing, err := p.placeRepo.GetByAccountAndProviderID(ctx, accountID, providerID)
	if err != nil {
		log.Error().Err(err).Msg("place lookup failed")
		return nil, utils.ErrDatabaseError
	}
	if existing != nil {
		return &response_models.RegisterPlaceResponse{
			PlaceID: existing.ID.String(),
			Status:  string(existing.Status),
			IsNew:   false,
		}, nil
	}

	account, err := p.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	activeCount, err := p.placeRepo.CountActive(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if !CanRegister(account.MaxPlaces, activeCount) {
		return nil, utils.ErrPlaceLimitExceeded
	}

	place := &db_models.Place{
		AccountID:       accountID,
		ProviderPlaceID: providerID,
		CanonicalURL:    url,
		Status:          db_models.PlaceStatusProcessing,
	}
	placeID, err := p.placeRepo.Create(ctx, place)
	if err != nil {
		log.Error().Err(err).Msg("place insert failed")
		return nil, utils.ErrDatabaseError
	}

	if err := p.crawlAndDispatch(ctx, placeID, url, false); err != nil {
		return nil, err
	}

	return &response_models.RegisterPlaceResponse{
		PlaceID: placeID.String(),
		Status:  string(db_models.PlaceStatusProcessing),
		IsNew:   true,
	}, nil
}

// crawlAndDispatch runs the synchronous crawl and hands the content to the
// analysis worker. Any failure here flips the place to failed with a
// truncated message; the raw provider error only goes to the log.
func (p *PlaceService) crawlAndDispatch(ctx context.Context, placeID uuid.UUID, url string, isRefresh bool) error {
	result, err := p.scraper.Scrape(ctx, url)
	if err != nil {
		log.Error().Err(err).Str("place_id", placeID.String()).Str("url", url).Msg("crawl failed")
		if dbErr := p.placeRepo.MarkFailed(ctx, placeID, utils.TruncateError(err.Error())); dbErr != nil {
			log.Error().Err(dbErr).Str("place_id", placeID.String()).Msg("could not persist crawl failure")
		}
		return utils.ErrCrawlFailed
	}

	job := AnalysisJob{
		PlaceID:   placeID,
		Markdown:  result.Markdown,
		Metadata:  result.Metadata,
		IsRefresh: isRefresh,
	}
	if err := p.invoker.Invoke(job); err != nil {
		log.Error().Err(err).Str("place_id", placeID.String()).Msg("analysis dispatch failed")
		if dbErr := p.placeRepo.MarkFailed(ctx, placeID, utils.TruncateError(err.Error())); dbErr != nil {
			log.Error().Err(dbErr).Str("place_id", placeID.String()).Msg("could not persist dispatch failure")
		}
		return utils.ErrAnalysisDispatchFailed
	}
	return nil
}

func (p *PlaceService) GetPlace(ctx context.Context, accountID, placeID uuid.UUID) (*response_models.PlaceResponse, error) {
	place, err := p.ownedPlace(ctx, accountID, placeID)
	if err != nil {
		return nil, err
	}
	resp := toPlaceResponse(place)
	return &resp, nil
}

func (p *PlaceService) ListMyPlaces(ctx context.Context, accountID uuid.UUID) ([]response_models.PlaceResponse, error) {
	places, err := p.placeRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	responses := make([]response_models.PlaceResponse, 0, len(places))
	for i := range places {
		responses = append(responses, toPlaceResponse(&places[i]))
	}
	return responses, nil
}

// PreparePlaceChange is phase one of the two-phase change. It re-points the
// row and reruns the crawl pipeline but charges nothing; the allowance is
// only spent in CompletePlaceChange once the expensive part has verifiably
// succeeded. A failure here leaves the row failed, pointed at the attempted
// new storefront.
func (p *PlaceService) PreparePlaceChange(ctx context.Context, accountID, placeID uuid.UUID, newURL string) (*response_models.ChangePlaceResponse, error) {
	place, err := p.ownedPlace(ctx, accountID, placeID)
	if err != nil {
		return nil, err
	}
	if place.Status == db_models.PlaceStatusProcessing {
		return nil, utils.ErrAlreadyProcessing
	}

	account, err := p.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}
	if !CanChangeOrDelete(account, time.Now()) {
		return nil, cooldownError(account)
	}

	newProviderID := utils.ExtractProviderPlaceID(newURL)
	if newProviderID == "" {
		return nil, utils.ErrInvalidPlaceURL
	}

	swapped, err := p.placeRepo.PreparePlaceChange(ctx, placeID, newProviderID, newURL)
	if err != nil {
		log.Error().Err(err).Str("place_id", placeID.String()).Msg("prepare place change failed")
		return nil, utils.ErrDatabaseError
	}
	if !swapped {
		// Lost the CAS race against a concurrent lifecycle operation.
		return nil, utils.ErrAlreadyProcessing
	}

	if err := p.crawlAndDispatch(ctx, placeID, newURL, false); err != nil {
		return nil, err
	}

	return &response_models.ChangePlaceResponse{
		PlaceID: placeID.String(),
		Status:  string(db_models.PlaceStatusProcessing),
	}, nil
}

// CompletePlaceChange is phase two: callable only after the crawl+analysis
// pipeline finished, so a failed crawl never costs the user their change.
func (p *PlaceService) CompletePlaceChange(ctx context.Context, accountID, placeID uuid.UUID, isFirstChange bool) error {
	place, err := p.ownedPlace(ctx, accountID, placeID)
	if err != nil {
		return err
	}
	if place.Status != db_models.PlaceStatusCompleted {
		return utils.ErrPlaceNotReady
	}

	account, err := p.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		return utils.ErrAccountNotFound
	}

	// The client's flag is only a hint; the account row decides whether the
	// free first change is still available, so repeating the flag cannot
	// dodge the allowance decrement.
	isFirst := !account.FirstPlaceChangeUsed
	if isFirst != isFirstChange {
		log.Warn().Str("account_id", accountID.String()).Msg("first-change hint disagrees with account state, ignored")
	}

	nextChangeAt := time.Now().Add(placeChangeCooldown).Unix()
	if err := p.accountRepo.CommitPlaceChange(ctx, accountID, isFirst, nextChangeAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrNoChangesLeft
		}
		log.Error().Err(err).Str("account_id", accountID.String()).Msg("commit place change failed")
		return utils.ErrDatabaseError
	}
	return nil
}

// RefreshPlace re-crawls an existing storefront for paying tiers. The
// allowance is charged only after the analysis dispatch succeeds, and a
// failure leaves the row completed (old data stays visible) with the error
// attached. Every attempt is logged.
func (p *PlaceService) RefreshPlace(ctx context.Context, accountID, placeID uuid.UUID) error {
	place, err := p.ownedPlace(ctx, accountID, placeID)
	if err != nil {
		return err
	}

	account, err := p.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		return utils.ErrAccountNotFound
	}
	if account.SubscriptionTier == db_models.TierFree {
		return utils.ErrSubscriptionRequired
	}
	if place.RemainingRefreshes <= 0 {
		return utils.ErrNoRefreshesLeft
	}

	ok, err := p.placeRepo.MarkProcessing(ctx, placeID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		return utils.ErrAlreadyProcessing
	}

	url := place.CanonicalURL
	if url == "" {
		url = fmt.Sprintf(placeURLTemplate, place.ProviderPlaceID)
	}

	result, err := p.scraper.Scrape(ctx, url)
	if err != nil {
		p.finishFailedRefresh(ctx, place, accountID, err)
		return utils.ErrCrawlFailed
	}

	job := AnalysisJob{
		PlaceID:   placeID,
		Markdown:  result.Markdown,
		Metadata:  result.Metadata,
		IsRefresh: true,
	}
	if err := p.invoker.Invoke(job); err != nil {
		p.finishFailedRefresh(ctx, place, accountID, err)
		return utils.ErrAnalysisDispatchFailed
	}

	if err := p.placeRepo.DecrementRefreshes(ctx, placeID); err != nil {
		log.Error().Err(err).Str("place_id", placeID.String()).Msg("could not decrement refresh allowance")
	}
	p.appendRefreshLog(ctx, placeID, accountID, true, "")
	return nil
}

// finishFailedRefresh reuses completed instead of failed so the storefront
// keeps showing its last good data; the allowance is left untouched.
func (p *PlaceService) finishFailedRefresh(ctx context.Context, place *db_models.Place, accountID uuid.UUID, cause error) {
	log.Error().Err(cause).Str("place_id", place.ID.String()).Msg("refresh failed")
	msg := utils.TruncateError(cause.Error())
	if err := p.placeRepo.MarkCompletedWithError(ctx, place.ID, msg); err != nil {
		log.Error().Err(err).Str("place_id", place.ID.String()).Msg("could not persist refresh failure")
	}
	p.appendRefreshLog(ctx, place.ID, accountID, false, msg)
}

func (p *PlaceService) appendRefreshLog(ctx context.Context, placeID, accountID uuid.UUID, success bool, detail string) {
	entry := &db_models.RefreshLog{
		PlaceID:   placeID,
		AccountID: accountID,
		Success:   success,
		Detail:    detail,
	}
	if err := p.refreshLogs.Append(ctx, entry); err != nil {
		log.Error().Err(err).Str("place_id", placeID.String()).Msg("could not append refresh log")
	}
}

// DeletePlace counts as a change for cooldown purposes; dependent copies and
// embeddings go in the same transaction as the place row.
func (p *PlaceService) DeletePlace(ctx context.Context, accountID, placeID uuid.UUID) error {
	if _, err := p.ownedPlace(ctx, accountID, placeID); err != nil {
		return err
	}

	account, err := p.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		return utils.ErrAccountNotFound
	}
	if !CanChangeOrDelete(account, time.Now()) {
		return cooldownError(account)
	}

	if err := p.placeRepo.DeleteCascade(ctx, placeID); err != nil {
		log.Error().Err(err).Str("place_id", placeID.String()).Msg("place delete failed")
		return utils.ErrDatabaseError
	}
	return nil
}

func (p *PlaceService) ownedPlace(ctx context.Context, accountID, placeID uuid.UUID) (*db_models.Place, error) {
	place, err := p.placeRepo.GetByID(ctx, placeID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if place == nil {
		return nil, utils.ErrPlaceNotFound
	}
	// Ownership failures read as not-found so place ids are not probeable.
	if place.AccountID != accountID {
		return nil, utils.ErrNotOwner
	}
	return place, nil
}

func cooldownError(account *db_models.Account) error {
	if account.NextPlaceChangeDate != nil {
		next := utils.FormatRFC3339KST(utils.FromUnixSecondsKST(*account.NextPlaceChangeDate))
		return fmt.Errorf("%w: next change available at %s", utils.ErrChangeCooldown, next)
	}
	return utils.ErrChangeCooldown
}

func toPlaceResponse(place *db_models.Place) response_models.PlaceResponse {
	resp := response_models.PlaceResponse{
		ID:                 place.ID.String(),
		ProviderPlaceID:    place.ProviderPlaceID,
		Name:               place.Name,
		Address:            place.Address,
		CanonicalURL:       place.CanonicalURL,
		Status:             string(place.Status),
		CrawledData:        place.CrawledData,
		RemainingRefreshes: place.RemainingRefreshes,
	}
	if place.ErrorMessage != nil {
		resp.ErrorMessage = *place.ErrorMessage
	}
	if place.LastCrawledAt != nil {
		resp.LastCrawledAt = utils.FormatRFC3339KST(utils.FromUnixSecondsKST(*place.LastCrawledAt))
	}
	return resp
}
