package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sajangnote/internal/firecrawl"
	"sajangnote/internal/models/db_models"
	"sajangnote/pkg/utils"
)

// ---- fakes shared by the service tests in this package ----

// fakePlaceRepo is shared with the analysis worker tests, which hit it from
// several goroutines, hence the mutex.
type fakePlaceRepo struct {
	mu     sync.Mutex
	places map[uuid.UUID]*db_models.Place

	prepareSwapOK bool
	prepareCalls  int
	decrements    int
	cascadeCalls  int
}

func newFakePlaceRepo() *fakePlaceRepo {
	return &fakePlaceRepo{places: map[uuid.UUID]*db_models.Place{}, prepareSwapOK: true}
}

func (f *fakePlaceRepo) add(p *db_models.Place) *db_models.Place {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.places[p.ID] = p
	return p
}

func (f *fakePlaceRepo) Create(_ context.Context, place *db_models.Place) (uuid.UUID, error) {
	f.add(place)
	return place.ID, nil
}

func (f *fakePlaceRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.Place, error) {
	return f.places[id], nil
}

func (f *fakePlaceRepo) GetByAccountAndProviderID(_ context.Context, accountID uuid.UUID, providerID string) (*db_models.Place, error) {
	for _, p := range f.places {
		if p.AccountID == accountID && p.ProviderPlaceID == providerID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePlaceRepo) ListByAccount(_ context.Context, accountID uuid.UUID) ([]db_models.Place, error) {
	var out []db_models.Place
	for _, p := range f.places {
		if p.AccountID == accountID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePlaceRepo) CountActive(_ context.Context, accountID uuid.UUID) (int64, error) {
	var n int64
	for _, p := range f.places {
		if p.AccountID == accountID && p.Status != db_models.PlaceStatusFailed {
			n++
		}
	}
	return n, nil
}

func (f *fakePlaceRepo) MarkProcessing(_ context.Context, id uuid.UUID) (bool, error) {
	p := f.places[id]
	if p == nil || p.Status == db_models.PlaceStatusProcessing {
		return false, nil
	}
	p.Status = db_models.PlaceStatusProcessing
	return true, nil
}

func (f *fakePlaceRepo) MarkCompleted(_ context.Context, id uuid.UUID) error {
	f.places[id].Status = db_models.PlaceStatusCompleted
	return nil
}

func (f *fakePlaceRepo) ApplyAnalysis(_ context.Context, id uuid.UUID, name, address string, crawledData []byte, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.places[id]
	p.Name = name
	p.Address = address
	p.CrawledData = crawledData
	p.Status = db_models.PlaceStatusCompleted
	p.ErrorMessage = nil
	return nil
}

func (f *fakePlaceRepo) MarkFailed(_ context.Context, id uuid.UUID, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.places[id]
	p.Status = db_models.PlaceStatusFailed
	p.ErrorMessage = &errorMessage
	return nil
}

func (f *fakePlaceRepo) MarkCompletedWithError(_ context.Context, id uuid.UUID, errorMessage string) error {
	p := f.places[id]
	p.Status = db_models.PlaceStatusCompleted
	p.ErrorMessage = &errorMessage
	return nil
}

func (f *fakePlaceRepo) PreparePlaceChange(_ context.Context, id uuid.UUID, newProviderID, newURL string) (bool, error) {
	f.prepareCalls++
	if !f.prepareSwapOK {
		return false, nil
	}
	p := f.places[id]
	p.ProviderPlaceID = newProviderID
	p.CanonicalURL = newURL
	p.Status = db_models.PlaceStatusProcessing
	return true, nil
}

func (f *fakePlaceRepo) DecrementRefreshes(_ context.Context, id uuid.UUID) error {
	f.decrements++
	if p := f.places[id]; p != nil && p.RemainingRefreshes > 0 {
		p.RemainingRefreshes--
	}
	return nil
}

func (f *fakePlaceRepo) SetRemainingRefreshes(_ *gorm.DB, _ uuid.UUID, _ int) error {
	return nil
}

func (f *fakePlaceRepo) DeleteCascade(_ context.Context, id uuid.UUID) error {
	f.cascadeCalls++
	delete(f.places, id)
	return nil
}

type fakeAccountRepo struct {
	account     *db_models.Account
	commitErr   error
	commitCalls int
	lastFirst   bool
}

func (f *fakeAccountRepo) Insert(_ context.Context, _ *db_models.Account) error { return nil }

func (f *fakeAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*db_models.Account, error) {
	if f.account != nil && f.account.ID == id {
		return f.account, nil
	}
	return nil, nil
}

func (f *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*db_models.Account, error) {
	if f.account != nil && f.account.Email == email {
		return f.account, nil
	}
	return nil, nil
}

func (f *fakeAccountRepo) CommitPlaceChange(_ context.Context, _ uuid.UUID, isFirstChange bool, _ int64) error {
	f.commitCalls++
	f.lastFirst = isFirstChange
	return f.commitErr
}

func (f *fakeAccountRepo) ApplyPlanGrant(_ *gorm.DB, _ uuid.UUID, _ db_models.PlanFeatures) error {
	return nil
}

type fakeRefreshLogRepo struct {
	entries []db_models.RefreshLog
}

func (f *fakeRefreshLogRepo) Append(_ context.Context, entry *db_models.RefreshLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeRefreshLogRepo) CountSince(_ context.Context, _ uuid.UUID, _ int64) (int64, error) {
	return int64(len(f.entries)), nil
}

type fakeScraper struct {
	result *firecrawl.ScrapeResult
	err    error
	urls   []string
}

func (f *fakeScraper) Scrape(_ context.Context, url string) (*firecrawl.ScrapeResult, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &firecrawl.ScrapeResult{
		Markdown: "# 가게",
		Metadata: map[string]interface{}{"title": "가게"},
	}, nil
}

type fakeInvoker struct {
	err  error
	jobs []AnalysisJob
}

func (f *fakeInvoker) Invoke(job AnalysisJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type placeFixture struct {
	svc      PlaceServiceInterface
	places   *fakePlaceRepo
	accounts *fakeAccountRepo
	logs     *fakeRefreshLogRepo
	scraper  *fakeScraper
	invoker  *fakeInvoker
	account  *db_models.Account
}

func newPlaceFixture() *placeFixture {
	account := &db_models.Account{
		Name:             "홍길동",
		Email:            "owner@example.com",
		SubscriptionTier: db_models.TierFree,
		MaxPlaces:        1,
	}
	account.ID = uuid.New()

	f := &placeFixture{
		places:   newFakePlaceRepo(),
		accounts: &fakeAccountRepo{account: account},
		logs:     &fakeRefreshLogRepo{},
		scraper:  &fakeScraper{},
		invoker:  &fakeInvoker{},
		account:  account,
	}
	f.svc = NewPlaceService(f.places, f.accounts, f.logs, f.scraper, f.invoker)
	return f
}

func (f *placeFixture) addCompletedPlace(providerID string) *db_models.Place {
	p := &db_models.Place{
		AccountID:       f.account.ID,
		ProviderPlaceID: providerID,
		CanonicalURL:    "https://m.place.naver.com/restaurant/" + providerID,
		Status:          db_models.PlaceStatusCompleted,
	}
	return f.places.add(p)
}

// ---- RegisterOrGetPlace ----

func TestRegisterOrGetPlaceNew(t *testing.T) {
	f := newPlaceFixture()

	resp, err := f.svc.RegisterOrGetPlace(context.Background(), f.account.ID, "https://m.place.naver.com/restaurant/12345")
	require.NoError(t, err)

	assert.True(t, resp.IsNew)
	assert.Equal(t, string(db_models.PlaceStatusProcessing), resp.Status)

	placeID := uuid.MustParse(resp.PlaceID)
	stored := f.places.places[placeID]
	require.NotNil(t, stored)
	assert.Equal(t, "12345", stored.ProviderPlaceID)

	require.Len(t, f.invoker.jobs, 1)
	assert.Equal(t, placeID, f.invoker.jobs[0].PlaceID)
	assert.False(t, f.invoker.jobs[0].IsRefresh)
}

func TestRegisterOrGetPlaceInvalidURL(t *testing.T) {
	f := newPlaceFixture()

	_, err := f.svc.RegisterOrGetPlace(context.Background(), f.account.ID, "https://example.com/")
	assert.ErrorIs(t, err, utils.ErrInvalidPlaceURL)
	assert.Empty(t, f.places.places)
	assert.Empty(t, f.scraper.urls)
}

func TestRegisterOrGetPlaceIdempotent(t *testing.T) {
	f := newPlaceFixture()
	existing := f.addCompletedPlace("12345")

	resp, err := f.svc.RegisterOrGetPlace(context.Background(), f.account.ID, "https://m.place.naver.com/restaurant/12345")
	require.NoError(t, err)

	assert.False(t, resp.IsNew)
	assert.Equal(t, existing.ID.String(), resp.PlaceID)
	assert.Equal(t, string(db_models.PlaceStatusCompleted), resp.Status)
	// No re-crawl for an already-registered storefront.
	assert.Empty(t, f.scraper.urls)
	assert.Empty(t, f.invoker.jobs)
}

func TestRegisterOrGetPlaceLimitExceeded(t *testing.T) {
	f := newPlaceFixture()
	f.addCompletedPlace("11111")

	_, err := f.svc.RegisterOrGetPlace(context.Background(), f.account.ID, "https://m.place.naver.com/restaurant/22222")
	assert.ErrorIs(t, err, utils.ErrPlaceLimitExceeded)
	assert.Len(t, f.places.places, 1)
	assert.Empty(t, f.scraper.urls)
}

func TestRegisterOrGetPlaceFailedPlacesDoNotCount(t *testing.T) {
	f := newPlaceFixture()
	failed := f.addCompletedPlace("11111")
	failed.Status = db_models.PlaceStatusFailed

	resp, err := f.svc.RegisterOrGetPlace(context.Background(), f.account.ID, "https://m.place.naver.com/restaurant/22222")
	require.NoError(t, err)
	assert.True(t, resp.IsNew)
}

func TestRegisterOrGetPlaceCrawlFailure(t *testing.T) {
	f := newPlaceFixture()
	f.scraper.err = &firecrawl.CrawlError{StatusCode: 403, Message: strings.Repeat("금지된 요청 ", 60)}

	_, err := f.svc.RegisterOrGetPlace(context.Background(), f.account.ID, "https://m.place.naver.com/restaurant/12345")
	assert.ErrorIs(t, err, utils.ErrCrawlFailed)

	require.Len(t, f.places.places, 1)
	for _, p := range f.places.places {
		assert.Equal(t, db_models.PlaceStatusFailed, p.Status)
		require.NotNil(t, p.ErrorMessage)
		assert.LessOrEqual(t, len([]rune(*p.ErrorMessage)), 255)
	}
	assert.Empty(t, f.invoker.jobs)
}

func TestRegisterOrGetPlaceDispatchFailure(t *testing.T) {
	f := newPlaceFixture()
	f.invoker.err = utils.ErrAnalysisDispatchFailed

	_, err := f.svc.RegisterOrGetPlace(context.Background(), f.account.ID, "https://m.place.naver.com/restaurant/12345")
	assert.ErrorIs(t, err, utils.ErrAnalysisDispatchFailed)

	for _, p := range f.places.places {
		assert.Equal(t, db_models.PlaceStatusFailed, p.Status)
	}
}

// ---- ownership ----

func TestGetPlaceOwnership(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")

	_, err := f.svc.GetPlace(context.Background(), uuid.New(), place.ID)
	assert.ErrorIs(t, err, utils.ErrNotOwner)

	_, err = f.svc.GetPlace(context.Background(), f.account.ID, uuid.New())
	assert.ErrorIs(t, err, utils.ErrPlaceNotFound)

	resp, err := f.svc.GetPlace(context.Background(), f.account.ID, place.ID)
	require.NoError(t, err)
	assert.Equal(t, place.ID.String(), resp.ID)
}

// ---- PreparePlaceChange / CompletePlaceChange ----

func TestPreparePlaceChangeRepointsWithoutCharging(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")

	resp, err := f.svc.PreparePlaceChange(context.Background(), f.account.ID, place.ID, "https://m.place.naver.com/cafe/67890")
	require.NoError(t, err)

	assert.Equal(t, string(db_models.PlaceStatusProcessing), resp.Status)
	assert.Equal(t, "67890", place.ProviderPlaceID)
	// Phase one never touches the change allowance.
	assert.Zero(t, f.accounts.commitCalls)
	require.Len(t, f.invoker.jobs, 1)
}

func TestPreparePlaceChangeWhileProcessing(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")
	place.Status = db_models.PlaceStatusProcessing

	_, err := f.svc.PreparePlaceChange(context.Background(), f.account.ID, place.ID, "https://m.place.naver.com/cafe/67890")
	assert.ErrorIs(t, err, utils.ErrAlreadyProcessing)
	assert.Zero(t, f.places.prepareCalls)
}

func TestPreparePlaceChangeCooldownActive(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")
	future := time.Now().Add(10 * 24 * time.Hour).Unix()
	f.account.FirstPlaceChangeUsed = true
	f.account.NextPlaceChangeDate = &future

	_, err := f.svc.PreparePlaceChange(context.Background(), f.account.ID, place.ID, "https://m.place.naver.com/cafe/67890")
	assert.ErrorIs(t, err, utils.ErrChangeCooldown)
	assert.Contains(t, err.Error(), "next change available at")
	assert.Zero(t, f.places.prepareCalls)
}

func TestPreparePlaceChangeLosesRace(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")
	f.places.prepareSwapOK = false

	_, err := f.svc.PreparePlaceChange(context.Background(), f.account.ID, place.ID, "https://m.place.naver.com/cafe/67890")
	assert.ErrorIs(t, err, utils.ErrAlreadyProcessing)
	assert.Empty(t, f.invoker.jobs)
}

func TestCompletePlaceChangeBeforeAnalysisDone(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")
	place.Status = db_models.PlaceStatusProcessing

	err := f.svc.CompletePlaceChange(context.Background(), f.account.ID, place.ID, true)
	assert.ErrorIs(t, err, utils.ErrPlaceNotReady)
	assert.Zero(t, f.accounts.commitCalls)
}

func TestCompletePlaceChangeSuccess(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")

	err := f.svc.CompletePlaceChange(context.Background(), f.account.ID, place.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, f.accounts.commitCalls)
	assert.True(t, f.accounts.lastFirst)
}

func TestCompletePlaceChangeFirstFlagComesFromAccount(t *testing.T) {
	t.Run("spent first change cannot be replayed by the client", func(t *testing.T) {
		f := newPlaceFixture()
		place := f.addCompletedPlace("12345")
		f.account.FirstPlaceChangeUsed = true

		err := f.svc.CompletePlaceChange(context.Background(), f.account.ID, place.ID, true)
		require.NoError(t, err)
		assert.Equal(t, 1, f.accounts.commitCalls)
		// The allowance decrement path runs regardless of the request flag.
		assert.False(t, f.accounts.lastFirst)
	})

	t.Run("unspent first change applies even when the client omits it", func(t *testing.T) {
		f := newPlaceFixture()
		place := f.addCompletedPlace("12345")

		err := f.svc.CompletePlaceChange(context.Background(), f.account.ID, place.ID, false)
		require.NoError(t, err)
		assert.True(t, f.accounts.lastFirst)
	})
}

func TestCompletePlaceChangeNoAllowanceLeft(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")
	f.accounts.commitErr = gorm.ErrRecordNotFound

	err := f.svc.CompletePlaceChange(context.Background(), f.account.ID, place.ID, false)
	assert.ErrorIs(t, err, utils.ErrNoChangesLeft)
}

// ---- RefreshPlace ----

func TestRefreshPlaceFreeTier(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")
	place.RemainingRefreshes = 3

	err := f.svc.RefreshPlace(context.Background(), f.account.ID, place.ID)
	assert.ErrorIs(t, err, utils.ErrSubscriptionRequired)
}

func TestRefreshPlaceNoAllowance(t *testing.T) {
	f := newPlaceFixture()
	f.account.SubscriptionTier = db_models.TierBasic
	place := f.addCompletedPlace("12345")

	err := f.svc.RefreshPlace(context.Background(), f.account.ID, place.ID)
	assert.ErrorIs(t, err, utils.ErrNoRefreshesLeft)
}

func TestRefreshPlaceSuccessChargesAndLogs(t *testing.T) {
	f := newPlaceFixture()
	f.account.SubscriptionTier = db_models.TierBasic
	place := f.addCompletedPlace("12345")
	place.RemainingRefreshes = 3

	err := f.svc.RefreshPlace(context.Background(), f.account.ID, place.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, f.places.decrements)
	require.Len(t, f.invoker.jobs, 1)
	assert.True(t, f.invoker.jobs[0].IsRefresh)
	require.Len(t, f.logs.entries, 1)
	assert.True(t, f.logs.entries[0].Success)
}

func TestRefreshPlaceCrawlFailureKeepsOldData(t *testing.T) {
	f := newPlaceFixture()
	f.account.SubscriptionTier = db_models.TierPremium
	place := f.addCompletedPlace("12345")
	place.RemainingRefreshes = 2
	f.scraper.err = &firecrawl.CrawlError{StatusCode: 500, Message: "boom"}

	err := f.svc.RefreshPlace(context.Background(), f.account.ID, place.ID)
	assert.ErrorIs(t, err, utils.ErrCrawlFailed)

	// The row stays completed so the old data remains visible, the error is
	// attached, and no allowance is spent.
	assert.Equal(t, db_models.PlaceStatusCompleted, place.Status)
	require.NotNil(t, place.ErrorMessage)
	assert.Zero(t, f.places.decrements)
	assert.Equal(t, 2, place.RemainingRefreshes)

	require.Len(t, f.logs.entries, 1)
	assert.False(t, f.logs.entries[0].Success)
}

func TestRefreshPlaceWhileProcessing(t *testing.T) {
	f := newPlaceFixture()
	f.account.SubscriptionTier = db_models.TierBasic
	place := f.addCompletedPlace("12345")
	place.RemainingRefreshes = 1
	place.Status = db_models.PlaceStatusProcessing

	err := f.svc.RefreshPlace(context.Background(), f.account.ID, place.ID)
	assert.ErrorIs(t, err, utils.ErrAlreadyProcessing)
}

// ---- DeletePlace ----

func TestDeletePlaceCascades(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")

	err := f.svc.DeletePlace(context.Background(), f.account.ID, place.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.places.cascadeCalls)
	assert.Empty(t, f.places.places)
}

func TestDeletePlaceBlockedByCooldown(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")
	future := time.Now().Add(24 * time.Hour).Unix()
	f.account.FirstPlaceChangeUsed = true
	f.account.NextPlaceChangeDate = &future

	err := f.svc.DeletePlace(context.Background(), f.account.ID, place.ID)
	assert.ErrorIs(t, err, utils.ErrChangeCooldown)
	assert.Zero(t, f.places.cascadeCalls)
}

func TestDeletePlaceNotOwner(t *testing.T) {
	f := newPlaceFixture()
	place := f.addCompletedPlace("12345")

	err := f.svc.DeletePlace(context.Background(), uuid.New(), place.ID)
	assert.ErrorIs(t, err, utils.ErrNotOwner)
	assert.Zero(t, f.places.cascadeCalls)
}
