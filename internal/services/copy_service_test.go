package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sajangnote/internal/models/db_models"
	"sajangnote/internal/models/request_models"
	"sajangnote/pkg/utils"
)

type fakeCopyRepo struct {
	rows map[uuid.UUID]*db_models.MarketingCopy
}

func newFakeCopyRepo() *fakeCopyRepo {
	return &fakeCopyRepo{rows: map[uuid.UUID]*db_models.MarketingCopy{}}
}

func (f *fakeCopyRepo) Create(_ context.Context, c *db_models.MarketingCopy) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.rows[c.ID] = c
	return nil
}

func (f *fakeCopyRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.MarketingCopy, error) {
	return f.rows[id], nil
}

func (f *fakeCopyRepo) ListByPlace(_ context.Context, placeID uuid.UUID) ([]db_models.MarketingCopy, error) {
	var out []db_models.MarketingCopy
	for _, c := range f.rows {
		if c.PlaceID == placeID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCopyRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.rows, id)
	return nil
}

type fakeCopyWriter struct {
	content string
	err     error
	prompts []CopyPrompt
}

func (f *fakeCopyWriter) Write(_ context.Context, prompt CopyPrompt) (string, string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", "", f.err
	}
	return f.content, "test-model", nil
}

type copyFixture struct {
	svc       CopyServiceInterface
	copies    *fakeCopyRepo
	places    *fakePlaceRepo
	embedRepo *fakeEmbeddingRepo
	scraper   *fakeScraper
	writer    *fakeCopyWriter
	accountID uuid.UUID
	place     *db_models.Place
}

func newCopyFixture() *copyFixture {
	f := &copyFixture{
		copies:    newFakeCopyRepo(),
		places:    newFakePlaceRepo(),
		embedRepo: newFakeEmbeddingRepo(),
		scraper:   &fakeScraper{},
		writer:    &fakeCopyWriter{content: "오늘도 신선한 재료로 준비했습니다!"},
		accountID: uuid.New(),
	}
	f.place = f.places.add(&db_models.Place{
		AccountID:       f.accountID,
		ProviderPlaceID: "12345",
		Name:            "모모 식당",
		Status:          db_models.PlaceStatusCompleted,
		CrawledData:     []byte(`{"category":"한식"}`),
	})
	f.svc = NewCopyService(f.copies, f.places, f.embedRepo, &fakeEmbedder{}, f.scraper, f.writer)
	return f
}

func TestGenerateCopyPersistsResult(t *testing.T) {
	f := newCopyFixture()
	f.embedRepo.searched = []db_models.PlaceEmbedding{
		{Chunk: "시그니처 메뉴: 돼지국밥"},
		{Chunk: "주차 2대 가능"},
	}

	resp, err := f.svc.GenerateCopy(context.Background(), f.accountID, request_models.GenerateCopyRequest{
		PlaceID:  f.place.ID,
		CopyType: "sns",
		Tone:     "친근한",
	})
	require.NoError(t, err)

	assert.Equal(t, "오늘도 신선한 재료로 준비했습니다!", resp.Content)
	assert.Equal(t, "test-model", resp.Model)
	assert.Len(t, f.copies.rows, 1)

	require.Len(t, f.writer.prompts, 1)
	prompt := f.writer.prompts[0]
	assert.Equal(t, "모모 식당", prompt.PlaceName)
	assert.Equal(t, "sns", prompt.CopyType)
	assert.Contains(t, prompt.CrawledData, "한식")
	assert.Equal(t, []string{"시그니처 메뉴: 돼지국밥", "주차 2대 가능"}, prompt.Chunks)
}

func TestGenerateCopyCrawlsReferences(t *testing.T) {
	f := newCopyFixture()

	_, err := f.svc.GenerateCopy(context.Background(), f.accountID, request_models.GenerateCopyRequest{
		PlaceID:       f.place.ID,
		CopyType:      "event",
		ReferenceURLs: []string{"https://smartstore.example.com/event/1"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://smartstore.example.com/event/1"}, f.scraper.urls)
	require.Len(t, f.writer.prompts, 1)
	assert.Len(t, f.writer.prompts[0].References, 1)
}

func TestGenerateCopySkipsFailedReferences(t *testing.T) {
	f := newCopyFixture()
	f.scraper.err = errors.New("reference page unreachable")

	resp, err := f.svc.GenerateCopy(context.Background(), f.accountID, request_models.GenerateCopyRequest{
		PlaceID:       f.place.ID,
		CopyType:      "blog",
		ReferenceURLs: []string{"https://dead.example.com"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Content)
	assert.Empty(t, f.writer.prompts[0].References)
}

func TestGenerateCopyRequiresCompletedPlace(t *testing.T) {
	f := newCopyFixture()
	f.place.Status = db_models.PlaceStatusProcessing

	_, err := f.svc.GenerateCopy(context.Background(), f.accountID, request_models.GenerateCopyRequest{
		PlaceID:  f.place.ID,
		CopyType: "sns",
	})
	assert.ErrorIs(t, err, utils.ErrPlaceNotReady)
	assert.Empty(t, f.writer.prompts)
}

func TestGenerateCopyOwnership(t *testing.T) {
	f := newCopyFixture()

	_, err := f.svc.GenerateCopy(context.Background(), uuid.New(), request_models.GenerateCopyRequest{
		PlaceID:  f.place.ID,
		CopyType: "sns",
	})
	assert.ErrorIs(t, err, utils.ErrNotOwner)
}

func TestGenerateCopyWriterFailure(t *testing.T) {
	f := newCopyFixture()
	f.writer.err = errors.New("model quota exceeded")

	_, err := f.svc.GenerateCopy(context.Background(), f.accountID, request_models.GenerateCopyRequest{
		PlaceID:  f.place.ID,
		CopyType: "sns",
	})
	assert.ErrorIs(t, err, utils.ErrCopyGenerationFailed)
	assert.Empty(t, f.copies.rows)
}

func TestListCopiesOwnership(t *testing.T) {
	f := newCopyFixture()
	_ = f.copies.Create(context.Background(), &db_models.MarketingCopy{
		PlaceID:   f.place.ID,
		AccountID: f.accountID,
		CopyType:  db_models.CopyTypeSNS,
		Content:   "문구",
	})

	_, err := f.svc.ListCopies(context.Background(), uuid.New(), f.place.ID)
	assert.ErrorIs(t, err, utils.ErrNotOwner)

	rows, err := f.svc.ListCopies(context.Background(), f.accountID, f.place.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestDeleteCopy(t *testing.T) {
	f := newCopyFixture()
	row := &db_models.MarketingCopy{
		PlaceID:   f.place.ID,
		AccountID: f.accountID,
		CopyType:  db_models.CopyTypeSNS,
	}
	require.NoError(t, f.copies.Create(context.Background(), row))

	err := f.svc.DeleteCopy(context.Background(), uuid.New(), row.ID)
	assert.ErrorIs(t, err, utils.ErrNotOwner)

	require.NoError(t, f.svc.DeleteCopy(context.Background(), f.accountID, row.ID))
	assert.Empty(t, f.copies.rows)
}
