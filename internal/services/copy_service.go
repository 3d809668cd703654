package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sajangnote/internal/firecrawl"
	"sajangnote/internal/models/db_models"
	"sajangnote/internal/models/request_models"
	"sajangnote/internal/models/response_models"
	"sajangnote/internal/repositories"
	"sajangnote/pkg/utils"
)

// CopyPrompt is everything the writer model gets: the analyzed place data,
// retrieved content chunks and any cleaned reference pages.
type CopyPrompt struct {
	CopyType    string
	Tone        string
	PlaceName   string
	CrawledData string
	Chunks      []string
	References  []string
}

// CopyWriter generates the final text. *OpenAICopyWriter in production.
type CopyWriter interface {
	Write(ctx context.Context, prompt CopyPrompt) (content string, model string, err error)
}

type CopyServiceInterface interface {
	GenerateCopy(ctx context.Context, accountID uuid.UUID, req request_models.GenerateCopyRequest) (*response_models.CopyResponse, error)
	ListCopies(ctx context.Context, accountID, placeID uuid.UUID) ([]response_models.CopyResponse, error)
	DeleteCopy(ctx context.Context, accountID, copyID uuid.UUID) error
}

type CopyService struct {
	copyRepo  repositories.CopyRepository
	placeRepo repositories.PlaceRepository
	embedRepo repositories.EmbeddingRepository
	embedder  Embedder
	scraper   firecrawl.Scraper
	writer    CopyWriter
}

func NewCopyService(
	copyRepo repositories.CopyRepository,
	placeRepo repositories.PlaceRepository,
	embedRepo repositories.EmbeddingRepository,
	embedder Embedder,
	scraper firecrawl.Scraper,
	writer CopyWriter,
) CopyServiceInterface {
	return &CopyService{
		copyRepo:  copyRepo,
		placeRepo: placeRepo,
		embedRepo: embedRepo,
		embedder:  embedder,
		scraper:   scraper,
		writer:    writer,
	}
}

func (s *CopyService) GenerateCopy(ctx context.Context, accountID uuid.UUID, req request_models.GenerateCopyRequest) (*response_models.CopyResponse, error) {
	place, err := s.placeRepo.GetByID(ctx, req.PlaceID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if place == nil {
		return nil, utils.ErrPlaceNotFound
	}
	if place.AccountID != accountID {
		return nil, utils.ErrNotOwner
	}
	if place.Status != db_models.PlaceStatusCompleted {
		return nil, utils.ErrPlaceNotReady
	}

	references := s.crawlReferences(ctx, req.ReferenceURLs)
	chunks := s.retrieveChunks(ctx, place, req)

	prompt := CopyPrompt{
		CopyType:    req.CopyType,
		Tone:        req.Tone,
		PlaceName:   place.Name,
		CrawledData: string(place.CrawledData),
		Chunks:      chunks,
		References:  references,
	}

	content, model, err := s.writer.Write(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Str("place_id", place.ID.String()).Msg("copy generation failed")
		return nil, utils.ErrCopyGenerationFailed
	}

	promptCtx, _ := json.Marshal(map[string]interface{}{
		"reference_urls":  req.ReferenceURLs,
		"retrieved_count": len(chunks),
	})

	row := &db_models.MarketingCopy{
		PlaceID:       place.ID,
		AccountID:     accountID,
		CopyType:      db_models.CopyType(req.CopyType),
		Tone:          req.Tone,
		Content:       content,
		Model:         model,
		PromptContext: promptCtx,
	}
	if err := s.copyRepo.Create(ctx, row); err != nil {
		log.Error().Err(err).Msg("could not persist generated copy")
		return nil, utils.ErrDatabaseError
	}

	resp := toCopyResponse(row)
	return &resp, nil
}

// crawlReferences fetches optional extra pages through the same scrape
// provider and runs them through the markdown cleaner. A failed reference is
// skipped, not fatal: the main place data is already in the prompt.
func (s *CopyService) crawlReferences(ctx context.Context, urls []string) []string {
	var cleaned []string
	for _, u := range urls {
		result, err := s.scraper.Scrape(ctx, u)
		if err != nil {
			log.Warn().Err(err).Str("url", u).Msg("reference crawl skipped")
			continue
		}
		if text := utils.CleanMarkdown(result.Markdown); text != "" {
			cleaned = append(cleaned, text)
		}
	}
	return cleaned
}

// retrieveChunks pulls the most relevant stored content for this copy type.
// Best-effort: with no embeddings the writer still has crawled_data.
func (s *CopyService) retrieveChunks(ctx context.Context, place *db_models.Place, req request_models.GenerateCopyRequest) []string {
	if s.embedder == nil {
		return nil
	}
	query := fmt.Sprintf("%s %s %s", place.Name, req.CopyType, req.Tone)
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		log.Warn().Err(err).Msg("retrieval query embedding skipped")
		return nil
	}
	rows, err := s.embedRepo.SearchByVector(ctx, place.ID, vectors[0], 5)
	if err != nil {
		log.Warn().Err(err).Msg("chunk retrieval skipped")
		return nil
	}
	chunks := make([]string, 0, len(rows))
	for _, r := range rows {
		chunks = append(chunks, r.Chunk)
	}
	return chunks
}

func (s *CopyService) ListCopies(ctx context.Context, accountID, placeID uuid.UUID) ([]response_models.CopyResponse, error) {
	place, err := s.placeRepo.GetByID(ctx, placeID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if place == nil {
		return nil, utils.ErrPlaceNotFound
	}
	if place.AccountID != accountID {
		return nil, utils.ErrNotOwner
	}

	rows, err := s.copyRepo.ListByPlace(ctx, placeID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	responses := make([]response_models.CopyResponse, 0, len(rows))
	for i := range rows {
		responses = append(responses, toCopyResponse(&rows[i]))
	}
	return responses, nil
}

func (s *CopyService) DeleteCopy(ctx context.Context, accountID, copyID uuid.UUID) error {
	row, err := s.copyRepo.GetByID(ctx, copyID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if row == nil {
		return utils.ErrPlaceNotFound
	}
	if row.AccountID != accountID {
		return utils.ErrNotOwner
	}
	if err := s.copyRepo.Delete(ctx, copyID); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}

func toCopyResponse(row *db_models.MarketingCopy) response_models.CopyResponse {
	return response_models.CopyResponse{
		ID:        row.ID.String(),
		PlaceID:   row.PlaceID.String(),
		CopyType:  string(row.CopyType),
		Tone:      row.Tone,
		Content:   row.Content,
		Model:     row.Model,
		CreatedAt: utils.FormatRFC3339KST(utils.FromUnixSecondsKST(row.CreatedAt)),
	}
}
