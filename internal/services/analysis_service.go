package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sajangnote/internal/models/db_models"
	"sajangnote/internal/repositories"
	"sajangnote/pkg/utils"
)

// AnalysisJob is the handoff between a request handler and the analysis
// worker. Handlers only learn whether the dispatch itself succeeded; the
// outcome of the analysis lands on the place row and is observed by polling.
type AnalysisJob struct {
	PlaceID   uuid.UUID
	Markdown  string
	Metadata  map[string]interface{}
	IsRefresh bool
}

// AnalysisResult is what the model distills from a crawled page.
type AnalysisResult struct {
	Name        string          `json:"name"`
	Address     string          `json:"address"`
	CrawledData json.RawMessage `json:"crawled_data"`
	// Chunks feed the embedding index used by copy generation.
	Chunks []string `json:"chunks"`
}

// Keywords pulls the keyword list out of the structured payload; they are
// stored alongside each embedding chunk for filtering.
func (r *AnalysisResult) Keywords() []string {
	var payload struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal(r.CrawledData, &payload); err != nil {
		return nil
	}
	return payload.Keywords
}

// PlaceAnalyzer turns crawled markdown into structured place data.
type PlaceAnalyzer interface {
	Analyze(ctx context.Context, job AnalysisJob) (*AnalysisResult, error)
}

// AnalysisInvoker dispatches a job. An error means the dispatch failed; it
// never reports analysis failure, which surfaces on the place row instead.
type AnalysisInvoker interface {
	Invoke(job AnalysisJob) error
}

type AnalysisService struct {
	analyzer  PlaceAnalyzer
	embedder  Embedder
	placeRepo repositories.PlaceRepository
	embedRepo repositories.EmbeddingRepository

	jobs    chan AnalysisJob
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	closed  bool
}

const (
	analysisQueueDepth = 64
	analysisWorkers    = 4
)

func NewAnalysisService(
	analyzer PlaceAnalyzer,
	embedder Embedder,
	placeRepo repositories.PlaceRepository,
	embedRepo repositories.EmbeddingRepository,
) *AnalysisService {
	return &AnalysisService{
		analyzer:  analyzer,
		embedder:  embedder,
		placeRepo: placeRepo,
		embedRepo: embedRepo,
		jobs:      make(chan AnalysisJob, analysisQueueDepth),
	}
}

// Invoke enqueues without blocking. A full queue is a dispatch failure: the
// caller marks the place failed instead of hanging a request on a backlog.
func (s *AnalysisService) Invoke(job AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.started {
		return utils.ErrAnalysisDispatchFailed
	}
	select {
	case s.jobs <- job:
		return nil
	default:
		return utils.ErrAnalysisDispatchFailed
	}
}

func (s *AnalysisService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	for i := 0; i < analysisWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// Stop drains queued jobs before returning; in-flight analyses finish.
func (s *AnalysisService) Stop() {
	s.mu.Lock()
	if s.closed || !s.started {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *AnalysisService) worker() {
	defer s.wg.Done()
	for job := range s.jobs {
		s.runJob(job)
	}
}

// runJob isolates one job. Workers run outside the request path where no
// middleware catches panics, so a panicking analyzer must not take the
// process down; the place is marked failed and the worker moves on.
func (s *AnalysisService) runJob(job AnalysisJob) {
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("place_id", job.PlaceID.String()).Msg("analysis worker panicked")
			msg := utils.TruncateError(fmt.Sprintf("analysis aborted: %v", r))
			if dbErr := s.placeRepo.MarkFailed(ctx, job.PlaceID, msg); dbErr != nil {
				log.Error().Err(dbErr).Str("place_id", job.PlaceID.String()).Msg("could not persist analysis abort")
			}
		}
	}()
	s.process(ctx, job)
}

func (s *AnalysisService) process(ctx context.Context, job AnalysisJob) {
	result, err := s.analyzer.Analyze(ctx, job)
	if err != nil {
		log.Error().Err(err).Str("place_id", job.PlaceID.String()).Msg("place analysis failed")
		if dbErr := s.placeRepo.MarkFailed(ctx, job.PlaceID, utils.TruncateError(err.Error())); dbErr != nil {
			log.Error().Err(dbErr).Str("place_id", job.PlaceID.String()).Msg("could not persist analysis failure")
		}
		return
	}

	if err := s.placeRepo.ApplyAnalysis(ctx, job.PlaceID, result.Name, result.Address, result.CrawledData, !job.IsRefresh); err != nil {
		log.Error().Err(err).Str("place_id", job.PlaceID.String()).Msg("could not persist analysis result")
		return
	}

	s.indexChunks(ctx, job.PlaceID, result.Chunks, result.Keywords())
}

// indexChunks is best-effort: a failed embedding pass never fails the place.
func (s *AnalysisService) indexChunks(ctx context.Context, placeID uuid.UUID, chunks, keywords []string) {
	if len(chunks) == 0 || s.embedder == nil {
		return
	}
	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil || len(vectors) != len(chunks) {
		log.Warn().Err(err).Str("place_id", placeID.String()).Msg("embedding pass skipped")
		return
	}
	rows := make([]db_models.PlaceEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		rows = append(rows, db_models.PlaceEmbedding{
			Chunk:     chunk,
			Keywords:  keywords,
			Embedding: vectors[i],
		})
	}
	if err := s.embedRepo.ReplaceForPlace(ctx, placeID, rows); err != nil {
		log.Warn().Err(err).Str("place_id", placeID.String()).Msg("could not store embeddings")
	}
}
