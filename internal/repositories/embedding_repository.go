package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"sajangnote/internal/models/db_models"
)

type EmbeddingRepository interface {
	ReplaceForPlace(ctx context.Context, placeID uuid.UUID, chunks []db_models.PlaceEmbedding) error
	SearchByVector(ctx context.Context, placeID uuid.UUID, vector pgvector.Vector, limit int) ([]db_models.PlaceEmbedding, error)
}

type embeddingRepository struct {
	db *gorm.DB
}

func NewEmbeddingRepository(db *gorm.DB) EmbeddingRepository {
	return &embeddingRepository{db: db}
}

// ReplaceForPlace swaps a place's chunks wholesale: stale chunks from a
// previous crawl must never mix with the new ones.
func (r *embeddingRepository) ReplaceForPlace(ctx context.Context, placeID uuid.UUID, chunks []db_models.PlaceEmbedding) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("place_id = ?", placeID).Delete(&db_models.PlaceEmbedding{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		for i := range chunks {
			if chunks[i].ID == uuid.Nil {
				chunks[i].ID = uuid.New()
			}
			chunks[i].PlaceID = placeID
		}
		return tx.Create(&chunks).Error
	})
}

func (r *embeddingRepository) SearchByVector(ctx context.Context, placeID uuid.UUID, vector pgvector.Vector, limit int) ([]db_models.PlaceEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}
	var results []db_models.PlaceEmbedding

	// Cosine distance; closer to 0 is better.
	query := `
        SELECT * FROM place_embeddings
        WHERE place_id = $1
        ORDER BY embedding <=> $2
        LIMIT $3
    `
	err := r.db.WithContext(ctx).Raw(query, placeID, vector.String(), limit).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
