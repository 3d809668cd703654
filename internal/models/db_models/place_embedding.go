package db_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PlaceEmbedding is one chunk of a place's crawled content with its vector.
// Chunks are replaced wholesale after every successful analysis and cosine
// searched when grounding copy generation.
type PlaceEmbedding struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PlaceID   uuid.UUID       `gorm:"index;column:place_id"`
	Chunk     string          `gorm:"type:text"`
	Keywords  pq.StringArray  `gorm:"type:text[]"`
	Embedding pgvector.Vector `gorm:"type:vector(1536)"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}
