package infra

import (
	"os"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sajangnote/internal/models/db_models"
)

func InitPostgresql() *gorm.DB {
	dsn := os.Getenv("POSTGRES_URL")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		log.Warn().Err(err).Msg("could not ensure pgvector extension")
	}

	if err := db.AutoMigrate(
		&db_models.Account{},
		&db_models.Place{},
		&db_models.MarketingCopy{},
		&db_models.PlaceEmbedding{},
		&db_models.RefreshLog{},
		&db_models.Plan{},
		&db_models.Subscription{},
		&db_models.Transaction{},
	); err != nil {
		log.Fatal().Err(err).Msg("auto migration failed")
	}

	return db
}

func ClosePostgresql(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error().Err(err).Msg("error getting database instance")
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("error closing database connection")
	}
}
