package copy_fx

import (
	"os"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"sajangnote/internal/firecrawl"
	"sajangnote/internal/repositories"
	"sajangnote/internal/services"
)

var Module = fx.Provide(
	provideCopyService, provideCopyRepo, provideCopyWriter)

func provideCopyRepo(db *gorm.DB) repositories.CopyRepository {
	return repositories.NewCopyRepository(db)
}

func provideCopyWriter() services.CopyWriter {
	return services.NewOpenAICopyWriter(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_COPY_MODEL"))
}

func provideCopyService(
	copyRepo repositories.CopyRepository,
	placeRepo repositories.PlaceRepository,
	embedRepo repositories.EmbeddingRepository,
	embedder services.Embedder,
	scraper firecrawl.Scraper,
	writer services.CopyWriter,
) services.CopyServiceInterface {
	return services.NewCopyService(copyRepo, placeRepo, embedRepo, embedder, scraper, writer)
}
