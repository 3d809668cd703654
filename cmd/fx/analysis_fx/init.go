package analysis_fx

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"sajangnote/internal/repositories"
	"sajangnote/internal/services"
)

var Module = fx.Options(
	fx.Provide(
		provideEmbeddingRepo,
		provideAnalyzer,
		provideEmbedder,
		provideAnalysisService,
		provideInvoker,
	),
)

func provideEmbeddingRepo(db *gorm.DB) repositories.EmbeddingRepository {
	return repositories.NewEmbeddingRepository(db)
}

func provideAnalyzer() services.PlaceAnalyzer {
	analyzer, err := services.NewGeminiAnalyzer(context.Background(), os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"))
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize gemini analyzer")
	}
	return analyzer
}

func provideEmbedder() services.Embedder {
	return services.NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"))
}

func provideAnalysisService(
	lc fx.Lifecycle,
	analyzer services.PlaceAnalyzer,
	embedder services.Embedder,
	placeRepo repositories.PlaceRepository,
	embedRepo repositories.EmbeddingRepository,
) *services.AnalysisService {
	svc := services.NewAnalysisService(analyzer, embedder, placeRepo, embedRepo)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			svc.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			svc.Stop()
			return nil
		},
	})
	return svc
}

func provideInvoker(svc *services.AnalysisService) services.AnalysisInvoker {
	return svc
}
