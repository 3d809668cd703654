package place_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"sajangnote/internal/firecrawl"
	"sajangnote/internal/repositories"
	"sajangnote/internal/services"
)

var Module = fx.Provide(
	providePlaceService, providePlaceRepo, provideRefreshLogRepo)

func providePlaceRepo(db *gorm.DB) repositories.PlaceRepository {
	return repositories.NewPlaceRepository(db)
}

func provideRefreshLogRepo(db *gorm.DB) repositories.RefreshLogRepository {
	return repositories.NewRefreshLogRepository(db)
}

func providePlaceService(
	placeRepo repositories.PlaceRepository,
	accountRepo repositories.AccountRepository,
	refreshLogs repositories.RefreshLogRepository,
	scraper firecrawl.Scraper,
	invoker services.AnalysisInvoker,
) services.PlaceServiceInterface {
	return services.NewPlaceService(placeRepo, accountRepo, refreshLogs, scraper, invoker)
}
