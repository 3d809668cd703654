package plan_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"sajangnote/internal/repositories"
	"sajangnote/internal/services"
)

var Module = fx.Provide(
	providePlanService, providePlanRepo)

func providePlanRepo(db *gorm.DB) repositories.PlanRepository {
	return repositories.NewPlanRepository(db)
}

func providePlanService(planRepo repositories.PlanRepository) services.PlanServiceInterface {
	return services.NewPlanService(planRepo)
}
