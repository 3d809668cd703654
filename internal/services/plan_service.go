package services

import (
	"context"

	"sajangnote/internal/models/response_models"
	"sajangnote/internal/repositories"
	"sajangnote/pkg/utils"
)

type PlanServiceInterface interface {
	ListPlans(ctx context.Context) ([]response_models.PlanResponse, error)
}

type PlanService struct {
	planRepo repositories.PlanRepository
}

func NewPlanService(planRepo repositories.PlanRepository) PlanServiceInterface {
	return &PlanService{planRepo: planRepo}
}

func (p *PlanService) ListPlans(ctx context.Context) ([]response_models.PlanResponse, error) {
	plans, err := p.planRepo.ListActive(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	responses := make([]response_models.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		resp := response_models.PlanResponse{
			Code:      plan.Code,
			Name:      plan.Name,
			Period:    string(plan.Period),
			Price:     plan.PriceMinor,
			Currency:  plan.Currency,
			TrialDays: plan.TrialDays,
		}
		if plan.Description != nil {
			resp.Description = *plan.Description
		}
		responses = append(responses, resp)
	}
	return responses, nil
}
