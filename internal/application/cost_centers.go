package application

import (
	"context"
	"strings"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
)

type CostCenterService struct {
	repo      domain.CostCenterRepository
	validator *Validator
}

func NewCostCenterService(repo domain.CostCenterRepository, validator *Validator) *CostCenterService {
	return &CostCenterService{repo: repo, validator: validator}
}

func (s *CostCenterService) List(ctx context.Context, filter domain.CostCenterFilter, page domain.PageRequest) (domain.Page[domain.CostCenter], error) {
	return s.repo.ListCostCenters(ctx, filter, page)
}

func (s *CostCenterService) Get(ctx context.Context, id uuid.UUID) (domain.CostCenter, error) {
	return s.repo.GetCostCenter(ctx, id)
}

func (s *CostCenterService) Create(ctx context.Context, form CostCenterForm) (domain.CostCenter, error) {
	if err := s.validate(form); err != nil {
		return domain.CostCenter{}, err
	}
	return s.repo.CreateCostCenter(ctx, domain.CostCenter{
		Description: strings.TrimSpace(form.Description),
		Active:      form.IsActive(),
	})
}

// Update replaces every mutable field. The cost center must exist before the
// form is even looked at.
func (s *CostCenterService) Update(ctx context.Context, id uuid.UUID, form CostCenterForm) (domain.CostCenter, error) {
	if _, err := s.repo.GetCostCenter(ctx, id); err != nil {
		return domain.CostCenter{}, err
	}
	if err := s.validate(form); err != nil {
		return domain.CostCenter{}, err
	}
	return s.repo.UpdateCostCenter(ctx, domain.CostCenter{
		ExternalID:  id,
		Description: strings.TrimSpace(form.Description),
		Active:      form.IsActive(),
	})
}

func (s *CostCenterService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCostCenter(ctx, id)
}

func (s *CostCenterService) validate(form CostCenterForm) error {
	violations, err := s.validator.Check("cost-center", form)
	if err != nil {
		return err
	}
	return violations.Err()
}
