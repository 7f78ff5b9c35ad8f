package gormdb

import (
	"context"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
)

var costCenterSortColumns = map[string]string{
	"description": "description",
	"active":      "active",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

func (r *Repository) ListCostCenters(ctx context.Context, filter domain.CostCenterFilter, page domain.PageRequest) (domain.Page[domain.CostCenter], error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&CostCenterModel{}).Scopes(CostCenterSpecs(filter)...)

	rows, total, err := findPage[CostCenterModel](q, page, costCenterSortColumns)
	if err != nil {
		return domain.Page[domain.CostCenter]{}, err
	}

	result := make([]domain.CostCenter, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain())
	}
	return domain.NewPage(result, page, total), nil
}

func (r *Repository) GetCostCenter(ctx context.Context, externalID uuid.UUID) (domain.CostCenter, error) {
	var m CostCenterModel
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&m).Error; err != nil {
		return domain.CostCenter{}, translateError(err)
	}
	return m.toDomain(), nil
}

func (r *Repository) CreateCostCenter(ctx context.Context, value domain.CostCenter) (domain.CostCenter, error) {
	m := CostCenterModel{
		ExternalID:  value.ExternalID,
		Description: value.Description,
		Active:      value.Active,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.CostCenter{}, translateError(err)
	}
	return m.toDomain(), nil
}

func (r *Repository) UpdateCostCenter(ctx context.Context, value domain.CostCenter) (domain.CostCenter, error) {
	var m CostCenterModel
	if err := r.db.WithContext(ctx).Where("external_id = ?", value.ExternalID).First(&m).Error; err != nil {
		return domain.CostCenter{}, translateError(err)
	}

	m.Description = value.Description
	m.Active = value.Active
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return domain.CostCenter{}, translateError(err)
	}
	return m.toDomain(), nil
}

func (r *Repository) DeleteCostCenter(ctx context.Context, externalID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("external_id = ?", externalID).Delete(&CostCenterModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
