package gormdb

import (
	"context"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var authoritySortColumns = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
}

func (r *Repository) ListAuthorities(ctx context.Context, filter domain.AuthorityFilter, page domain.PageRequest) (domain.Page[domain.Authority], error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&AuthorityModel{}).Scopes(AuthoritySpecs(filter)...)

	rows, total, err := findPage[AuthorityModel](q, page, authoritySortColumns)
	if err != nil {
		return domain.Page[domain.Authority]{}, err
	}

	result := make([]domain.Authority, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain())
	}
	return domain.NewPage(result, page, total), nil
}

func (r *Repository) GetAuthority(ctx context.Context, externalID uuid.UUID) (domain.Authority, error) {
	var m AuthorityModel
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&m).Error; err != nil {
		return domain.Authority{}, translateError(err)
	}
	return m.toDomain(), nil
}

func (r *Repository) GetAuthorityByName(ctx context.Context, name string) (domain.Authority, error) {
	var m AuthorityModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		return domain.Authority{}, translateError(err)
	}
	return m.toDomain(), nil
}

func (r *Repository) FindAuthoritiesByName(ctx context.Context, names []string) ([]domain.Authority, error) {
	rows := make([]AuthorityModel, 0)
	if len(names) == 0 {
		return []domain.Authority{}, nil
	}
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Authority, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain())
	}
	return result, nil
}

func (r *Repository) CreateAuthority(ctx context.Context, value domain.Authority) (domain.Authority, error) {
	m := AuthorityModel{ExternalID: value.ExternalID, Name: value.Name}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Authority{}, translateError(err)
	}
	return m.toDomain(), nil
}

func (r *Repository) CreateAuthorityIfMissing(ctx context.Context, name string) (domain.Authority, error) {
	m := AuthorityModel{Name: name}
	if err := r.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&m).Error; err != nil {
		return domain.Authority{}, translateError(err)
	}
	return m.toDomain(), nil
}

func (r *Repository) UpdateAuthority(ctx context.Context, value domain.Authority) (domain.Authority, error) {
	var m AuthorityModel
	if err := r.db.WithContext(ctx).Where("external_id = ?", value.ExternalID).First(&m).Error; err != nil {
		return domain.Authority{}, translateError(err)
	}

	m.Name = value.Name
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return domain.Authority{}, translateError(err)
	}
	return m.toDomain(), nil
}

// DeleteAuthority also removes every grant of the authority.
func (r *Repository) DeleteAuthority(ctx context.Context, externalID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m AuthorityModel
		if err := tx.Select("id").Where("external_id = ?", externalID).First(&m).Error; err != nil {
			return err
		}
		if err := tx.Where("authority_id = ?", m.ID).Delete(&GrantModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&AuthorityModel{}, m.ID).Error
	})
	return translateError(err)
}
