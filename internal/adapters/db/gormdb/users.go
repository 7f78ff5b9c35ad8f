package gormdb

import (
	"context"
	"strings"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var userSortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"active":    "active",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func withGrants(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Grants", func(db *gorm.DB) *gorm.DB { return db.Order("grants.id ASC") }).
		Preload("Grants.Authority")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repository) ListUsers(ctx context.Context, filter domain.UserFilter, page domain.PageRequest) (domain.Page[domain.User], error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&UserModel{}).Scopes(UserSpecs(filter)...)

	rows, total, err := findPage[UserModel](q, page, userSortColumns, withGrants)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}

	result := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain())
	}
	return domain.NewPage(result, page, total), nil
}

func (r *Repository) GetUser(ctx context.Context, externalID uuid.UUID) (domain.User, error) {
	return r.getUser(r.db.WithContext(ctx), "external_id = ?", externalID)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getUser(r.db.WithContext(ctx), "email = ?", normalizeEmail(email))
}

func (r *Repository) getUser(tx *gorm.DB, query string, arg any) (domain.User, error) {
	var m UserModel
	if err := tx.Scopes(withGrants).Where(query, arg).First(&m).Error; err != nil {
		return domain.User{}, translateError(err)
	}
	return m.toDomain(), nil
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error
	return count, err
}

func (r *Repository) EmailTaken(ctx context.Context, email string, exceptExternalID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&UserModel{}).Where("email = ?", normalizeEmail(email))
	if exceptExternalID != nil {
		q = q.Where("external_id <> ?", *exceptExternalID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	var created domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := UserModel{
			ExternalID: value.ExternalID,
			Name:       strings.TrimSpace(value.Name),
			Email:      normalizeEmail(value.Email),
			Password:   value.Password,
			Active:     value.Active,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		if err := replaceGrants(tx, m.ID, authorityIDs(value.Grants)); err != nil {
			return err
		}

		var err error
		created, err = r.getUser(tx, "id = ?", m.ID)
		return err
	})
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return created, nil
}

// UpdateUser replaces name, email, active flag and grants. The password is
// left untouched.
func (r *Repository) UpdateUser(ctx context.Context, value domain.User) (domain.User, error) {
	var updated domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m UserModel
		if err := tx.Where("external_id = ?", value.ExternalID).First(&m).Error; err != nil {
			return err
		}

		m.Name = strings.TrimSpace(value.Name)
		m.Email = normalizeEmail(value.Email)
		m.Active = value.Active
		if err := tx.Omit("Grants").Save(&m).Error; err != nil {
			return err
		}
		if err := replaceGrants(tx, m.ID, authorityIDs(value.Grants)); err != nil {
			return err
		}

		var err error
		updated, err = r.getUser(tx, "id = ?", m.ID)
		return err
	})
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return updated, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, externalID uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).Model(&UserModel{}).Where("external_id = ?", externalID).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, externalID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userID, err := findUserID(tx, externalID)
		if err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&GrantModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&UserModel{}, userID).Error
	})
	return translateError(err)
}

func (r *Repository) ListGrants(ctx context.Context, userExternalID uuid.UUID) ([]domain.Grant, error) {
	tx := r.db.WithContext(ctx)
	userID, err := findUserID(tx, userExternalID)
	if err != nil {
		return nil, translateError(err)
	}

	rows := make([]GrantModel, 0)
	if err := tx.Preload("Authority").Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Grant, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain())
	}
	return result, nil
}

// GrantAuthority is idempotent: granting an already held authority returns
// the existing grant.
func (r *Repository) GrantAuthority(ctx context.Context, userExternalID uuid.UUID, authorityID uint) (domain.Grant, error) {
	var grant GrantModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userID, err := findUserID(tx, userExternalID)
		if err != nil {
			return err
		}
		grant = GrantModel{UserID: userID, AuthorityID: authorityID}
		if err := tx.Where("user_id = ? AND authority_id = ?", userID, authorityID).FirstOrCreate(&grant).Error; err != nil {
			return err
		}
		return tx.Preload("Authority").First(&grant, grant.ID).Error
	})
	if err != nil {
		return domain.Grant{}, translateError(err)
	}
	return grant.toDomain(), nil
}

func (r *Repository) RevokeAuthority(ctx context.Context, userExternalID uuid.UUID, authorityID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userID, err := findUserID(tx, userExternalID)
		if err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND authority_id = ?", userID, authorityID).Delete(&GrantModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	return translateError(err)
}

func findUserID(tx *gorm.DB, externalID uuid.UUID) (uint, error) {
	var m UserModel
	if err := tx.Select("id").Where("external_id = ?", externalID).First(&m).Error; err != nil {
		return 0, err
	}
	return m.ID, nil
}

func authorityIDs(grants []domain.Grant) []uint {
	ids := make([]uint, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.Authority.ID)
	}
	return ids
}

// replaceGrants makes the user's grants match ids exactly, keeping the
// grants that survive.
func replaceGrants(tx *gorm.DB, userID uint, ids []uint) error {
	del := tx.Where("user_id = ?", userID)
	if len(ids) > 0 {
		del = del.Where("authority_id NOT IN ?", ids)
	}
	if err := del.Delete(&GrantModel{}).Error; err != nil {
		return err
	}

	for _, id := range ids {
		g := GrantModel{UserID: userID, AuthorityID: id}
		if err := tx.Where("user_id = ? AND authority_id = ?", userID, id).FirstOrCreate(&g).Error; err != nil {
			return err
		}
	}
	return nil
}
