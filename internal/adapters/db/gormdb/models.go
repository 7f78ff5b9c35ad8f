package gormdb

import (
	"time"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
)

type CostCenterModel struct {
	ID          uint      `gorm:"primaryKey"`
	ExternalID  uuid.UUID `gorm:"uniqueIndex;not null"`
	Description string    `gorm:"not null"`
	Active      bool      `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CostCenterModel) TableName() string { return "cost_centers" }

func (m CostCenterModel) toDomain() domain.CostCenter {
	return domain.CostCenter{
		ID:          m.ID,
		ExternalID:  m.ExternalID,
		Description: m.Description,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type AuthorityModel struct {
	ID         uint      `gorm:"primaryKey"`
	ExternalID uuid.UUID `gorm:"uniqueIndex;not null"`
	Name       string    `gorm:"uniqueIndex;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (AuthorityModel) TableName() string { return "authorities" }

func (m AuthorityModel) toDomain() domain.Authority {
	return domain.Authority{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		Name:       m.Name,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type UserModel struct {
	ID         uint         `gorm:"primaryKey"`
	ExternalID uuid.UUID    `gorm:"uniqueIndex;not null"`
	Name       string       `gorm:"not null"`
	Email      string       `gorm:"uniqueIndex;not null"`
	Password   string       `gorm:"not null"`
	Active     bool         `gorm:"not null"`
	Grants     []GrantModel `gorm:"foreignKey:UserID"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (UserModel) TableName() string { return "users" }

func (m UserModel) toDomain() domain.User {
	grants := make([]domain.Grant, 0, len(m.Grants))
	for _, g := range m.Grants {
		grants = append(grants, g.toDomain())
	}
	return domain.User{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		Name:       m.Name,
		Email:      m.Email,
		Password:   m.Password,
		Active:     m.Active,
		Grants:     grants,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type GrantModel struct {
	ID          uint           `gorm:"primaryKey"`
	UserID      uint           `gorm:"not null;index:idx_grants_user_authority,unique"`
	AuthorityID uint           `gorm:"not null;index:idx_grants_user_authority,unique"`
	Authority   AuthorityModel `gorm:"foreignKey:AuthorityID"`
	CreatedAt   time.Time
}

func (GrantModel) TableName() string { return "grants" }

func (m GrantModel) toDomain() domain.Grant {
	return domain.Grant{
		ID:        m.ID,
		UserID:    m.UserID,
		Authority: m.Authority.toDomain(),
		CreatedAt: m.CreatedAt,
	}
}

type AuditLogModel struct {
	ID          uint   `gorm:"primaryKey"`
	ActorUserID *uint  `gorm:"index"`
	Action      string `gorm:"not null"`
	TargetType  string `gorm:"not null"`
	TargetID    string
	Metadata    string
	CreatedAt   time.Time
}

func (AuditLogModel) TableName() string { return "audit_logs" }
