package domain

import (
	"context"

	"github.com/google/uuid"
)

type CostCenterRepository interface {
	ListCostCenters(ctx context.Context, filter CostCenterFilter, page PageRequest) (Page[CostCenter], error)
	GetCostCenter(ctx context.Context, externalID uuid.UUID) (CostCenter, error)
	CreateCostCenter(ctx context.Context, value CostCenter) (CostCenter, error)
	UpdateCostCenter(ctx context.Context, value CostCenter) (CostCenter, error)
	DeleteCostCenter(ctx context.Context, externalID uuid.UUID) error
}

type UserRepository interface {
	ListUsers(ctx context.Context, filter UserFilter, page PageRequest) (Page[User], error)
	GetUser(ctx context.Context, externalID uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	CountUsers(ctx context.Context) (int64, error)
	EmailTaken(ctx context.Context, email string, exceptExternalID *uuid.UUID) (bool, error)
	CreateUser(ctx context.Context, value User) (User, error)
	UpdateUser(ctx context.Context, value User) (User, error)
	UpdatePassword(ctx context.Context, externalID uuid.UUID, hash string) error
	DeleteUser(ctx context.Context, externalID uuid.UUID) error
	ListGrants(ctx context.Context, userExternalID uuid.UUID) ([]Grant, error)
	GrantAuthority(ctx context.Context, userExternalID uuid.UUID, authorityID uint) (Grant, error)
	RevokeAuthority(ctx context.Context, userExternalID uuid.UUID, authorityID uint) error
}

type AuthorityRepository interface {
	ListAuthorities(ctx context.Context, filter AuthorityFilter, page PageRequest) (Page[Authority], error)
	GetAuthority(ctx context.Context, externalID uuid.UUID) (Authority, error)
	GetAuthorityByName(ctx context.Context, name string) (Authority, error)
	FindAuthoritiesByName(ctx context.Context, names []string) ([]Authority, error)
	CreateAuthority(ctx context.Context, value Authority) (Authority, error)
	CreateAuthorityIfMissing(ctx context.Context, name string) (Authority, error)
	UpdateAuthority(ctx context.Context, value Authority) (Authority, error)
	DeleteAuthority(ctx context.Context, externalID uuid.UUID) error
}

type AuditRepository interface {
	CreateAuditLog(ctx context.Context, value AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]AuditRecord, error)
}
