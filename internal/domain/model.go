package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuthorityAdministration = "ADMINISTRATION"
	AuthorityRegistration   = "REGISTRATION"
	AuthorityFinancial      = "FINANCIAL"
	AuthorityDashboards     = "DASHBOARDS"
)

// DefaultAuthorities are seeded on every server start.
var DefaultAuthorities = []string{
	AuthorityAdministration,
	AuthorityRegistration,
	AuthorityFinancial,
	AuthorityDashboards,
}

type CostCenter struct {
	ID          uint
	ExternalID  uuid.UUID
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type User struct {
	ID         uint
	ExternalID uuid.UUID
	Name       string
	Email      string
	Password   string
	Active     bool
	Grants     []Grant
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AuthorityNames flattens the user's grants into role names.
func (u User) AuthorityNames() []string {
	names := make([]string, 0, len(u.Grants))
	for _, g := range u.Grants {
		names = append(names, g.Authority.Name)
	}
	return names
}

type Grant struct {
	ID        uint
	UserID    uint
	Authority Authority
	CreatedAt time.Time
}

type Authority struct {
	ID         uint
	ExternalID uuid.UUID
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type AuditLog struct {
	ID          uint
	ActorUserID *uint
	Action      string
	TargetType  string
	TargetID    string
	Metadata    string
	CreatedAt   time.Time
}

type AuditRecord struct {
	ID         uint      `json:"id"`
	ActorEmail string    `json:"actorEmail,omitempty"`
	Action     string    `json:"action"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId,omitempty"`
	Metadata   string    `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Identity struct {
	User        User
	Authorities map[string]struct{}
}

func NewIdentity(u User) Identity {
	set := make(map[string]struct{}, len(u.Grants))
	for _, name := range u.AuthorityNames() {
		set[name] = struct{}{}
	}
	return Identity{User: u, Authorities: set}
}

// Has reports whether the identity holds authority. ADMINISTRATION holds all.
func (i Identity) Has(authority string) bool {
	if _, ok := i.Authorities[AuthorityAdministration]; ok {
		return true
	}
	_, ok := i.Authorities[authority]
	return ok
}
