// Package view holds the JSON shapes returned to API clients.
package view

import (
	"time"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
)

type CostCenter struct {
	ID          uuid.UUID `json:"id"`
	Active      bool      `json:"active"`
	Description string    `json:"description"`
}

type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Active      bool      `json:"active"`
	Authorities []string  `json:"authorities"`
}

type Authority struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Grant struct {
	Authority string    `json:"authority"`
	GrantedAt time.Time `json:"grantedAt"`
}

func CostCenterOf(c domain.CostCenter) CostCenter {
	return CostCenter{ID: c.ExternalID, Active: c.Active, Description: c.Description}
}

func UserOf(u domain.User) User {
	return User{
		ID:          u.ExternalID,
		Name:        u.Name,
		Email:       u.Email,
		Active:      u.Active,
		Authorities: u.AuthorityNames(),
	}
}

func AuthorityOf(a domain.Authority) Authority {
	return Authority{ID: a.ExternalID, Name: a.Name}
}

func GrantOf(g domain.Grant) Grant {
	return Grant{Authority: g.Authority.Name, GrantedAt: g.CreatedAt}
}

func Grants(grants []domain.Grant) []Grant {
	out := make([]Grant, 0, len(grants))
	for _, g := range grants {
		out = append(out, GrantOf(g))
	}
	return out
}
